package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for each configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("audio.source", "sysdefault")
	viper.SetDefault("audio.channels", DefaultChannels)
	viper.SetDefault("audio.samplerate", DefaultSampleRate)
	viper.SetDefault("audio.gain", 1.0)
	viper.SetDefault("audio.bufferduration", DefaultBufferDuration)

	viper.SetDefault("apm.enabled", true)

	viper.SetDefault("transport.type", "discard")
	viper.SetDefault("transport.buffered", false)
	viper.SetDefault("transport.rtp.address", "127.0.0.1:5004")
	viper.SetDefault("transport.rtp.payloadtype", 96)
	viper.SetDefault("transport.rtp.ssrc", 0)
	viper.SetDefault("transport.wav.path", "clips/")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")

	viper.SetDefault("log.enabled", true)
	viper.SetDefault("log.path", "voicecapture.log")
	viper.SetDefault("log.maxsize", 100)
	viper.SetDefault("log.maxbackups", 3)
	viper.SetDefault("log.maxage", 28)
}
