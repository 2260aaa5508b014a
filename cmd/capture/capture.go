// Package capture implements the capture subcommand, which runs the
// real-time pipeline until interrupted.
package capture

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/decentraland/voicecapture-go/internal/conf"
	"github.com/decentraland/voicecapture-go/internal/realtime"
)

// Command creates the capture command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture audio in realtime mode",
		Long:  "Start capturing audio from the configured device and stream frames to the configured transport.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return realtime.Run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the capture command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Audio.Source, "source", viper.GetString("audio.source"), "Audio capture source (\"sysdefault\", \"USB Audio\", \":0,0\", etc.)")
	cmd.Flags().IntVar(&settings.Audio.Channels, "channels", viper.GetInt("audio.channels"), "Number of capture channels")
	cmd.Flags().IntVar(&settings.Audio.SampleRate, "samplerate", viper.GetInt("audio.samplerate"), "Capture sample rate in Hz")
	cmd.Flags().Float64Var(&settings.Audio.Gain, "gain", viper.GetFloat64("audio.gain"), "Linear gain applied to captured audio")
	cmd.Flags().BoolVar(&settings.Apm.Enabled, "apm", viper.GetBool("apm.enabled"), "Enable the acoustic processing stage (strict 10 ms framing)")
	cmd.Flags().StringVar(&settings.Transport.Type, "transport", viper.GetString("transport.type"), "Transport sink (rtp/wav/discard)")
	cmd.Flags().BoolVar(&settings.Transport.Buffered, "buffered", viper.GetBool("transport.buffered"), "Spool frames through a background drain")
	cmd.Flags().StringVar(&settings.Transport.RTP.Address, "rtp-address", viper.GetString("transport.rtp.address"), "RTP destination address (host:port)")
	cmd.Flags().StringVar(&settings.Transport.Wav.Path, "clippath", viper.GetString("transport.wav.path"), "Directory for exported WAV chunks")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
