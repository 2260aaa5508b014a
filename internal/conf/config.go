// Package conf loads and holds the runtime settings of the capture pipeline.
package conf

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// AudioSettings control the capture device and the core pipeline.
type AudioSettings struct {
	Source         string        `yaml:"source"`         // capture device name or ID ("sysdefault", "USB Audio", ...)
	Channels       int           `yaml:"channels"`       // requested channel count
	SampleRate     int           `yaml:"samplerate"`     // requested sample rate in Hz
	Gain           float64       `yaml:"gain"`           // linear gain applied to converted samples
	BufferDuration time.Duration `yaml:"bufferduration"` // ring buffer length
}

// ApmSettings control the acoustic processing stage.
type ApmSettings struct {
	Enabled bool `yaml:"enabled"` // strict 10 ms framing and per-frame processing
}

// RTPSettings configure the RTP transport sink.
type RTPSettings struct {
	Address     string `yaml:"address"` // UDP destination, host:port
	PayloadType uint8  `yaml:"payloadtype"`
	SSRC        uint32 `yaml:"ssrc"`
}

// WavSettings configure the WAV export sink.
type WavSettings struct {
	Path string `yaml:"path"` // directory for exported chunks
}

// TransportSettings select and configure the downstream sink.
type TransportSettings struct {
	Type     string      `yaml:"type"`     // "rtp", "wav" or "discard"
	Buffered bool        `yaml:"buffered"` // spool frames through a background drain
	RTP      RTPSettings `yaml:"rtp"`
	Wav      WavSettings `yaml:"wav"`
}

// TelemetrySettings configure the optional Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // e.g. "0.0.0.0:8090"
}

// LogSettings configure the file logger.
type LogSettings struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAgeDays int    `yaml:"maxage"`
}

// Settings is the root configuration structure.
type Settings struct {
	Debug     bool              `yaml:"debug"`
	Audio     AudioSettings     `yaml:"audio"`
	Apm       ApmSettings       `yaml:"apm"`
	Transport TransportSettings `yaml:"transport"`
	Telemetry TelemetrySettings `yaml:"telemetry"`
	Log       LogSettings       `yaml:"log"`
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/voicecapture")
	viper.SetEnvPrefix("voicecapture")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		// No config file present, run on defaults.
	}

	return nil
}

// ValidateSettings checks settings for values that would break the pipeline.
func ValidateSettings(s *Settings) error {
	if s.Audio.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", s.Audio.Channels)
	}
	if s.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", s.Audio.SampleRate)
	}
	if s.Audio.BufferDuration <= 0 {
		return fmt.Errorf("invalid buffer duration: %s", s.Audio.BufferDuration)
	}
	if s.Audio.Gain < 0 || s.Audio.Gain > 10 {
		return fmt.Errorf("gain out of range: %f", s.Audio.Gain)
	}
	switch s.Transport.Type {
	case "rtp":
		if s.Transport.RTP.Address == "" {
			return fmt.Errorf("rtp transport requires an address")
		}
	case "wav":
		if s.Transport.Wav.Path == "" {
			return fmt.Errorf("wav transport requires a path")
		}
	case "discard":
	default:
		return fmt.Errorf("unknown transport type: %q", s.Transport.Type)
	}
	return nil
}

// Setting returns the current settings instance, initializing it if necessary.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
