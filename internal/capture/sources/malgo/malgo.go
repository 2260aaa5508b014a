// Package malgo provides a capture source backed by the miniaudio
// library. The device is opened in 32-bit float format and every data
// callback is forwarded to the pipeline as a float32 slice.
package malgo

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/decentraland/voicecapture-go/internal/capture"
	"github.com/decentraland/voicecapture-go/internal/errors"
	"github.com/decentraland/voicecapture-go/internal/logging"
)

const bytesPerFloatSample = 4

// Config selects and formats the capture device.
type Config struct {
	// Source is a device ID or a substring of the device name.
	// "sysdefault" selects the system default device.
	Source     string
	Channels   int
	SampleRate int
	Debug      bool
}

// Source implements capture.CaptureSource on top of a malgo capture device.
type Source struct {
	cfg    Config
	logger interface {
		Debug(msg string, args ...any)
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}

	mu         sync.Mutex
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	deviceName string
	active     bool
	stopping   bool
	floatBuf   []float32
}

// NewSource returns an unstarted source for the configured device.
func NewSource(cfg Config) *Source {
	return &Source{
		cfg:    cfg,
		logger: logging.ForService("malgo-source"),
	}
}

func (s *Source) ID() string { return "malgo:" + s.cfg.Source }

func (s *Source) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deviceName != "" {
		return s.deviceName
	}
	return s.cfg.Source
}

func (s *Source) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start opens the configured device and begins delivering audio to onRead.
// The callback runs on the miniaudio device thread.
func (s *Source) Start(_ context.Context, onRead capture.AudioReadFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return errors.Newf("source already started").
			Component("capture").
			Category(errors.CategoryState).
			Build()
	}

	malgoCtx, err := malgo.InitContext([]malgo.Backend{platformBackend()}, malgo.ContextConfig{}, func(message string) {
		if s.cfg.Debug {
			s.logger.Debug("miniaudio", "message", strings.TrimSpace(message))
		}
	})
	if err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioSource).
			Context("operation", "init_context").
			Build()
	}

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioSource).
			Context("operation", "enumerate_devices").
			Build()
	}

	selected, err := selectDevice(infos, s.cfg.Source)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(s.cfg.Channels)
	deviceConfig.SampleRate = uint32(s.cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1
	deviceConfig.Capture.DeviceID = selected.pointer

	channels := s.cfg.Channels
	sampleRate := s.cfg.SampleRate

	onReceiveFrames := func(_, pSamples []byte, _ uint32) {
		samples := s.bytesToFloats(pSamples)
		if len(samples) == 0 {
			return
		}
		onRead(samples, channels, sampleRate)
	}

	// The device may stop on its own when the backend hiccups. Retry once
	// before giving up, unless Stop was requested.
	onStopDevice := func() {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.mu.Lock()
			device := s.device
			stopping := s.stopping
			s.mu.Unlock()
			if stopping || device == nil {
				return
			}
			if err := device.Start(); err != nil {
				s.logger.Error("failed to restart capture device", "device", selected.name, "error", err)
				return
			}
			s.logger.Info("capture device restarted", "device", selected.name)
		}()
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onReceiveFrames,
		Stop: onStopDevice,
	})
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioSource).
			Context("operation", "init_device").
			Context("device", selected.name).
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioSource).
			Context("operation", "start_device").
			Context("device", selected.name).
			Build()
	}

	s.ctx = malgoCtx
	s.device = device
	s.deviceName = selected.name
	s.active = true
	s.stopping = false

	s.logger.Info("listening on capture source",
		"device", selected.name,
		"id", selected.id,
		"channels", channels,
		"sample_rate", sampleRate)
	return nil
}

// Stop halts capture and releases the device and context.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.stopping = true

	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			s.logger.Warn("failed to uninit audio context", "error", err)
		}
		s.ctx.Free()
		s.ctx = nil
	}
	s.active = false
	return nil
}

// bytesToFloats reinterprets little-endian IEEE 754 sample bytes. The
// returned slice is reused across callbacks.
func (s *Source) bytesToFloats(pSamples []byte) []float32 {
	n := len(pSamples) / bytesPerFloatSample
	if cap(s.floatBuf) < n {
		s.floatBuf = make([]float32, n)
	}
	samples := s.floatBuf[:n]
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(pSamples[i*bytesPerFloatSample:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}

// platformBackend picks the native backend for the current OS and lets
// miniaudio auto-select elsewhere.
func platformBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

type selectedDevice struct {
	name    string
	id      string
	pointer unsafe.Pointer
}

// selectDevice matches the configured source against the enumerated
// capture devices by decoded ID or name substring.
func selectDevice(infos []malgo.DeviceInfo, source string) (selectedDevice, error) {
	for i := range infos {
		info := infos[i]
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		if matchesDeviceSetting(decodedID, info, source) {
			return selectedDevice{
				name:    info.Name(),
				id:      decodedID,
				pointer: infos[i].ID.Pointer(),
			}, nil
		}
	}
	return selectedDevice{}, errors.Newf("no capture device matches %q", source).
		Component("capture").
		Category(errors.CategoryConfiguration).
		Context("source", source).
		Build()
}

// matchesDeviceSetting checks if the device matches the configured source.
func matchesDeviceSetting(decodedID string, info malgo.DeviceInfo, source string) bool {
	if runtime.GOOS == "windows" && source == "sysdefault" {
		// Windows has no "sysdefault" device, use the backend default.
		return info.IsDefault == 1
	}
	if source == "sysdefault" && info.IsDefault == 1 {
		return true
	}
	return decodedID == source || strings.Contains(info.Name(), source)
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
