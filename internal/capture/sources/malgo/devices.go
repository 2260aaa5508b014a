package malgo

import (
	"github.com/gen2brain/malgo"

	"github.com/decentraland/voicecapture-go/internal/errors"
)

// DeviceInfo describes an available audio capture device.
type DeviceInfo struct {
	Index   int
	Name    string
	ID      string
	Default bool
}

// ListDevices enumerates the capture devices visible to the native backend.
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext([]malgo.Backend{platformBackend()}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioSource).
			Context("operation", "init_context").
			Build()
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioSource).
			Context("operation", "enumerate_devices").
			Build()
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		decodedID, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:   i,
			Name:    infos[i].Name(),
			ID:      decodedID,
			Default: infos[i].IsDefault == 1,
		})
	}
	return devices, nil
}
