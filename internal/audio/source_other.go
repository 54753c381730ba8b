//go:build !linux

package audio

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/gen2brain/malgo"
)

func listDevices(_ context.Context) ([]Device, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("list capture devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			ID:          info.ID.String(),
			Description: info.Name(),
			State:       "running",
			Available:   true,
			Default:     info.IsDefault != 0,
		})
	}
	return devices, nil
}

type malgoSource struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

func openSource(selected Device, onPCM func([]byte) (int, error)) (source, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = Channels
	cfg.SampleRate = SampleRate

	if selected.ID != "" {
		idBytes, err := hex.DecodeString(selected.ID)
		if err != nil {
			_ = mctx.Uninit()
			mctx.Free()
			return nil, fmt.Errorf("invalid device id %q: %w", selected.ID, err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		cfg.Capture.DeviceID = devID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, _ uint32) {
			_, _ = onPCM(data)
		},
	}

	dev, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("start capture device: %w", err)
	}

	return &malgoSource{ctx: mctx, device: dev}, nil
}

func (m *malgoSource) Close() error {
	err := m.device.Stop()
	m.device.Uninit()
	_ = m.ctx.Uninit()
	m.ctx.Free()
	return err
}
