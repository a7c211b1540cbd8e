package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var errNoAdapter = errors.New("furdemo: no GPU adapter found")

// gpuDevice is an opened adapter and its device.
type gpuDevice struct {
	adapter hal.Adapter
	device  hal.Device
	queue   hal.Queue
	info    gputypes.AdapterInfo
}

func newInstance() (hal.Instance, error) {
	backend, err := hal.SelectBestBackend()
	if err != nil {
		return nil, fmt.Errorf("select backend: %w", err)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return instance, nil
}

// pickAdapter prefers a discrete GPU, then an integrated one, then the
// first adapter listed.
func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// openDevice opens the best adapter compatible with surface, which may be
// nil off-screen. Timestamp queries are requested when available.
func openDevice(instance hal.Instance, surface hal.Surface, logger *slog.Logger) (*gpuDevice, error) {
	exposed := pickAdapter(instance.EnumerateAdapters(surface))
	if exposed == nil {
		return nil, errNoAdapter
	}

	var features gputypes.Features
	if exposed.Features.Contains(gputypes.FeatureTimestampQuery) {
		features.Insert(gputypes.FeatureTimestampQuery)
	}
	open, err := exposed.Adapter.Open(features, exposed.Capabilities.Limits)
	if err != nil {
		return nil, fmt.Errorf("open device on %s: %w", exposed.Info.Name, err)
	}
	logger.Info("furdemo: device opened",
		"adapter", exposed.Info.Name,
		"backend", exposed.Info.Backend,
		"timestamps", features.Contains(gputypes.FeatureTimestampQuery))

	return &gpuDevice{
		adapter: exposed.Adapter,
		device:  open.Device,
		queue:   open.Queue,
		info:    exposed.Info,
	}, nil
}

func (g *gpuDevice) destroy() {
	_ = g.device.WaitIdle()
	g.device.Destroy()
	g.adapter.Destroy()
}
