// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render is the wgpu backend of the compositor: it turns decoded
// frames into sampled textures and draws one textured quad per video
// instance into a window surface or an offscreen texture.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// Register every HAL backend available on this platform.
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/vcompare"
)

// ErrUnsupportedProvider is returned when a host exposes a device that is
// not a wgpu device.
var ErrUnsupportedProvider = errors.New("render: provider does not expose a wgpu device")

// Device is a wgpu device with its queue.
type Device struct {
	Device  *wgpu.Device
	Queue   *wgpu.Queue
	Info    wgpu.AdapterInfo
	release func()
}

// ParseBackends maps a backend name to a backend set. The empty string and
// "all" select every backend.
func ParseBackends(name string) (wgpu.Backends, error) {
	switch strings.ToLower(name) {
	case "", "all":
		return wgpu.BackendsAll, nil
	case "primary":
		return wgpu.BackendsPrimary, nil
	case "vulkan", "vk":
		return wgpu.BackendsVulkan, nil
	case "metal":
		return wgpu.BackendsMetal, nil
	case "dx12", "d3d12":
		return wgpu.BackendsDX12, nil
	case "gl", "gles":
		return wgpu.BackendsGL, nil
	default:
		return 0, fmt.Errorf("render: unknown backend %q", name)
	}
}

// OpenDevice creates an instance, picks an adapter and opens a device on
// it. It is used when no window host provides a device.
func OpenDevice(backends wgpu.Backends) (*Device, error) {
	instance, err := wgpu.CreateInstance(&wgpu.InstanceDescriptor{Backends: backends})
	if err != nil {
		return nil, fmt.Errorf("render: create instance: %w", err)
	}
	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("render: request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("render: request device: %w", err)
	}

	d := &Device{
		Device: device,
		Queue:  device.Queue(),
		Info:   adapter.Info(),
		release: func() {
			device.Release()
			adapter.Release()
			instance.Release()
		},
	}
	logAdapter(d.Info)
	return d, nil
}

// DeviceFromProvider borrows the device of a window host. Closing the
// returned Device does not release it.
func DeviceFromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, ErrUnsupportedProvider
	}
	device, ok := p.Device().(*wgpu.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedProvider, p.Device())
	}
	queue, ok := p.Queue().(*wgpu.Queue)
	if !ok || queue == nil {
		queue = device.Queue()
	}

	d := &Device{Device: device, Queue: queue}
	if a, ok := p.Adapter().(*wgpu.Adapter); ok && a != nil {
		d.Info = a.Info()
		logAdapter(d.Info)
	}
	return d, nil
}

// Close releases the device if this Device owns it.
func (d *Device) Close() {
	if d.release != nil {
		d.release()
		d.release = nil
	}
}

func logAdapter(info gputypes.AdapterInfo) {
	vcompare.ModuleLogger("render").Info("gpu adapter",
		"name", info.Name,
		"vendor", info.Vendor,
		"type", info.DeviceType.String(),
		"backend", info.Backend.String(),
		"driver", info.Driver)
}
