// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package allocator

import (
	"fmt"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// HAL is a ResourceAllocator that creates textures and buffers on a
// gogpu/wgpu HAL device. Acquired objects are hal.Texture and hal.Buffer.
//
// Objects that cannot be map keys are counted but not tracked; Release
// destroys them by type.
//
// HAL is safe for concurrent use as far as the device is.
type HAL struct {
	device hal.Device

	mu        sync.Mutex
	live      map[any]*halEntry
	untracked int
	n         int
}

// halEntry counts live handles per object. Backends may return the same
// handle value twice, so objects are counted rather than flagged.
type halEntry struct {
	textures int
	buffers  int
}

var _ framegraph.ResourceAllocator = (*HAL)(nil)

// NewHAL creates an allocator for device.
func NewHAL(device hal.Device) *HAL {
	return &HAL{
		device: device,
		live:   make(map[any]*halEntry),
	}
}

// NewHALFromProvider creates an allocator for the HAL device of a host
// application. The provider must implement HalDevice() any returning a
// hal.Device, as gogpu does.
func NewHALFromProvider(provider gpucontext.DeviceProvider) (*HAL, error) {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	return NewHAL(device), nil
}

// Device returns the HAL device.
func (a *HAL) Device() hal.Device {
	return a.device
}

// AcquireTexture creates a hal.Texture.
func (a *HAL) AcquireTexture(name string, desc framegraph.TextureDescriptor, usage framegraph.TextureUsage) (any, error) {
	tex, err := a.device.CreateTexture(halTextureDescriptor(name, desc, usage))
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", name, err)
	}
	a.track(tex, framegraph.KindTexture)
	slogger().Debug("allocator: hal texture",
		"name", name, "width", desc.Width, "height", desc.Height, "usage", usage)
	return tex, nil
}

// AcquireBuffer creates a hal.Buffer.
func (a *HAL) AcquireBuffer(name string, desc framegraph.BufferDescriptor, usage framegraph.BufferUsage) (any, error) {
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: name,
		Size:  desc.Size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", name, err)
	}
	a.track(buf, framegraph.KindBuffer)
	slogger().Debug("allocator: hal buffer", "name", name, "size", desc.Size, "usage", usage)
	return buf, nil
}

// Release destroys an object created by this allocator. Unknown objects
// are ignored.
func (a *HAL) Release(obj any) {
	if !hashable(obj) {
		a.releaseUntracked(obj)
		return
	}

	a.mu.Lock()
	e, ok := a.live[obj]
	kind := framegraph.KindBuffer
	if ok {
		if e.textures > 0 {
			kind = framegraph.KindTexture
			e.textures--
		} else {
			e.buffers--
		}
		if e.textures == 0 && e.buffers == 0 {
			delete(a.live, obj)
		}
		a.n--
	}
	a.mu.Unlock()
	if !ok {
		return
	}

	if kind == framegraph.KindTexture {
		a.device.DestroyTexture(obj.(hal.Texture))
	} else {
		a.device.DestroyBuffer(obj.(hal.Buffer))
	}
}

// Live returns the number of objects acquired and not yet released.
func (a *HAL) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

func (a *HAL) releaseUntracked(obj any) {
	a.mu.Lock()
	if a.untracked == 0 {
		a.mu.Unlock()
		return
	}
	a.untracked--
	a.n--
	a.mu.Unlock()

	switch r := obj.(type) {
	case hal.Texture:
		a.device.DestroyTexture(r)
	case hal.Buffer:
		a.device.DestroyBuffer(r)
	}
}

func (a *HAL) track(obj any, kind framegraph.Kind) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !hashable(obj) {
		a.untracked++
		a.n++
		return
	}
	e := a.live[obj]
	if e == nil {
		e = &halEntry{}
		a.live[obj] = e
	}
	if kind == framegraph.KindTexture {
		e.textures++
	} else {
		e.buffers++
	}
	a.n++
}

func halTextureDescriptor(name string, desc framegraph.TextureDescriptor, usage framegraph.TextureUsage) *hal.TextureDescriptor {
	dim := gputypes.TextureDimension2D
	if desc.Type == framegraph.Texture3D {
		dim = gputypes.TextureDimension3D
	}
	return &hal.TextureDescriptor{
		Label: name,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.Depth,
		},
		MipLevelCount: uint32(desc.Levels),
		SampleCount:   uint32(desc.Samples),
		Dimension:     dim,
		Format:        desc.Format,
		Usage:         usage,
	}
}
