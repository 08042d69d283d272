// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package allocator

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device for testing.
// Returns the device and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, cleanup
}

func TestHALAcquireRelease(t *testing.T) {
	device, cleanup := createNoopDevice(t)
	defer cleanup()

	a := NewHAL(device)
	if a.Device() != device {
		t.Error("device not stored correctly")
	}

	tex, err := a.AcquireTexture("color", framegraph.TextureDescriptor{
		Width: 64, Height: 64, Depth: 1, Levels: 1, Samples: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, framegraph.TextureUsageRenderAttachment|framegraph.TextureUsageTextureBinding)
	if err != nil {
		t.Fatalf("AcquireTexture() error = %v", err)
	}
	if _, ok := tex.(hal.Texture); !ok {
		t.Errorf("AcquireTexture() = %T, want hal.Texture", tex)
	}

	buf, err := a.AcquireBuffer("uniforms", framegraph.BufferDescriptor{Size: 256}, framegraph.BufferUsageUniform)
	if err != nil {
		t.Fatalf("AcquireBuffer() error = %v", err)
	}
	if _, ok := buf.(hal.Buffer); !ok {
		t.Errorf("AcquireBuffer() = %T, want hal.Buffer", buf)
	}

	if a.Live() != 2 {
		t.Errorf("Live() = %d, want 2", a.Live())
	}
	a.Release(tex)
	a.Release(buf)
	a.Release(struct{}{})
	if a.Live() != 0 {
		t.Errorf("Live() after Release = %d, want 0", a.Live())
	}
}

func TestHALTextureDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		desc    framegraph.TextureDescriptor
		wantDim gputypes.TextureDimension
	}{
		{"2d", framegraph.TextureDescriptor{Width: 4, Height: 4, Depth: 1, Levels: 3, Samples: 1}, gputypes.TextureDimension2D},
		{"array", framegraph.TextureDescriptor{Width: 4, Height: 4, Depth: 8, Levels: 1, Samples: 1, Type: framegraph.Texture2DArray}, gputypes.TextureDimension2D},
		{"cube", framegraph.TextureDescriptor{Width: 4, Height: 4, Depth: 6, Levels: 1, Samples: 1, Type: framegraph.TextureCube}, gputypes.TextureDimension2D},
		{"3d", framegraph.TextureDescriptor{Width: 4, Height: 4, Depth: 4, Levels: 1, Samples: 1, Type: framegraph.Texture3D}, gputypes.TextureDimension3D},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := halTextureDescriptor(tt.name, tt.desc, framegraph.TextureUsageCopyDst)
			if d.Dimension != tt.wantDim {
				t.Errorf("Dimension = %v, want %v", d.Dimension, tt.wantDim)
			}
			if d.Size.DepthOrArrayLayers != tt.desc.Depth {
				t.Errorf("DepthOrArrayLayers = %d, want %d", d.Size.DepthOrArrayLayers, tt.desc.Depth)
			}
			if d.MipLevelCount != uint32(tt.desc.Levels) {
				t.Errorf("MipLevelCount = %d, want %d", d.MipLevelCount, tt.desc.Levels)
			}
			if d.Label != tt.name || d.Usage != framegraph.TextureUsageCopyDst {
				t.Errorf("Label, Usage = %q, %v", d.Label, d.Usage)
			}
		})
	}
}

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	gpucontext.DeviceProvider
}

// halMockProvider additionally exposes a HAL device.
type halMockProvider struct {
	mockProvider
	device any
}

func (p *halMockProvider) HalDevice() any { return p.device }

func TestNewHALFromProvider(t *testing.T) {
	device, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		wantErr  bool
	}{
		{"hal device", &halMockProvider{device: device}, false},
		{"no HalDevice method", &mockProvider{}, true},
		{"wrong device type", &halMockProvider{device: &mockDevice{}}, true},
		{"nil device", &halMockProvider{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewHALFromProvider(tt.provider)
			if tt.wantErr {
				if !errors.Is(err, ErrNoHALDevice) {
					t.Errorf("NewHALFromProvider() error = %v, want ErrNoHALDevice", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHALFromProvider() error = %v", err)
			}
			if a.Device() != device {
				t.Error("device not taken from provider")
			}
		})
	}
}

func TestHALWithFrameGraph(t *testing.T) {
	device, cleanup := createNoopDevice(t)
	defer cleanup()

	a := NewHAL(device)
	fg := framegraph.New(a)

	type data struct{ color framegraph.TextureID }
	var seen any
	p := framegraph.AddPass(fg, "draw", func(b *framegraph.Builder, d *data) {
		d.color = b.CreateTexture("color", framegraph.TextureDescriptor{Width: 32, Height: 32})
		b.UseAsColorTarget(&d.color)
	}, func(res *framegraph.Resources, d data, _ any) {
		seen = res.Texture(d.color)
	})
	fg.PresentTexture(p.Data().color)

	if err := fg.Compile().Execute(nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, ok := seen.(hal.Texture); !ok {
		t.Errorf("pass saw %T, want hal.Texture", seen)
	}
	if a.Live() != 0 {
		t.Errorf("Live() after Execute = %d, want 0", a.Live())
	}
}

// sliceTexture and sliceBuffer are not comparable, like backends that
// return handle structs holding slices.
type sliceTexture struct {
	hal.Texture
	labels []string
}

type sliceBuffer struct {
	hal.Buffer
	labels []string
}

// sliceDevice wraps a device so that it returns non-comparable objects.
type sliceDevice struct {
	hal.Device
	texturesDestroyed int
	buffersDestroyed  int
}

func (d *sliceDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	tex, err := d.Device.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	return sliceTexture{Texture: tex, labels: []string{desc.Label}}, nil
}

func (d *sliceDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	buf, err := d.Device.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	return sliceBuffer{Buffer: buf, labels: []string{desc.Label}}, nil
}

func (d *sliceDevice) DestroyTexture(tex hal.Texture) {
	d.texturesDestroyed++
	d.Device.DestroyTexture(tex.(sliceTexture).Texture)
}

func (d *sliceDevice) DestroyBuffer(buf hal.Buffer) {
	d.buffersDestroyed++
	d.Device.DestroyBuffer(buf.(sliceBuffer).Buffer)
}

func TestHALNonComparableObjects(t *testing.T) {
	device, cleanup := createNoopDevice(t)
	defer cleanup()

	dev := &sliceDevice{Device: device}
	a := NewHAL(dev)

	desc := smallTexture
	desc.Format = gputypes.TextureFormatRGBA8Unorm
	tex, err := a.AcquireTexture("color", desc, framegraph.TextureUsageRenderAttachment)
	if err != nil {
		t.Fatalf("AcquireTexture() error = %v", err)
	}
	buf, err := a.AcquireBuffer("uniforms", framegraph.BufferDescriptor{Size: 64}, framegraph.BufferUsageUniform)
	if err != nil {
		t.Fatalf("AcquireBuffer() error = %v", err)
	}
	if a.Live() != 2 {
		t.Errorf("Live() = %d, want 2", a.Live())
	}

	a.Release(tex)
	a.Release(buf)
	if a.Live() != 0 {
		t.Errorf("Live() after Release = %d, want 0", a.Live())
	}
	if dev.texturesDestroyed != 1 || dev.buffersDestroyed != 1 {
		t.Errorf("destroyed textures, buffers = %d, %d, want 1, 1", dev.texturesDestroyed, dev.buffersDestroyed)
	}

	a.Release(sliceTexture{labels: []string{"stray"}})
	if dev.texturesDestroyed != 1 || a.Live() != 0 {
		t.Error("releasing with nothing outstanding must be ignored")
	}
}

func TestHALNonComparableWithFrameGraph(t *testing.T) {
	device, cleanup := createNoopDevice(t)
	defer cleanup()

	dev := &sliceDevice{Device: device}
	a := NewHAL(dev)
	fg := framegraph.New(NewCache(a, CacheConfig{}))

	type data struct{ color framegraph.TextureID }
	p := framegraph.AddPass(fg, "draw", func(b *framegraph.Builder, d *data) {
		d.color = b.CreateTexture("color", framegraph.TextureDescriptor{Width: 32, Height: 32})
		b.UseAsColorTarget(&d.color)
	}, nil)
	fg.PresentTexture(p.Data().color)

	if err := fg.Compile().Execute(nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if a.Live() != 0 || dev.texturesDestroyed != 1 {
		t.Errorf("Live(), destroyed = %d, %d, want 0, 1", a.Live(), dev.texturesDestroyed)
	}
}
