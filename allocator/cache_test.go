// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package allocator

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph"
)

var smallTexture = framegraph.TextureDescriptor{Width: 16, Height: 16, Depth: 1, Levels: 1, Samples: 1}

func TestNewCacheDefaults(t *testing.T) {
	tests := []struct {
		name           string
		config         CacheConfig
		wantAge        uint64
		wantMaxEntries int
	}{
		{"zero", CacheConfig{}, DefaultMaxAge, DefaultMaxEntries},
		{"negative", CacheConfig{MaxAge: -1, MaxEntries: -5}, DefaultMaxAge, DefaultMaxEntries},
		{"custom", CacheConfig{MaxAge: 3, MaxEntries: 8}, 3, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache(NewSoftware(), tt.config)
			if c.maxAge != tt.wantAge || c.maxEntries != tt.wantMaxEntries {
				t.Errorf("maxAge, maxEntries = %d, %d, want %d, %d",
					c.maxAge, c.maxEntries, tt.wantAge, tt.wantMaxEntries)
			}
		})
	}
}

func TestCacheReusesMatchingTexture(t *testing.T) {
	s := NewSoftware()
	c := NewCache(s, CacheConfig{})

	first, err := c.AcquireTexture("a", smallTexture, framegraph.TextureUsageRenderAttachment)
	if err != nil {
		t.Fatalf("AcquireTexture() error = %v", err)
	}
	c.Release(first)

	again, _ := c.AcquireTexture("b", smallTexture, framegraph.TextureUsageRenderAttachment)
	if again != first {
		t.Error("identical request did not reuse the released texture")
	}

	other, _ := c.AcquireTexture("c", smallTexture, framegraph.TextureUsageTextureBinding)
	if other == first {
		t.Error("a different usage must not reuse the texture")
	}

	if s.Created() != 2 {
		t.Errorf("Created() = %d, want 2", s.Created())
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 2 || st.InUse != 2 || st.Free != 0 {
		t.Errorf("Stats() = %+v, want 1 hit, 2 misses, 2 in use", st)
	}
}

func TestCacheKeepsKindsApart(t *testing.T) {
	c := NewCache(NewSoftware(), CacheConfig{})

	buf, _ := c.AcquireBuffer("b", framegraph.BufferDescriptor{Size: 16}, framegraph.BufferUsageStorage)
	c.Release(buf)

	tex, _ := c.AcquireTexture("t", smallTexture, 0)
	if tex == buf {
		t.Error("a buffer was handed out as a texture")
	}
	again, _ := c.AcquireBuffer("b2", framegraph.BufferDescriptor{Size: 16}, framegraph.BufferUsageStorage)
	if again != buf {
		t.Error("identical buffer request did not reuse the released buffer")
	}
}

func TestCacheGcReleasesOldObjects(t *testing.T) {
	s := NewSoftware()
	c := NewCache(s, CacheConfig{MaxAge: 2})

	tex, _ := c.AcquireTexture("t", smallTexture, 0)
	c.Release(tex)

	for frame := 1; frame <= 2; frame++ {
		if n := c.Gc(); n != 0 {
			t.Fatalf("Gc() at frame %d = %d, want 0", frame, n)
		}
	}
	if n := c.Gc(); n != 1 {
		t.Fatalf("Gc() = %d, want 1", n)
	}
	if tc, _ := s.Live(); tc != 0 {
		t.Errorf("live textures = %d, want 0 after eviction", tc)
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestCacheGcRespectsMaxEntries(t *testing.T) {
	s := NewSoftware()
	c := NewCache(s, CacheConfig{MaxEntries: 2})

	var objs []any
	for range 4 {
		obj, _ := c.AcquireTexture("t", smallTexture, 0)
		objs = append(objs, obj)
	}
	for _, obj := range objs {
		c.Release(obj)
	}

	if n := c.Gc(); n != 2 {
		t.Errorf("Gc() = %d, want 2", n)
	}
	if tc, _ := s.Live(); tc != 2 {
		t.Errorf("live textures = %d, want 2", tc)
	}
}

func TestCachePurge(t *testing.T) {
	s := NewSoftware()
	c := NewCache(s, CacheConfig{})

	a, _ := c.AcquireTexture("a", smallTexture, 0)
	b, _ := c.AcquireBuffer("b", framegraph.BufferDescriptor{Size: 4}, 0)
	held, _ := c.AcquireBuffer("held", framegraph.BufferDescriptor{Size: 8}, 0)
	c.Release(a)
	c.Release(b)

	if n := c.Purge(); n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	if tc, bc := s.Live(); tc != 0 || bc != 1 {
		t.Errorf("Live() = %d, %d, want 0, 1", tc, bc)
	}

	c.Release(held)
	if c.Stats().Free != 1 {
		t.Errorf("Free = %d, want the held buffer back on the free list", c.Stats().Free)
	}
}

func TestCacheReleaseUnknownObject(t *testing.T) {
	r := &countingAllocator{}
	c := NewCache(r, CacheConfig{})

	c.Release("foreign")
	c.Release([]byte{1, 2, 3})
	if r.released != 2 {
		t.Errorf("backing released %d, want 2", r.released)
	}
}

func TestCacheAcquireError(t *testing.T) {
	r := &countingAllocator{fail: true}
	c := NewCache(r, CacheConfig{})

	if _, err := c.AcquireTexture("t", smallTexture, 0); !errors.Is(err, errBackingFailed) {
		t.Errorf("AcquireTexture() error = %v, want errBackingFailed", err)
	}
	if st := c.Stats(); st.InUse != 0 {
		t.Errorf("InUse = %d, want 0", st.InUse)
	}
}

func TestCacheRenderTargetForwarding(t *testing.T) {
	plain := NewCache(NewSoftware(), CacheConfig{})
	if rt, err := plain.CreateRenderTarget("rt", framegraph.RenderTargetInfo{}); rt != nil || err != nil {
		t.Errorf("CreateRenderTarget() = %v, %v, want nil, nil", rt, err)
	}
	plain.DestroyRenderTarget(nil)

	r := &countingAllocator{}
	c := NewCache(r, CacheConfig{})
	rt, err := c.CreateRenderTarget("rt", framegraph.RenderTargetInfo{})
	if err != nil || rt != "rt:rt" {
		t.Errorf("CreateRenderTarget() = %v, %v, want rt:rt", rt, err)
	}
	c.DestroyRenderTarget(rt)
	if r.targets != 0 {
		t.Errorf("targets = %d, want 0", r.targets)
	}
}

func TestCacheRenderTargetWithoutBackendSupport(t *testing.T) {
	fg := framegraph.New(NewCache(NewSoftware(), CacheConfig{}))

	type colorData struct {
		color framegraph.TextureID
		rt    uint32
	}
	var got framegraph.RenderTargetInfo
	ran := false
	p := framegraph.AddPass(fg, "draw",
		func(b *framegraph.Builder, d *colorData) {
			d.color = b.CreateTexture("color", smallTexture)
			d.rt = b.UseAsColorTarget(&d.color)
		},
		func(res *framegraph.Resources, d colorData, _ any) {
			got = res.RenderTarget(d.rt)
			ran = res.Texture(d.color) != nil
		})
	fg.PresentTexture(p.Data().color)

	if err := fg.Compile().Execute(nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran {
		t.Fatal("pass did not get its color texture")
	}
	if got.Target != nil {
		t.Errorf("RenderTargetInfo.Target = %v, want nil", got.Target)
	}
	if !got.Attachments.Has(framegraph.TargetColor0) {
		t.Errorf("Attachments = %b, want color 0", got.Attachments)
	}
}

// TestCacheAcrossFrames drives the same graph for several frames and
// checks that concrete objects are created once.
func TestCacheAcrossFrames(t *testing.T) {
	s := NewSoftware()
	c := NewCache(s, CacheConfig{})
	fg := framegraph.New(c)

	type data struct{ gbuffer, color framegraph.TextureID }
	for range 5 {
		geom := framegraph.AddPass(fg, "geometry", func(b *framegraph.Builder, d *data) {
			d.gbuffer = b.CreateTexture("gbuffer", framegraph.TextureDescriptor{Width: 32, Height: 32})
			b.UseAsColorTarget(&d.gbuffer)
		}, func(*framegraph.Resources, data, any) {})
		light := framegraph.AddPass(fg, "lighting", func(b *framegraph.Builder, d *data) {
			b.ReadTexture(geom.Data().gbuffer, framegraph.TextureUsageTextureBinding)
			d.color = b.CreateTexture("color", framegraph.TextureDescriptor{Width: 32, Height: 32})
			b.UseAsColorTarget(&d.color)
		}, func(*framegraph.Resources, data, any) {})
		fg.PresentTexture(light.Data().color)

		if err := fg.Compile().Execute(nil); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		fg.Reset()
		c.Gc()
	}

	// gbuffer and color have different usages, so both are created once
	// and reused in every later frame.
	if s.Created() != 2 {
		t.Errorf("Created() = %d, want 2", s.Created())
	}
	if st := c.Stats(); st.Hits != 8 || st.InUse != 0 {
		t.Errorf("Stats() = %+v, want 8 hits and nothing in use", st)
	}
}

var errBackingFailed = errors.New("backing failed")

// countingAllocator is a minimal backing allocator with render-target
// support.
type countingAllocator struct {
	fail     bool
	released int
	targets  int
}

func (r *countingAllocator) AcquireTexture(name string, _ framegraph.TextureDescriptor, _ framegraph.TextureUsage) (any, error) {
	if r.fail {
		return nil, errBackingFailed
	}
	return &name, nil
}

func (r *countingAllocator) AcquireBuffer(name string, _ framegraph.BufferDescriptor, _ framegraph.BufferUsage) (any, error) {
	if r.fail {
		return nil, errBackingFailed
	}
	return &name, nil
}

func (r *countingAllocator) Release(any) { r.released++ }

func (r *countingAllocator) CreateRenderTarget(name string, _ framegraph.RenderTargetInfo) (any, error) {
	r.targets++
	return "rt:" + name, nil
}

func (r *countingAllocator) DestroyRenderTarget(any) { r.targets-- }
