package framegraph

import (
	"slices"
	"testing"
)

func TestForwardTextureIntoAtlasLayer(t *testing.T) {
	a := newRecordingAllocator()
	fg := New(a)

	type atlasData struct{ atlas, layer TextureID }
	atlas := AddPass(fg, "atlas", func(b *Builder, d *atlasData) {
		d.atlas = b.CreateTexture("atlas", TextureDescriptor{Width: 32, Height: 32, Depth: 2, Type: Texture2DArray})
		d.layer = b.CreateTextureSubresource(&d.atlas, "layer1", TextureSubResourceDescriptor{Layer: 1})
	}, nil)

	storage := func(res *Resources, id TextureID) string {
		return res.Texture(id).(*fakeObject).name
	}
	shadow := AddPass(fg, "shadow", func(b *Builder, d *texData) {
		d.tex = b.CreateTexture("shadowmap", smallTexture)
		b.UseAsColorTarget(&d.tex)
	}, func(res *Resources, d texData, _ any) {
		if got := storage(res, d.tex); got != "atlas" {
			t.Errorf("shadow writes into %q, want atlas", got)
		}
		a.log("exec:shadow")
	})
	lighting := AddPass(fg, "lighting", func(b *Builder, _ *struct{}) {
		b.ReadTexture(shadow.Data().tex, TextureUsageTextureBinding)
		b.SideEffect()
	}, func(res *Resources, _ struct{}, _ any) {
		if got := storage(res, shadow.Data().tex); got != "atlas" {
			t.Errorf("lighting reads %q, want atlas", got)
		}
		a.log("exec:lighting")
	})

	replaced := shadow.Data().tex
	layer := fg.ForwardTexture(atlas.Data().layer, &replaced)

	if replaced.IsValid() {
		t.Errorf("replaced = %v, want the zero handle", replaced)
	}
	if !layer.IsValid() || layer.Version() != atlas.Data().layer.Version()+1 {
		t.Errorf("ForwardTexture() = %v, want the next version of the layer", layer)
	}
	if fg.IsValid(shadow.Data().tex.Handle) {
		t.Error("forwarded handle is still valid")
	}

	late := AddPass(fg, "late", func(b *Builder, _ *struct{}) {
		if got := b.ReadTexture(shadow.Data().tex, TextureUsageTextureBinding); got.IsValid() {
			t.Errorf("ReadTexture(forwarded) = %v, want invalid", got)
		}
		if got := b.WriteTexture(shadow.Data().tex, TextureUsageTextureBinding); got.IsValid() {
			t.Errorf("WriteTexture(forwarded) = %v, want invalid", got)
		}
	}, nil)

	if err := fg.Compile().Execute(nil); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if fg.IsCulled(shadow.ID()) || fg.IsCulled(lighting.ID()) {
		t.Error("shadow and lighting must survive")
	}
	if !fg.IsCulled(late.ID()) {
		t.Error("late should be culled")
	}

	want := []string{"acquire:atlas", "exec:shadow", "exec:lighting", "release:atlas"}
	if !slices.Equal(a.events, want) {
		t.Errorf("events = %v, want %v", a.events, want)
	}
	wantUsage := TextureUsageRenderAttachment | TextureUsageTextureBinding
	if got := a.textureUsage["atlas"]; got != wantUsage {
		t.Errorf("usage(atlas) = %v, want %v", got, wantUsage)
	}
}

func TestForwardRedirectsReaders(t *testing.T) {
	fg := New(newRecordingAllocator())

	src := AddPass(fg, "src", func(b *Builder, d *texData) {
		d.tex = b.WriteTexture(b.CreateTexture("target", smallTexture), TextureUsageRenderAttachment)
	}, nil)
	other := AddPass(fg, "other", func(b *Builder, d *texData) {
		d.tex = b.WriteTexture(b.CreateTexture("other", smallTexture), TextureUsageRenderAttachment)
	}, nil)
	fg.PresentTexture(src.Data().tex)

	replaced := src.Data().tex
	fg.ForwardTexture(other.Data().tex, &replaced)
	fg.Compile()

	// The present pass now depends on the forwarded version, which is
	// produced by src, so other is no longer needed.
	if fg.IsCulled(src.ID()) {
		t.Error("src writes the forwarded version and must survive")
	}
	if !fg.IsCulled(other.ID()) {
		t.Error("other's output was replaced and nobody reads it")
	}
}

func TestForwardStaleHandles(t *testing.T) {
	fg := New(newRecordingAllocator())

	type twoData struct{ a, b, staleA TextureID }
	p := AddPass(fg, "p", func(b *Builder, d *twoData) {
		d.a = b.CreateTexture("a", smallTexture)
		d.staleA = d.a
		d.a = b.WriteTexture(d.a, TextureUsageRenderAttachment)
		d.b = b.CreateTexture("b", smallTexture)
	}, nil)
	d := p.Data()

	replaced := d.b
	if got := fg.ForwardTexture(d.staleA, &replaced); got.IsValid() {
		t.Errorf("ForwardTexture(stale sub) = %v, want invalid", got)
	}
	if replaced != d.b {
		t.Error("a failed forward must not touch *replaced")
	}

	self := d.a
	if got := fg.ForwardTexture(d.a, &self); got.IsValid() {
		t.Errorf("ForwardTexture onto itself = %v, want invalid", got)
	}
	if !fg.IsValid(d.a.Handle) {
		t.Error("a failed forward must not invalidate the source")
	}
}

func TestForwardBuffer(t *testing.T) {
	a := newRecordingAllocator()
	fg := New(a)

	type bufData struct{ pool, slice, scratch BufferID }
	p := AddPass(fg, "pool", func(b *Builder, d *bufData) {
		d.pool = b.CreateBuffer("pool", BufferDescriptor{Size: 1024})
		d.slice = b.CreateBufferSubresource(&d.pool, "slice", BufferSubResourceDescriptor{Offset: 512})
	}, nil)
	w := AddPass(fg, "writer", func(b *Builder, d *bufData) {
		d.scratch = b.WriteBuffer(b.CreateBuffer("scratch", BufferDescriptor{Size: 256}), BufferUsageStorage)
	}, nil)

	scratch := w.Data().scratch
	slice := fg.ForwardBuffer(p.Data().slice, &scratch)
	fg.PresentBuffer(slice)

	if err := fg.Compile().Execute(nil); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if a.count("acquire:scratch") != 0 {
		t.Error("forwarded buffer must not be acquired")
	}
	if a.count("acquire:pool") != 1 {
		t.Errorf("events = %v, want pool acquired once", a.events)
	}
	if got := a.bufferUsage["pool"]; got != BufferUsageStorage {
		t.Errorf("usage(pool) = %v, want %v", got, BufferUsageStorage)
	}
}
