// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package allocator

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/framegraph"
)

// MaxSoftwareBytes is the largest texture or buffer Software will create.
const MaxSoftwareBytes = 1 << 30

// SoftwareBuffer is the concrete buffer handed out by Software.
type SoftwareBuffer struct {
	Name  string
	Usage framegraph.BufferUsage
	Data  []byte
}

// Software is a ResourceAllocator backed by CPU memory.
//
// Color textures are *image.RGBA and depth/stencil textures *image.Gray16.
// Array layers, cube faces and volume slices are stacked vertically, so
// layer i occupies rows [i*Height, (i+1)*Height). Only the first mip level
// is backed. Buffers are *SoftwareBuffer.
//
// Software is safe for concurrent use.
type Software struct {
	mu       sync.Mutex
	textures int
	buffers  int
	created  int
}

var _ framegraph.ResourceAllocator = (*Software)(nil)

// NewSoftware creates a software allocator.
func NewSoftware() *Software {
	return &Software{}
}

// AcquireTexture creates an image large enough for every layer of desc.
func (s *Software) AcquireTexture(name string, desc framegraph.TextureDescriptor, usage framegraph.TextureUsage) (any, error) {
	w, h := int(desc.Width), int(desc.Height)*int(max(desc.Depth, 1))
	bpp := 4
	if desc.Format.IsDepthStencil() {
		bpp = 2
	}
	if uint64(w)*uint64(h)*uint64(bpp) > MaxSoftwareBytes { //nolint:gosec // G115: dimensions are non-negative
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrTooLarge, name, w, h)
	}

	var img image.Image
	if bpp == 2 {
		img = image.NewGray16(image.Rect(0, 0, w, h))
	} else {
		img = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	s.mu.Lock()
	s.textures++
	s.created++
	s.mu.Unlock()

	slogger().Debug("allocator: software texture",
		"name", name, "width", w, "height", h, "format", desc.Format, "usage", usage)
	return img, nil
}

// AcquireBuffer creates a zeroed byte buffer of desc.Size bytes.
func (s *Software) AcquireBuffer(name string, desc framegraph.BufferDescriptor, usage framegraph.BufferUsage) (any, error) {
	if desc.Size > MaxSoftwareBytes {
		return nil, fmt.Errorf("%w: buffer %q is %d bytes", ErrTooLarge, name, desc.Size)
	}

	s.mu.Lock()
	s.buffers++
	s.created++
	s.mu.Unlock()

	slogger().Debug("allocator: software buffer", "name", name, "size", desc.Size, "usage", usage)
	return &SoftwareBuffer{Name: name, Usage: usage, Data: make([]byte, desc.Size)}, nil
}

// Release drops an object created by this allocator. The memory is
// reclaimed by the garbage collector.
func (s *Software) Release(obj any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch obj.(type) {
	case *image.RGBA, *image.Gray16:
		s.textures--
	case *SoftwareBuffer:
		s.buffers--
	}
}

// Live returns the number of textures and buffers acquired and not yet
// released.
func (s *Software) Live() (textures, buffers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textures, s.buffers
}

// Created returns the total number of objects created.
func (s *Software) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

// SoftwareLayer returns the rows of a Software texture that back one layer,
// or nil if tex did not come from Software. height is the layer height
// from the texture descriptor.
func SoftwareLayer(tex any, height uint32, layer uint16) image.Image {
	y0 := int(height) * int(layer)
	r := image.Rect(0, y0, 0, y0+int(height))
	switch img := tex.(type) {
	case *image.RGBA:
		r.Max.X = img.Rect.Dx()
		return img.SubImage(r)
	case *image.Gray16:
		r.Max.X = img.Rect.Dx()
		return img.SubImage(r)
	default:
		return nil
	}
}
