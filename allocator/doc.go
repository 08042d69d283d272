// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package allocator provides concrete framegraph.ResourceAllocator
// implementations.
//
// # Backends
//
//   - [HAL] creates textures and buffers on a gogpu/wgpu HAL device. Use
//     [NewHALFromProvider] to take the device from a host application that
//     implements gpucontext.DeviceProvider.
//   - [Software] backs textures with image.RGBA (image.Gray16 for depth
//     formats) and buffers with byte slices. It needs no GPU and is used
//     by tests, tools and the fgdemo command.
//
// # Caching
//
// [Cache] wraps any allocator and keeps released objects in a free list
// keyed by kind, descriptor and usage. Identical requests in later frames
// reuse them instead of creating new ones. Call [Cache.Gc] once per frame,
// after Execute, to destroy objects that stayed unused for too long:
//
//	alloc := allocator.NewCache(allocator.NewHAL(device), allocator.CacheConfig{})
//	fg := framegraph.New(alloc)
//	for running {
//	    buildFrame(fg)
//	    if err := fg.Compile().Execute(encoder); err != nil {
//	        return err
//	    }
//	    fg.Reset()
//	    alloc.Gc()
//	}
//	alloc.Purge()
//
// # Logging
//
// The package logs through [SetLogger] and is silent by default.
package allocator
