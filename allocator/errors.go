// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package allocator

import "errors"

var (
	// ErrNoHALDevice is returned by NewHALFromProvider when the provider
	// does not expose a wgpu HAL device.
	ErrNoHALDevice = errors.New("allocator: provider has no HAL device")

	// ErrTooLarge is returned by Software when a texture or buffer exceeds
	// MaxSoftwareBytes.
	ErrTooLarge = errors.New("allocator: resource too large")
)
