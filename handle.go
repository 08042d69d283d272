package framegraph

import "fmt"

// Handle identifies a logical resource at one point of its mutation history.
//
// The zero Handle is invalid. Two handles with the same index but different
// versions refer to the same storage at different times; only the handle
// carrying the live version may be passed to Read, Write or the descriptor
// accessors.
type Handle struct {
	id      uint32 // slot index + 1; 0 means invalid
	version uint32
}

func makeHandle(index int, version uint32) Handle {
	//nolint:gosec // G115: slot count is bounded by per-frame declarations
	return Handle{id: uint32(index) + 1, version: version}
}

// IsValid reports whether the handle refers to a slot at all.
// It does not check whether the version is still live; use
// FrameGraph.IsValid for that.
func (h Handle) IsValid() bool {
	return h.id != 0
}

// Index returns the slot index of the handle, or -1 for an invalid handle.
func (h Handle) Index() int {
	return int(h.id) - 1
}

// Version returns the version the handle was issued for.
func (h Handle) Version() uint32 {
	return h.version
}

// String returns a human-readable representation such as "#3@v2".
func (h Handle) String() string {
	if !h.IsValid() {
		return "#invalid"
	}
	return fmt.Sprintf("#%d@v%d", h.Index(), h.version)
}

// TextureID is a handle to a texture resource.
type TextureID struct{ Handle }

// BufferID is a handle to a buffer resource.
type BufferID struct{ Handle }

// resourceSlot maps a handle index to the owning resource and to the node
// of its live version.
type resourceSlot struct {
	rid     int32
	nid     int32
	version uint32
	retired bool // forwarded away; no handle to this slot is ever valid again
}
