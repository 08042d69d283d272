package framegraph

import "github.com/gogpu/gputypes"

// MaxColorAttachments is the number of color attachments of a render target.
const MaxColorAttachments = 4

const attachmentCount = MaxColorAttachments + 2 // colors, depth, stencil

// TargetBufferFlags selects attachments of a render target.
type TargetBufferFlags uint8

// Attachment bits.
const (
	TargetColor0 TargetBufferFlags = 1 << iota
	TargetColor1
	TargetColor2
	TargetColor3
	TargetDepth
	TargetStencil

	TargetNone       TargetBufferFlags = 0
	TargetColor                        = TargetColor0 | TargetColor1 | TargetColor2 | TargetColor3
	TargetDepthStencil                 = TargetDepth | TargetStencil
	TargetAll                          = TargetColor | TargetDepthStencil
)

// Has reports whether all bits of f are set in t.
func (t TargetBufferFlags) Has(f TargetBufferFlags) bool {
	return t&f == f
}

func attachmentFlag(i int) TargetBufferFlags {
	return TargetBufferFlags(1) << uint(i)
}

// Attachments lists the textures bound to a render target. Unused entries
// hold the zero TextureID.
type Attachments struct {
	Color   [MaxColorAttachments]TextureID
	Depth   TextureID
	Stencil TextureID
}

func (a *Attachments) at(i int) TextureID {
	switch {
	case i < MaxColorAttachments:
		return a.Color[i]
	case i == MaxColorAttachments:
		return a.Depth
	default:
		return a.Stencil
	}
}

func (a *Attachments) set(i int, id TextureID) {
	switch {
	case i < MaxColorAttachments:
		a.Color[i] = id
	case i == MaxColorAttachments:
		a.Depth = id
	default:
		a.Stencil = id
	}
}

// Viewport is a rectangle in pixels. A zero Viewport covers the whole target.
type Viewport struct {
	X, Y          int32
	Width, Height uint32
}

// RenderTargetDescriptor declares the attachments of a render pass and how
// they are initialized.
type RenderTargetDescriptor struct {
	Attachments Attachments
	Viewport    Viewport
	ClearColor  gputypes.Color
	ClearFlags  TargetBufferFlags
	Samples     uint8
}

// RenderTarget is returned by Builder.UseAsRenderTarget. Attachments hold
// the new versions of the attachment handles; ID identifies the render target
// within its pass at execute time.
type RenderTarget struct {
	Attachments Attachments
	ID          uint32
}

// RenderTargetInfo is the resolved description of a render target handed
// to the pass at execute time.
type RenderTargetInfo struct {
	// Attachments is the set of attachments bound to the target.
	Attachments TargetBufferFlags

	// Clear is the set of attachments cleared at the start of the pass.
	Clear TargetBufferFlags

	// DiscardStart is the set of attachments whose previous content is not
	// needed: nothing earlier in the frame wrote it.
	DiscardStart TargetBufferFlags

	// DiscardEnd is the set of attachments whose content is not needed
	// after the pass: no surviving pass reads it.
	DiscardEnd TargetBufferFlags

	ClearColor gputypes.Color
	Viewport   Viewport
	Samples    uint8

	// Target is the concrete render target: the imported one, or the one
	// created by a RenderTargetAllocator. It is nil when the allocator
	// creates none, for example allocator.Cache in front of a backend
	// without render-target support. Passes then bind the attachment
	// textures themselves.
	Target any
}

// LoadOp returns the load operation for the attachment selected by f.
func (info *RenderTargetInfo) LoadOp(f TargetBufferFlags) gputypes.LoadOp {
	if info.Clear&f != 0 {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

// StoreOp returns the store operation for the attachment selected by f.
func (info *RenderTargetInfo) StoreOp(f TargetBufferFlags) gputypes.StoreOp {
	if info.DiscardEnd&f != 0 {
		return gputypes.StoreOpDiscard
	}
	return gputypes.StoreOpStore
}

// renderTargetData is the per-pass record of one UseAsRenderTarget call.
type renderTargetData struct {
	name       string
	descriptor RenderTargetDescriptor
	incoming   [attachmentCount]int32 // node written over, -1 if unused
	outgoing   [attachmentCount]int32 // node produced, -1 if unused
	imported   any
	info       RenderTargetInfo
}

func newRenderTargetData(name string, desc RenderTargetDescriptor) renderTargetData {
	rt := renderTargetData{name: name, descriptor: desc}
	for i := range attachmentCount {
		rt.incoming[i] = -1
		rt.outgoing[i] = -1
	}
	return rt
}
