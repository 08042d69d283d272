package framegraph

import "fmt"

// Resources gives a pass access to the concrete objects of the resources
// it declared. It is only valid during the execute callback it was passed
// to.
//
// Every accessor panics with ErrUndeclaredResource for a resource the pass
// did not declare during setup. Any version of a declared resource may be
// used, including handles that were forwarded.
type Resources struct {
	fg   *FrameGraph
	pass int32
}

// PassName returns the name of the running pass.
func (r *Resources) PassName() string {
	return r.fg.arena.passes[r.pass].name
}

// Texture returns the concrete texture behind id. For subresources this is
// the object of the root texture; use TextureSubResource to find the level
// and layer.
func (r *Resources) Texture(id TextureID) any {
	return r.fg.concrete(r.get(id.Handle))
}

// Buffer returns the concrete buffer behind id.
func (r *Resources) Buffer(id BufferID) any {
	return r.fg.concrete(r.get(id.Handle))
}

// TextureDescriptor returns the descriptor of id.
func (r *Resources) TextureDescriptor(id TextureID) TextureDescriptor {
	return asKind(textureOps, r.fg.arena.resources[r.get(id.Handle)]).descriptor
}

// TextureSubResource returns the level and layer selected by id, and false
// if id is not a subresource.
func (r *Resources) TextureSubResource(id TextureID) (TextureSubResourceDescriptor, bool) {
	t := asKind(textureOps, r.fg.arena.resources[r.get(id.Handle)])
	return t.subDescriptor, t.parent >= 0
}

// TextureUsage returns the union of the usages of id across surviving passes.
func (r *Resources) TextureUsage(id TextureID) TextureUsage {
	return asKind(textureOps, r.fg.arena.resources[r.get(id.Handle)]).usage
}

// BufferDescriptor returns the descriptor of id.
func (r *Resources) BufferDescriptor(id BufferID) BufferDescriptor {
	return asKind(bufferOps, r.fg.arena.resources[r.get(id.Handle)]).descriptor
}

// BufferSubResource returns the range selected by id, and false if id is
// not a subresource.
func (r *Resources) BufferSubResource(id BufferID) (BufferSubResourceDescriptor, bool) {
	b := asKind(bufferOps, r.fg.arena.resources[r.get(id.Handle)])
	return b.subDescriptor, b.parent >= 0
}

// BufferUsage returns the union of the usages of id across surviving passes.
func (r *Resources) BufferUsage(id BufferID) BufferUsage {
	return asKind(bufferOps, r.fg.arena.resources[r.get(id.Handle)]).usage
}

// RenderTarget returns the resolved render target declared by the running
// pass under id.
func (r *Resources) RenderTarget(id uint32) RenderTargetInfo {
	p := &r.fg.arena.passes[r.pass]
	if int(id) >= len(p.renderTargets) {
		panic(fmt.Errorf("framegraph: pass %q has no render target %d", p.name, id))
	}
	return p.renderTargets[id].info
}

func (r *Resources) get(h Handle) int32 {
	fg := r.fg
	if !h.IsValid() || h.Index() >= len(fg.arena.slots) {
		panic(fmt.Errorf("%w: %v in pass %q", ErrInvalidHandle, h, r.PassName()))
	}
	rid := fg.resolve(fg.arena.slots[h.Index()].rid)
	if !fg.passDeclares(r.pass, rid) {
		panic(fmt.Errorf("%w: %q in pass %q",
			ErrUndeclaredResource, fg.arena.resources[rid].base().name, r.PassName()))
	}
	return rid
}
