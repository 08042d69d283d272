package framegraph

import "fmt"

// Builder declares the resources a pass creates and accesses. It is handed
// to the setup callback of AddPass and must not be kept: every method
// panics with ErrBuilderDone once setup has returned.
//
// Read and Write return invalid handles, and log a warning, when given a
// stale handle. Callers that cannot rule this out check the result with
// Handle.IsValid.
type Builder struct {
	fg   *FrameGraph
	pass int32
	done bool
}

func (b *Builder) check() {
	if b.done {
		panic(fmt.Errorf("%w: pass %q", ErrBuilderDone, b.fg.passName(b.pass)))
	}
}

// Name returns the name of the pass being set up.
func (b *Builder) Name() string {
	return b.fg.passName(b.pass)
}

// SideEffect keeps the pass even if nothing reads what it writes, for
// example because it reads back data to the CPU.
func (b *Builder) SideEffect() {
	b.check()
	p := &b.fg.arena.passes[b.pass]
	p.sideEffect = true
	b.fg.graph.MakeTarget(p.gid)
	b.fg.invalidate()
}

// SetPriority sets the allocation priority of the resource behind a live
// handle. Among resources first needed by the same pass, higher priorities
// are acquired first.
func (b *Builder) SetPriority(h Handle, priority uint8) {
	b.check()
	if !b.fg.IsValid(h) {
		panic(fmt.Errorf("%w: %v", ErrStaleHandle, h))
	}
	b.fg.arena.resources[b.fg.arena.slots[h.Index()].rid].base().priority = priority
}

// CreateTexture declares a new transient texture. No GPU object exists
// until Execute reaches the first pass that uses it.
func (b *Builder) CreateTexture(name string, desc TextureDescriptor) TextureID {
	b.check()
	return TextureID{b.fg.addResource(newResource(textureOps, name, desc.normalized()), b.pass)}
}

// CreateBuffer declares a new transient buffer.
func (b *Builder) CreateBuffer(name string, desc BufferDescriptor) BufferID {
	b.check()
	return BufferID{b.fg.addResource(newResource(bufferOps, name, desc), b.pass)}
}

// CreateTextureSubresource declares a view of one level and layer of
// *parent. The view shares the storage of its root texture; writing it
// writes the parent, which gets a new version. *parent is set to the
// parent's live handle; after writing the subresource, obtain the newer
// parent handle with TextureParent.
func (b *Builder) CreateTextureSubresource(parent *TextureID, name string, sub TextureSubResourceDescriptor) TextureID {
	return TextureID{createSubresource(b, textureOps, &parent.Handle, name, sub)}
}

// CreateBufferSubresource declares a view of a byte range of *parent.
func (b *Builder) CreateBufferSubresource(parent *BufferID, name string, sub BufferSubResourceDescriptor) BufferID {
	return BufferID{createSubresource(b, bufferOps, &parent.Handle, name, sub)}
}

func createSubresource[D, S any, U usageFlags](b *Builder, ops *kindOps[D, S, U], parent *Handle, name string, sub S) Handle {
	b.check()
	fg := b.fg
	r := fg.lookup(*parent, b.pass, "create subresource")
	if r == nil {
		return Handle{}
	}
	pr := asKind(ops, r)
	parentNode := fg.arena.slots[parent.Index()].nid

	h := fg.addResource(newSubresource(pr, name, sub), b.pass)
	fg.graph.Link(fg.arena.nodes[parentNode].gid, fg.arena.nodes[fg.arena.slots[h.Index()].nid].gid)
	*parent = makeHandle(parent.Index(), fg.arena.slots[parent.Index()].version)
	return h
}

// TextureParent returns the live handle of the parent of a live
// subresource handle, or an invalid handle if sub is not a subresource.
func (b *Builder) TextureParent(sub TextureID) TextureID {
	b.check()
	return TextureID{parentOf(b.fg, textureOps, sub.Handle)}
}

// BufferParent returns the live handle of the parent of a live subresource
// handle, or an invalid handle if sub is not a subresource.
func (b *Builder) BufferParent(sub BufferID) BufferID {
	b.check()
	return BufferID{parentOf(b.fg, bufferOps, sub.Handle)}
}

func parentOf[D, S any, U usageFlags](fg *FrameGraph, ops *kindOps[D, S, U], h Handle) Handle {
	r := liveResource(fg, ops, h)
	if r.parent < 0 {
		return Handle{}
	}
	pb := fg.arena.resources[fg.resolve(r.parent)].base()
	s := fg.arena.slots[pb.slot]
	if s.retired {
		return Handle{}
	}
	return makeHandle(int(pb.slot), s.version)
}

// ReadTexture declares that the pass reads the live version of id with
// the given usage. The returned handle is id itself, or an invalid handle
// if id is stale.
func (b *Builder) ReadTexture(id TextureID, usage TextureUsage) TextureID {
	return TextureID{read(b, textureOps, id.Handle, usage)}
}

// ReadBuffer declares that the pass reads the live version of id.
func (b *Builder) ReadBuffer(id BufferID, usage BufferUsage) BufferID {
	return BufferID{read(b, bufferOps, id.Handle, usage)}
}

// WriteTexture declares that the pass writes id with the given usage and
// returns the handle of the new version. id is stale afterwards.
func (b *Builder) WriteTexture(id TextureID, usage TextureUsage) TextureID {
	return TextureID{write(b, textureOps, id.Handle, usage)}
}

// WriteBuffer declares that the pass writes id and returns the handle of
// the new version. id is stale afterwards.
func (b *Builder) WriteBuffer(id BufferID, usage BufferUsage) BufferID {
	return BufferID{write(b, bufferOps, id.Handle, usage)}
}

func read[D, S any, U usageFlags](b *Builder, ops *kindOps[D, S, U], h Handle, usage U) Handle {
	b.check()
	if r := b.fg.peek(h); r != nil {
		asKind(ops, r)
	}
	out, r := b.fg.readInternal(h, b.pass, "read")
	if r != nil {
		asKind(ops, r).addUse(b.pass, usage)
	}
	return out
}

func write[D, S any, U usageFlags](b *Builder, ops *kindOps[D, S, U], h Handle, usage U) Handle {
	b.check()
	if r := b.fg.peek(h); r != nil {
		asKind(ops, r)
	}
	out, r := b.fg.writeInternal(h, b.pass, "write")
	if r != nil {
		asKind(ops, r).addUse(b.pass, usage)
	}
	return out
}

// TextureDescriptor returns the descriptor of a live texture handle. It
// panics if the handle is stale or not a texture.
func (b *Builder) TextureDescriptor(id TextureID) TextureDescriptor {
	b.check()
	return descriptorOf(b.fg, textureOps, id.Handle)
}

// BufferDescriptor returns the descriptor of a live buffer handle. It
// panics if the handle is stale or not a buffer.
func (b *Builder) BufferDescriptor(id BufferID) BufferDescriptor {
	b.check()
	return descriptorOf(b.fg, bufferOps, id.Handle)
}

// UseAsRenderTarget declares a render target made of the attachments of
// desc. Every attachment is written with TextureUsageRenderAttachment; the
// new versions are returned together with the ID under which the pass
// finds the resolved target at execute time. Stale attachments are
// dropped from the target and returned as invalid handles.
//
// Reading an attachment's previous content requires a separate Read
// before this call.
func (b *Builder) UseAsRenderTarget(desc RenderTargetDescriptor) RenderTarget {
	b.check()
	fg := b.fg
	rt := newRenderTargetData(fg.passName(b.pass), desc)
	for i := range attachmentCount {
		id := desc.Attachments.at(i)
		if !id.IsValid() {
			continue
		}
		r := fg.lookup(id.Handle, b.pass, "use as render target")
		if r == nil {
			rt.descriptor.Attachments.set(i, TextureID{})
			continue
		}
		asKind(textureOps, r)
		if t := fg.arena.resources[fg.resolve(r.base().id)].base().importedTarget; t != nil {
			rt.imported = t
		}
		rt.incoming[i] = fg.arena.slots[id.Index()].nid
		out := b.WriteTexture(id, TextureUsageRenderAttachment)
		rt.descriptor.Attachments.set(i, out)
		rt.outgoing[i] = fg.arena.slots[id.Index()].nid
	}

	p := &fg.arena.passes[b.pass]
	//nolint:gosec // G115: render targets per pass are bounded by declarations
	id := uint32(len(p.renderTargets))
	p.renderTargets = append(p.renderTargets, rt)
	return RenderTarget{Attachments: rt.descriptor.Attachments, ID: id}
}

// UseAsColorTarget declares a render target with the single color
// attachment *color, replaces *color with its new version and returns the
// render target ID.
func (b *Builder) UseAsColorTarget(color *TextureID) uint32 {
	rt := b.UseAsRenderTarget(RenderTargetDescriptor{
		Attachments: Attachments{Color: [MaxColorAttachments]TextureID{*color}},
	})
	*color = rt.Attachments.Color[0]
	return rt.ID
}

// UseAsColorDepthTarget declares a render target with a color and a depth
// attachment, replaces both handles with their new versions and returns
// the render target ID.
func (b *Builder) UseAsColorDepthTarget(color, depth *TextureID) uint32 {
	rt := b.UseAsRenderTarget(RenderTargetDescriptor{
		Attachments: Attachments{
			Color: [MaxColorAttachments]TextureID{*color},
			Depth: *depth,
		},
	})
	*color = rt.Attachments.Color[0]
	*depth = rt.Attachments.Depth
	return rt.ID
}
