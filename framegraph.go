package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/internal/depgraph"
)

// FrameGraph schedules the passes of one frame.
//
// A frame is declared with AddPass, Present and the Import family, then
// compiled and executed once. Reset clears the declarations and keeps the
// storage for the next frame. A FrameGraph is not safe for concurrent use;
// separate FrameGraphs may run on separate goroutines.
type FrameGraph struct {
	allocator ResourceAllocator
	opts      options
	graph     *depgraph.Graph
	arena     arena

	order    []int32 // surviving passes in execution order
	compiled bool
	executed bool
}

// New creates an empty frame graph that realizes resources with allocator.
// It panics if allocator is nil.
func New(allocator ResourceAllocator, opts ...Option) *FrameGraph {
	if allocator == nil {
		panic("framegraph: New called with nil allocator")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FrameGraph{
		allocator: allocator,
		opts:      o,
		graph:     depgraph.New(),
		arena:     newArena(o.arenaBudget),
	}
}

// Reset drops every pass, resource and handle of the current frame.
// Concrete resources still held, for example after a failed Execute, are
// released first. Handles issued before Reset must not be used afterwards.
func (fg *FrameGraph) Reset() {
	fg.releaseAll()
	fg.graph.Clear()
	fg.arena.reset()
	fg.order = fg.order[:0]
	fg.compiled = false
	fg.executed = false
}

// IsValid reports whether h refers to the live version of a resource of
// the current frame.
func (fg *FrameGraph) IsValid(h Handle) bool {
	i := h.Index()
	if i < 0 || i >= len(fg.arena.slots) {
		return false
	}
	s := &fg.arena.slots[i]
	return !s.retired && s.version == h.version
}

// PassCount returns the number of declared passes, including present passes.
func (fg *FrameGraph) PassCount() int { return len(fg.arena.passes) }

// ResourceCount returns the number of declared logical resources.
func (fg *FrameGraph) ResourceCount() int { return len(fg.arena.resources) }

// IsCulled reports whether the pass with the given ID was removed by the
// last Compile.
func (fg *FrameGraph) IsCulled(passID int) bool {
	if passID < 0 || passID >= len(fg.arena.passes) {
		return false
	}
	return fg.graph.IsCulled(fg.arena.passes[passID].gid)
}

// ExecutionOrder returns the names of the passes that survived the last
// Compile, in the order Execute runs them.
func (fg *FrameGraph) ExecutionOrder() []string {
	names := make([]string, len(fg.order))
	for i, pid := range fg.order {
		names[i] = fg.arena.passes[pid].name
	}
	return names
}

// TextureDescriptor returns the descriptor of a live texture handle.
// It panics if the handle is stale or not a texture.
func (fg *FrameGraph) TextureDescriptor(id TextureID) TextureDescriptor {
	return descriptorOf(fg, textureOps, id.Handle)
}

// BufferDescriptor returns the descriptor of a live buffer handle.
// It panics if the handle is stale or not a buffer.
func (fg *FrameGraph) BufferDescriptor(id BufferID) BufferDescriptor {
	return descriptorOf(fg, bufferOps, id.Handle)
}

// ImportTexture adds a texture owned by the caller. obj is handed to passes
// as is; the allocator never sees it. usage is the usage the texture was
// created with.
func (fg *FrameGraph) ImportTexture(name string, desc TextureDescriptor, usage TextureUsage, obj any) TextureID {
	r := newResource(textureOps, name, desc.normalized())
	r.imported = true
	r.concrete = obj
	r.addUse(-1, usage)
	return TextureID{fg.addResource(r, -1)}
}

// ImportRenderTarget adds a render target owned by the caller, such as a
// swapchain image, as a texture. Render targets declared on it at execute
// time carry target instead of an allocator-created one.
func (fg *FrameGraph) ImportRenderTarget(name string, desc TextureDescriptor, target any) TextureID {
	r := newResource(textureOps, name, desc.normalized())
	r.imported = true
	r.concrete = target
	r.importedTarget = target
	r.addUse(-1, TextureUsageRenderAttachment)
	return TextureID{fg.addResource(r, -1)}
}

// ImportBuffer adds a buffer owned by the caller.
func (fg *FrameGraph) ImportBuffer(name string, desc BufferDescriptor, usage BufferUsage, obj any) BufferID {
	r := newResource(bufferOps, name, desc)
	r.imported = true
	r.concrete = obj
	r.addUse(-1, usage)
	return BufferID{fg.addResource(r, -1)}
}

// PresentTexture adds a pass that reads id and is never culled. Everything
// that contributes to id is kept.
func (fg *FrameGraph) PresentTexture(id TextureID) {
	fg.present(id.Handle)
}

// PresentBuffer adds a pass that reads id and is never culled.
func (fg *FrameGraph) PresentBuffer(id BufferID) {
	fg.present(id.Handle)
}

func (fg *FrameGraph) present(h Handle) {
	pid := fg.addPass(fg.opts.presentName, nil)
	p := &fg.arena.passes[pid]
	p.present = true
	fg.graph.MakeTarget(p.gid)
	fg.readInternal(h, pid, "present")
}

// ForwardTexture makes sub take the place of *replaced: every pass that
// accessed *replaced, in any version, accesses the storage of sub instead,
// and readers of the live version of *replaced now read the returned new
// version of sub. *replaced is set to the zero handle and its slot is never
// valid again. An invalid handle is returned, and nothing changes, if
// either handle is stale.
func (fg *FrameGraph) ForwardTexture(sub TextureID, replaced *TextureID) TextureID {
	return TextureID{forward(fg, textureOps, sub.Handle, &replaced.Handle)}
}

// ForwardBuffer is ForwardTexture for buffers.
func (fg *FrameGraph) ForwardBuffer(sub BufferID, replaced *BufferID) BufferID {
	return BufferID{forward(fg, bufferOps, sub.Handle, &replaced.Handle)}
}

func forward[D, S any, U usageFlags](fg *FrameGraph, ops *kindOps[D, S, U], sub Handle, replaced *Handle) Handle {
	to := fg.lookup(sub, -1, "forward")
	from := fg.lookup(*replaced, -1, "forward")
	if to == nil || from == nil {
		return Handle{}
	}
	asKind(ops, to)
	asKind(ops, from)
	if sub.Index() == replaced.Index() || to == from {
		Logger().Warn("framegraph: forward onto itself", "handle", sub.String())
		return Handle{}
	}

	oldNode := fg.arena.slots[replaced.Index()].nid
	nid := fg.newVersion(sub.Index())
	fg.graph.Redirect(fg.arena.nodes[oldNode].gid, fg.arena.nodes[nid].gid)

	old := &fg.arena.nodes[oldNode]
	n := &fg.arena.nodes[nid]
	n.writer, n.producer = old.writer, old.producer
	n.readers = append(n.readers, old.readers...)
	old.writer, old.producer, old.readers = -1, -1, nil
	writer := n.writer
	version := n.version
	for i := range fg.arena.passes {
		rts := fg.arena.passes[i].renderTargets
		for j := range rts {
			for k := range attachmentCount {
				if rts[j].incoming[k] == oldNode {
					rts[j].incoming[k] = nid
				}
				if rts[j].outgoing[k] == oldNode {
					rts[j].outgoing[k] = nid
				}
			}
		}
	}

	fromID, toID := from.base().id, to.base().id
	to.absorb(from)
	from.base().forwardedTo = toID
	for i := range fg.arena.nodes {
		if fg.arena.nodes[i].rid == fromID {
			fg.arena.nodes[i].rid = toID
		}
	}
	for i := range fg.arena.slots {
		if fg.arena.slots[i].rid == fromID {
			fg.arena.slots[i].rid = toID
		}
	}
	fg.arena.slots[replaced.Index()].retired = true
	*replaced = Handle{}

	fg.propagateWrite(nid, writer)
	fg.invalidate()
	return makeHandle(sub.Index(), version)
}

func (fg *FrameGraph) invalidate() {
	fg.compiled = false
}

func (fg *FrameGraph) passName(pass int32) string {
	if pass < 0 || int(pass) >= len(fg.arena.passes) {
		return ""
	}
	return fg.arena.passes[pass].name
}

func (fg *FrameGraph) addPass(name string, exec passExecutor) int32 {
	gid := fg.graph.AddNode()
	//nolint:gosec // G115: pass count is bounded by per-frame declarations
	id := int32(len(fg.arena.passes))
	fg.arena.passes = append(fg.arena.passes, passNode{gid: gid, id: id, name: name, exec: exec})
	fg.arena.owners = append(fg.arena.owners, nodeOwner{pass: true, index: id})
	fg.arena.charge(passNodeSize, "pass", name)
	fg.invalidate()
	return id
}

func (fg *FrameGraph) addNode(rid int32, version uint32) int32 {
	gid := fg.graph.AddNode()
	//nolint:gosec // G115: node count is bounded by per-frame declarations
	nid := int32(len(fg.arena.nodes))
	fg.arena.nodes = append(fg.arena.nodes, resourceNode{
		gid:      gid,
		rid:      rid,
		version:  version,
		producer: -1,
		writer:   -1,
	})
	fg.arena.owners = append(fg.arena.owners, nodeOwner{index: nid})
	fg.arena.charge(resourceNodeSize, "resource node", fg.arena.resources[rid].base().name)
	fg.invalidate()
	return nid
}

// addResource registers r with a fresh slot at version 0. When pass is
// not negative the pass is recorded as the producer of version 0.
func (fg *FrameGraph) addResource(r virtualResource, pass int32) Handle {
	b := r.base()
	//nolint:gosec // G115: resource count is bounded by per-frame declarations
	b.id = int32(len(fg.arena.resources))
	//nolint:gosec // G115: slot count is bounded by per-frame declarations
	b.slot = int32(len(fg.arena.slots))
	fg.arena.resources = append(fg.arena.resources, r)
	fg.arena.charge(r.footprint()+slotSize, r.kind().String(), b.name)

	nid := fg.addNode(b.id, 0)
	fg.arena.slots = append(fg.arena.slots, resourceSlot{rid: b.id, nid: nid})
	if pass >= 0 {
		n := &fg.arena.nodes[nid]
		n.producer = pass
		fg.graph.Link(fg.arena.passes[pass].gid, n.gid)
		fg.declare(pass, b.id)
	}
	return makeHandle(int(b.slot), 0)
}

// newVersion appends the next version of the resource behind slot index i
// and makes it live.
func (fg *FrameGraph) newVersion(i int) int32 {
	s := fg.arena.slots[i]
	version := fg.arena.nodes[s.nid].version + 1
	nid := fg.addNode(s.rid, version)
	fg.arena.slots[i].nid = nid
	fg.arena.slots[i].version = version
	return nid
}

// lookup returns the resource behind h if h is live. Stale or invalid
// handles are logged and yield nil; an index outside the slot table is a
// programmer error and panics.
func (fg *FrameGraph) lookup(h Handle, pass int32, op string) virtualResource {
	if h.IsValid() && h.Index() >= len(fg.arena.slots) {
		panic(fmt.Errorf("%w: %v out of range (%d slots)", ErrInvalidHandle, h, len(fg.arena.slots)))
	}
	if !fg.IsValid(h) {
		Logger().Warn("framegraph: stale handle",
			"op", op, "handle", h.String(), "pass", fg.passName(pass))
		return nil
	}
	return fg.arena.resources[fg.arena.slots[h.Index()].rid]
}

// peek returns the resource behind h if h is live, and nil otherwise.
func (fg *FrameGraph) peek(h Handle) virtualResource {
	if !fg.IsValid(h) {
		return nil
	}
	return fg.arena.resources[fg.arena.slots[h.Index()].rid]
}

// resolve follows forwarding from rid to the resource that now provides
// its storage.
func (fg *FrameGraph) resolve(rid int32) int32 {
	for {
		next := fg.arena.resources[rid].base().forwardedTo
		if next < 0 {
			return rid
		}
		rid = next
	}
}

func (fg *FrameGraph) declare(pass, rid int32) {
	p := &fg.arena.passes[pass]
	if !p.declares(rid) {
		p.declared = append(p.declared, rid)
	}
}

func (fg *FrameGraph) passDeclares(pass, rid int32) bool {
	for _, d := range fg.arena.passes[pass].declared {
		if fg.resolve(d) == rid {
			return true
		}
	}
	return false
}

func (fg *FrameGraph) readInternal(h Handle, pass int32, op string) (Handle, virtualResource) {
	r := fg.lookup(h, pass, op)
	if r == nil {
		return Handle{}, nil
	}
	s := fg.arena.slots[h.Index()]
	n := &fg.arena.nodes[s.nid]
	// A pass reading what it produced itself has no dependency on it.
	if n.writer != pass && n.producer != pass && !n.readBy(pass) {
		n.readers = append(n.readers, pass)
		fg.graph.Link(n.gid, fg.arena.passes[pass].gid)
	}
	fg.declare(pass, s.rid)
	return h, r
}

func (fg *FrameGraph) writeInternal(h Handle, pass int32, op string) (Handle, virtualResource) {
	r := fg.lookup(h, pass, op)
	if r == nil {
		return Handle{}, nil
	}
	i := h.Index()
	nid := fg.newVersion(i)
	n := &fg.arena.nodes[nid]
	n.writer = pass
	version := n.version
	fg.graph.Link(fg.arena.passes[pass].gid, n.gid)
	fg.declare(pass, fg.arena.slots[i].rid)
	fg.propagateWrite(nid, pass)
	return makeHandle(i, version), r
}

// propagateWrite records that writing node nid of a subresource also
// writes every ancestor: each ancestor gets a new version that depends on
// the written child and on its own previous version, whose other
// subresources are left untouched.
func (fg *FrameGraph) propagateWrite(nid, pass int32) {
	rid := fg.arena.nodes[nid].rid
	for {
		parent := fg.arena.resources[rid].base().parent
		if parent < 0 {
			return
		}
		parent = fg.resolve(parent)
		ps := fg.arena.resources[parent].base().slot
		if fg.arena.slots[ps].retired {
			return
		}
		prev := fg.arena.slots[ps].nid
		pn := fg.newVersion(int(ps))
		fg.arena.nodes[pn].writer = pass
		fg.graph.Link(fg.arena.nodes[nid].gid, fg.arena.nodes[pn].gid)
		fg.graph.Link(fg.arena.nodes[prev].gid, fg.arena.nodes[pn].gid)
		nid, rid = pn, parent
	}
}

func descriptorOf[D, S any, U usageFlags](fg *FrameGraph, ops *kindOps[D, S, U], h Handle) D {
	return liveResource(fg, ops, h).descriptor
}

// liveResource returns the resource behind a live handle of the given
// kind, panicking otherwise.
func liveResource[D, S any, U usageFlags](fg *FrameGraph, ops *kindOps[D, S, U], h Handle) *resource[D, S, U] {
	if !h.IsValid() || h.Index() >= len(fg.arena.slots) {
		panic(fmt.Errorf("%w: %v", ErrInvalidHandle, h))
	}
	if !fg.IsValid(h) {
		panic(fmt.Errorf("%w: %v", ErrStaleHandle, h))
	}
	return asKind(ops, fg.arena.resources[fg.arena.slots[h.Index()].rid])
}
