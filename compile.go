package framegraph

import "fmt"

// Compile culls the frame, orders the surviving passes and computes the
// lifetime of every surviving resource. It is idempotent: calling it again
// without new declarations does nothing. It panics if the declarations form
// a cycle, which the declaration API cannot produce on its own.
//
// Compile returns fg so that it can be chained with Execute.
func (fg *FrameGraph) Compile() *FrameGraph {
	if fg.compiled {
		return fg
	}

	culled := fg.graph.Cull()
	ids, err := fg.graph.Order()
	if err != nil {
		panic(fmt.Errorf("framegraph: compile: %w", err))
	}

	a := &fg.arena
	fg.order = fg.order[:0]
	for _, gid := range ids {
		if o := a.owners[gid]; o.pass {
			fg.order = append(fg.order, o.index)
		}
	}

	for i := range a.passes {
		a.passes[i].devirtualize = a.passes[i].devirtualize[:0]
		a.passes[i].destroy = a.passes[i].destroy[:0]
	}

	alive := func(pass int32) bool { return !fg.graph.IsCulled(a.passes[pass].gid) }
	for _, r := range a.resources {
		b := r.base()
		b.refs, b.first, b.last = 0, -1, -1
		r.resolveUsage(alive)
	}
	// Children are always declared after their parent, so walking backwards
	// folds grandchildren into children before children into roots.
	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if p := r.base().parent; p >= 0 && r.base().forwardedTo < 0 {
			a.resources[fg.resolve(p)].inheritUsage(r)
		}
	}

	for _, pid := range fg.order {
		for _, rid := range a.passes[pid].declared {
			fg.neededByPass(fg.resolve(rid), pid)
		}
	}

	live := 0
	for rid, r := range a.resources {
		b := r.base()
		if b.refs == 0 || b.forwardedTo >= 0 {
			continue
		}
		live++
		if b.imported || b.parent >= 0 {
			continue
		}
		//nolint:gosec // G115: resource count is bounded by per-frame declarations
		id := int32(rid)
		a.passes[b.first].devirtualize = append(a.passes[b.first].devirtualize, id)
		a.passes[b.last].destroy = append(a.passes[b.last].destroy, id)
	}

	for _, pid := range fg.order {
		sortByPriority(a.passes[pid].devirtualize, a.resources)
		fg.resolveRenderTargets(pid)
	}

	fg.compiled = true
	Logger().Debug("framegraph: compiled",
		"passes", len(a.passes),
		"surviving", len(fg.order),
		"resources", len(a.resources),
		"live_resources", live,
		"culled_nodes", culled)
	return fg
}

// neededByPass extends the lifetime of rid and of every ancestor to cover
// pass. Passes are visited in execution order.
func (fg *FrameGraph) neededByPass(rid, pass int32) {
	for {
		b := fg.arena.resources[rid].base()
		b.refs++
		if b.first < 0 {
			b.first = pass
		}
		b.last = pass
		if b.parent < 0 {
			return
		}
		rid = fg.resolve(b.parent)
	}
}

// resolveRenderTargets computes which attachments of each render target of
// pass are cleared and which can be discarded at its start and end.
func (fg *FrameGraph) resolveRenderTargets(pid int32) {
	p := &fg.arena.passes[pid]
	for i := range p.renderTargets {
		rt := &p.renderTargets[i]
		var attachments, discardStart, discardEnd TargetBufferFlags
		for k := range attachmentCount {
			out := rt.outgoing[k]
			if out < 0 {
				continue
			}
			f := attachmentFlag(k)
			attachments |= f
			discardStart |= f
			discardEnd |= f

			node := &fg.arena.nodes[out]
			if fg.arena.resources[fg.resolve(node.rid)].base().imported {
				// Content of imported attachments is owned by the caller.
				discardStart &^= f
				discardEnd &^= f
				continue
			}
			if !fg.graph.IsCulled(node.gid) {
				discardEnd &^= f
			}
			if in := rt.incoming[k]; in >= 0 && fg.hasLiveWriter(in) {
				discardStart &^= f
			}
		}

		clearFlags := rt.descriptor.ClearFlags & attachments
		samples := rt.descriptor.Samples
		if samples == 0 {
			samples = 1
		}
		rt.info = RenderTargetInfo{
			Attachments:  attachments,
			Clear:        clearFlags,
			DiscardStart: discardStart | clearFlags,
			DiscardEnd:   discardEnd,
			ClearColor:   rt.descriptor.ClearColor,
			Viewport:     rt.descriptor.Viewport,
			Samples:      samples,
		}
	}
}

// hasLiveWriter reports whether the content of node was produced by a pass
// that survived culling.
func (fg *FrameGraph) hasLiveWriter(nid int32) bool {
	n := &fg.arena.nodes[nid]
	return n.writer >= 0 && !fg.graph.IsCulled(fg.arena.passes[n.writer].gid)
}
