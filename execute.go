package framegraph

import "fmt"

// Execute runs the surviving passes in order. Before each pass it acquires
// the resources whose lifetime starts there; after it, it releases those
// whose lifetime ends there. driver is handed unchanged to every pass.
//
// Execute returns ErrNotCompiled if Compile has not run since the last
// declaration, and ErrAlreadyExecuted on a second call in the same frame.
// If the allocator fails, every resource acquired so far is released and
// the error, wrapping ErrAllocationFailed, is returned; passes after the
// failing one do not run.
func (fg *FrameGraph) Execute(driver any) error {
	if !fg.compiled {
		return ErrNotCompiled
	}
	if fg.executed {
		return ErrAlreadyExecuted
	}
	fg.executed = true

	for _, pid := range fg.order {
		for _, rid := range fg.arena.passes[pid].devirtualize {
			if err := fg.acquire(rid); err != nil {
				fg.releaseAll()
				return err
			}
		}

		if err := fg.executePass(pid, driver); err != nil {
			fg.releaseAll()
			return err
		}

		for _, rid := range fg.arena.passes[pid].destroy {
			fg.release(rid)
		}
	}
	return nil
}

func (fg *FrameGraph) executePass(pid int32, driver any) error {
	p := &fg.arena.passes[pid]
	if p.exec == nil {
		return nil
	}

	rta, _ := fg.allocator.(RenderTargetAllocator)
	defer fg.destroyRenderTargets(p, rta)
	for i := range p.renderTargets {
		rt := &p.renderTargets[i]
		rt.info.Target = rt.imported
		if rt.imported != nil || rta == nil {
			continue
		}
		target, err := rta.CreateRenderTarget(rt.name, rt.info)
		if err != nil {
			return fmt.Errorf("%w: render target %d of pass %q: %w", ErrAllocationFailed, i, p.name, err)
		}
		rt.info.Target = target
	}

	p.exec.execute(&Resources{fg: fg, pass: pid}, driver)
	return nil
}

func (fg *FrameGraph) destroyRenderTargets(p *passNode, rta RenderTargetAllocator) {
	for i := range p.renderTargets {
		rt := &p.renderTargets[i]
		if rt.imported == nil && rta != nil && rt.info.Target != nil {
			rta.DestroyRenderTarget(rt.info.Target)
		}
		rt.info.Target = nil
	}
}

func (fg *FrameGraph) acquire(rid int32) error {
	r := fg.arena.resources[rid]
	b := r.base()
	if b.imported || b.parent >= 0 || b.owned {
		return nil
	}
	obj, err := r.acquire(fg.allocator)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrAllocationFailed, r.kind(), b.name, err)
	}
	b.concrete = obj
	b.owned = true
	Logger().Debug("framegraph: acquire",
		"kind", r.kind().String(), "resource", b.name, "usage", r.usageBits())
	return nil
}

func (fg *FrameGraph) release(rid int32) {
	r := fg.arena.resources[rid]
	b := r.base()
	if !b.owned {
		return
	}
	fg.allocator.Release(b.concrete)
	b.concrete = nil
	b.owned = false
	Logger().Debug("framegraph: release", "kind", r.kind().String(), "resource", b.name)
}

func (fg *FrameGraph) releaseAll() {
	for rid := range fg.arena.resources {
		//nolint:gosec // G115: resource count is bounded by per-frame declarations
		fg.release(int32(rid))
	}
}

// concrete returns the object backing rid: its own, or the one of its root
// ancestor for subresources.
func (fg *FrameGraph) concrete(rid int32) any {
	for {
		b := fg.arena.resources[rid].base()
		if b.parent < 0 {
			return b.concrete
		}
		rid = fg.resolve(b.parent)
	}
}
