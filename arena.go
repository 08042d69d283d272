package framegraph

import "unsafe"

// arena owns every per-frame record. Records live in append-only slices
// that are truncated, not freed, by reset, so a steady-state frame
// allocates nothing once the slices have grown to size.
//
// The budget is soft: exceeding it logs a warning once per frame.
type arena struct {
	budget int
	used   int
	warned bool

	passes    []passNode
	nodes     []resourceNode
	resources []virtualResource
	slots     []resourceSlot
	owners    []nodeOwner // indexed by depgraph.NodeID
}

func newArena(budget int) arena {
	return arena{budget: budget}
}

var (
	passNodeSize     = int(unsafe.Sizeof(passNode{}))
	resourceNodeSize = int(unsafe.Sizeof(resourceNode{}))
	slotSize         = int(unsafe.Sizeof(resourceSlot{}))
)

// charge accounts size bytes against the budget.
func (a *arena) charge(size int, what, name string) {
	a.used += size
	if a.used > a.budget && !a.warned {
		a.warned = true
		Logger().Warn("framegraph: arena budget exceeded",
			"budget", a.budget, "used", a.used, "record", what, "name", name)
	}
}

// reset drops every record but keeps the backing storage.
func (a *arena) reset() {
	clear(a.passes)
	clear(a.nodes)
	clear(a.resources)
	a.passes = a.passes[:0]
	a.nodes = a.nodes[:0]
	a.resources = a.resources[:0]
	a.slots = a.slots[:0]
	a.owners = a.owners[:0]
	a.used = 0
	a.warned = false
}
