package framegraph

import "github.com/gogpu/framegraph/internal/depgraph"

// resourceNode is one version of a logical resource in the dependency graph.
type resourceNode struct {
	gid      depgraph.NodeID
	rid      int32
	version  uint32
	producer int32 // pass that created version 0 during its setup, -1 otherwise
	writer   int32 // pass that wrote this version, -1 otherwise
	readers  []int32
}

func (n *resourceNode) readBy(pass int32) bool {
	for _, r := range n.readers {
		if r == pass {
			return true
		}
	}
	return false
}

// passExecutor runs the execute callback of one pass.
type passExecutor interface {
	execute(res *Resources, driver any)
}

// passNode is one pass in the dependency graph.
type passNode struct {
	gid           depgraph.NodeID
	id            int32
	name          string
	exec          passExecutor // nil for present passes and passes without execute
	present       bool
	sideEffect    bool
	declared      []int32 // resources accessed, in declaration order
	renderTargets []renderTargetData

	// Filled by Compile.
	devirtualize []int32
	destroy      []int32
}

func (p *passNode) declares(rid int32) bool {
	for _, d := range p.declared {
		if d == rid {
			return true
		}
	}
	return false
}

// nodeOwner maps a dependency-graph node back to the pass or resource node
// it represents.
type nodeOwner struct {
	pass  bool
	index int32
}
