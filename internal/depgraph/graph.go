package depgraph

import (
	"container/heap"
	"errors"
	"fmt"
)

// ErrCycle is returned by Order when the surviving nodes do not form a DAG.
var ErrCycle = errors.New("depgraph: graph contains a cycle")

// NodeID identifies a node in a Graph.
type NodeID uint32

// EdgeID identifies an edge in a Graph.
type EdgeID uint32

// Edge is a directed dependency from a producer to a consumer.
type Edge struct {
	From NodeID
	To   NodeID
}

type node struct {
	refCount uint32
	target   bool
	culled   bool
	in       []EdgeID
	out      []EdgeID
}

type edge struct {
	Edge
	removed bool
}

// Graph is a directed graph of reference-counted nodes.
//
// Nodes and edges live in append-only slices and are referenced by index
// only, so growing the graph never invalidates an ID.
type Graph struct {
	nodes []node
	edges []edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make([]node, 0, 64),
		edges: make([]edge, 0, 128),
	}
}

// Clear removes all nodes and edges. The backing storage is kept for reuse.
func (g *Graph) Clear() {
	clear(g.nodes)
	clear(g.edges)
	g.nodes = g.nodes[:0]
	g.edges = g.edges[:0]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges that have not been removed.
func (g *Graph) EdgeCount() int {
	n := 0
	for i := range g.edges {
		if !g.edges[i].removed {
			n++
		}
	}
	return n
}

// AddNode appends a new node and returns its ID.
func (g *Graph) AddNode() NodeID {
	//nolint:gosec // G115: node count is bounded by per-frame declarations
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{})
	return id
}

// Link adds an edge from producer to consumer and returns its ID.
// Self edges are rejected.
func (g *Graph) Link(from, to NodeID) EdgeID {
	g.mustExist(from)
	g.mustExist(to)
	if from == to {
		panic(fmt.Sprintf("depgraph: self edge on node %d", from))
	}

	//nolint:gosec // G115: edge count is bounded by per-frame declarations
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, edge{Edge: Edge{From: from, To: to}})
	g.nodes[from].out = append(g.nodes[from].out, id)
	g.nodes[to].in = append(g.nodes[to].in, id)
	return id
}

// MakeTarget marks a node as a root. Targets are never culled.
func (g *Graph) MakeTarget(id NodeID) {
	g.mustExist(id)
	g.nodes[id].target = true
}

// IsTarget reports whether the node was marked with MakeTarget.
func (g *Graph) IsTarget(id NodeID) bool {
	g.mustExist(id)
	return g.nodes[id].target
}

// RefCount returns the reference count computed by the last Cull.
func (g *Graph) RefCount(id NodeID) uint32 {
	g.mustExist(id)
	return g.nodes[id].refCount
}

// IsCulled reports whether the last Cull removed the node.
// Before Cull has run every node is live.
func (g *Graph) IsCulled(id NodeID) bool {
	g.mustExist(id)
	return g.nodes[id].culled
}

// IsEdgeValid reports whether the edge exists and both of its endpoints
// survived culling.
func (g *Graph) IsEdgeValid(id EdgeID) bool {
	if int(id) >= len(g.edges) {
		return false
	}
	e := g.edges[id]
	return !e.removed && !g.nodes[e.From].culled && !g.nodes[e.To].culled
}

// Edge returns the endpoints of an edge.
func (g *Graph) Edge(id EdgeID) Edge {
	if int(id) >= len(g.edges) {
		panic(fmt.Sprintf("depgraph: edge %d out of range (%d edges)", id, len(g.edges)))
	}
	return g.edges[id].Edge
}

// Edges returns every edge that has not been removed, in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for i := range g.edges {
		if !g.edges[i].removed {
			out = append(out, g.edges[i].Edge)
		}
	}
	return out
}

// IncomingEdges returns the edges ending at id.
func (g *Graph) IncomingEdges(id NodeID) []Edge {
	g.mustExist(id)
	return g.collect(g.nodes[id].in)
}

// OutgoingEdges returns the edges starting at id.
func (g *Graph) OutgoingEdges(id NodeID) []Edge {
	g.mustExist(id)
	return g.collect(g.nodes[id].out)
}

func (g *Graph) collect(ids []EdgeID) []Edge {
	out := make([]Edge, 0, len(ids))
	for _, eid := range ids {
		if !g.edges[eid].removed {
			out = append(out, g.edges[eid].Edge)
		}
	}
	return out
}

// Redirect moves every edge touching old onto replacement. Edges that would
// become self edges are removed. After Redirect, old has no edges.
func (g *Graph) Redirect(old, replacement NodeID) {
	g.mustExist(old)
	g.mustExist(replacement)
	if old == replacement {
		return
	}

	in := append([]EdgeID(nil), g.nodes[old].in...)
	out := append([]EdgeID(nil), g.nodes[old].out...)

	for _, eid := range in {
		e := &g.edges[eid]
		if e.removed {
			continue
		}
		if e.From == replacement {
			g.remove(eid)
			continue
		}
		e.To = replacement
		g.nodes[replacement].in = append(g.nodes[replacement].in, eid)
	}
	for _, eid := range out {
		e := &g.edges[eid]
		if e.removed {
			continue
		}
		if e.To == replacement {
			g.remove(eid)
			continue
		}
		e.From = replacement
		g.nodes[replacement].out = append(g.nodes[replacement].out, eid)
	}
	g.nodes[old].in = nil
	g.nodes[old].out = nil
}

func (g *Graph) remove(eid EdgeID) {
	e := &g.edges[eid]
	e.removed = true
	g.nodes[e.From].out = without(g.nodes[e.From].out, eid)
	g.nodes[e.To].in = without(g.nodes[e.To].in, eid)
}

func without(ids []EdgeID, id EdgeID) []EdgeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Cull recomputes reference counts and removes every node that neither is a
// target nor has a surviving consumer. It returns the number of culled
// nodes. Cull is iterative and can be called again after the graph changes.
func (g *Graph) Cull() int {
	for i := range g.nodes {
		g.nodes[i].refCount = 0
		g.nodes[i].culled = false
	}
	for i := range g.edges {
		if !g.edges[i].removed {
			g.nodes[g.edges[i].From].refCount++
		}
	}

	stack := make([]NodeID, 0, len(g.nodes))
	for i := range g.nodes {
		if g.nodes[i].refCount == 0 && !g.nodes[i].target {
			//nolint:gosec // G115: index bounded by node count
			stack = append(stack, NodeID(i))
		}
	}

	culled := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.nodes[id].culled = true
		culled++

		for _, eid := range g.nodes[id].in {
			e := g.edges[eid]
			if e.removed {
				continue
			}
			producer := &g.nodes[e.From]
			producer.refCount--
			if producer.refCount == 0 && !producer.target {
				stack = append(stack, e.From)
			}
		}
	}

	return culled
}

// Order returns the nodes that survived the last Cull in topological order.
// Ties are broken by insertion order. If Cull has not run, all nodes are
// considered live.
func (g *Graph) Order() ([]NodeID, error) {
	indegree := make([]int, len(g.nodes))
	live := 0
	for i := range g.nodes {
		if !g.nodes[i].culled {
			live++
		}
	}
	for i := range g.edges {
		e := g.edges[i]
		if e.removed || g.nodes[e.From].culled || g.nodes[e.To].culled {
			continue
		}
		indegree[e.To]++
	}

	ready := make(idHeap, 0, live)
	for i := range g.nodes {
		if !g.nodes[i].culled && indegree[i] == 0 {
			//nolint:gosec // G115: index bounded by node count
			ready = append(ready, NodeID(i))
		}
	}
	heap.Init(&ready)

	order := make([]NodeID, 0, live)
	for ready.Len() > 0 {
		id := heap.Pop(&ready).(NodeID)
		order = append(order, id)
		for _, eid := range g.nodes[id].out {
			e := g.edges[eid]
			if e.removed || g.nodes[e.To].culled {
				continue
			}
			indegree[e.To]--
			if indegree[e.To] == 0 {
				heap.Push(&ready, e.To)
			}
		}
	}

	if len(order) != live {
		return order, fmt.Errorf("%w: %d of %d nodes ordered", ErrCycle, len(order), live)
	}
	return order, nil
}

// IsAcyclic reports whether the live part of the graph is a DAG.
func (g *Graph) IsAcyclic() bool {
	_, err := g.Order()
	return err == nil
}

func (g *Graph) mustExist(id NodeID) {
	if int(id) >= len(g.nodes) {
		panic(fmt.Sprintf("depgraph: node %d out of range (%d nodes)", id, len(g.nodes)))
	}
}

// idHeap is a min-heap of node IDs.
type idHeap []NodeID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(NodeID)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
