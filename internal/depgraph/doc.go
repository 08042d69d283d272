// Package depgraph implements the reference-counted dependency graph used by
// the frame graph to cull work and order passes.
//
// # Model
//
// Nodes are identified by dense integer IDs assigned in insertion order.
// Edges are directed from a producer to a consumer. The reference count of
// a node is the number of live edges leaving it, i.e. the number of
// consumers still interested in what it produces.
//
//	resource(v0) ──read──▶ pass B ──write──▶ resource(v1) ──read──▶ present
//
// A node marked with [Graph.MakeTarget] can never be culled. All other
// nodes whose reference count drops to zero are removed by [Graph.Cull],
// which in turn decrements the reference count of their producers.
//
// # Ordering
//
// [Graph.Order] returns the surviving nodes in topological order. Among
// nodes that are ready at the same time the one inserted first wins, so the
// order is fully determined by the declaration sequence.
//
// # Thread Safety
//
// Graph is not safe for concurrent use. It is owned by a single frame graph
// for the duration of one frame.
package depgraph
