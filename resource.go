package framegraph

import (
	"fmt"
	"slices"
	"unsafe"
)

// Kind identifies the variant of a virtual resource.
type Kind uint8

const (
	// KindTexture is a texture or render-target attachment.
	KindTexture Kind = iota + 1

	// KindBuffer is a linear GPU buffer.
	KindBuffer
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// usageFlags is the constraint satisfied by every per-kind usage bit set.
type usageFlags interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// kindOps is the capability set of one resource kind: how to derive a
// subresource descriptor and how to ask an allocator for a concrete object.
type kindOps[D, S any, U usageFlags] struct {
	kind          Kind
	subDescriptor func(parent D, sub S) D
	acquire       func(a ResourceAllocator, name string, desc D, usage U) (any, error)
}

// resourceBase holds the state shared by every resource kind.
type resourceBase struct {
	name        string
	id          int32
	slot        int32 // slot created together with the resource
	imported    bool
	priority    uint8
	parent      int32 // parent resource for subresources, -1 otherwise
	forwardedTo int32 // resource this one was forwarded into, -1 otherwise

	// Lifetime, recomputed by Compile.
	refs  int
	first int32
	last  int32

	// concrete is supplied at import time or obtained from the allocator
	// during Execute. owned is true while the allocator's object is held.
	concrete any
	owned    bool

	// importedTarget is the concrete render target supplied by
	// ImportRenderTarget.
	importedTarget any
}

func (b *resourceBase) base() *resourceBase { return b }

// virtualResource is implemented by every resource variant.
type virtualResource interface {
	base() *resourceBase
	kind() Kind
	usageBits() uint64
	describe() string
	footprint() int
	resolveUsage(alive func(pass int32) bool)
	inheritUsage(child virtualResource)
	absorb(other virtualResource)
	acquire(a ResourceAllocator) (any, error)
}

// use records one declared access of a pass and the usage it asked for.
type use[U usageFlags] struct {
	pass  int32
	usage U
}

// resource is the concrete variant for one kind.
type resource[D, S any, U usageFlags] struct {
	resourceBase
	ops           *kindOps[D, S, U]
	descriptor    D
	subDescriptor S
	usage         U
	uses          []use[U]
}

func newResource[D, S any, U usageFlags](ops *kindOps[D, S, U], name string, desc D) *resource[D, S, U] {
	return &resource[D, S, U]{
		resourceBase: resourceBase{
			name:        name,
			parent:      -1,
			forwardedTo: -1,
			first:       -1,
			last:        -1,
		},
		ops:        ops,
		descriptor: desc,
	}
}

func newSubresource[D, S any, U usageFlags](parent *resource[D, S, U], name string, sub S) *resource[D, S, U] {
	r := newResource(parent.ops, name, parent.ops.subDescriptor(parent.descriptor, sub))
	r.parent = parent.id
	r.subDescriptor = sub
	r.imported = parent.imported
	r.priority = parent.priority
	return r
}

func (r *resource[D, S, U]) kind() Kind { return r.ops.kind }

func (r *resource[D, S, U]) usageBits() uint64 { return uint64(r.usage) }

func (r *resource[D, S, U]) describe() string { return fmt.Sprintf("%+v", r.descriptor) }

func (r *resource[D, S, U]) footprint() int { return int(unsafe.Sizeof(*r)) }

func (r *resource[D, S, U]) addUse(pass int32, usage U) {
	r.uses = append(r.uses, use[U]{pass: pass, usage: usage})
}

// resolveUsage recomputes the usage union from the accesses of surviving
// passes. Accesses that are not tied to a pass (pass < 0) always count.
func (r *resource[D, S, U]) resolveUsage(alive func(pass int32) bool) {
	var u U
	for _, x := range r.uses {
		if x.pass < 0 || alive(x.pass) {
			u |= x.usage
		}
	}
	r.usage = u
}

func (r *resource[D, S, U]) inheritUsage(child virtualResource) {
	if c, ok := child.(*resource[D, S, U]); ok {
		r.usage |= c.usage
	}
}

func (r *resource[D, S, U]) absorb(other virtualResource) {
	o, ok := other.(*resource[D, S, U])
	if !ok {
		panic(fmt.Errorf("%w: cannot forward %s %q into %s %q",
			ErrKindMismatch, other.kind(), other.base().name, r.kind(), r.name))
	}
	r.uses = append(r.uses, o.uses...)
	r.usage |= o.usage
	o.uses = nil
}

func (r *resource[D, S, U]) acquire(a ResourceAllocator) (any, error) {
	return r.ops.acquire(a, r.name, r.descriptor, r.usage)
}

// asKind returns r as the variant for ops or panics with ErrKindMismatch.
func asKind[D, S any, U usageFlags](ops *kindOps[D, S, U], r virtualResource) *resource[D, S, U] {
	typed, ok := r.(*resource[D, S, U])
	if !ok {
		panic(fmt.Errorf("%w: %q is a %s, not a %s", ErrKindMismatch, r.base().name, r.kind(), ops.kind))
	}
	return typed
}

// sortByPriority orders resource IDs by descending priority, then by ID.
func sortByPriority(ids []int32, resources []virtualResource) {
	slices.SortStableFunc(ids, func(a, b int32) int {
		pa, pb := resources[a].base().priority, resources[b].base().priority
		if pa != pb {
			return int(pb) - int(pa)
		}
		return int(a) - int(b)
	})
}
