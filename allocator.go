package framegraph

// ResourceAllocator realizes virtual resources as concrete GPU objects.
//
// Execute calls AcquireTexture or AcquireBuffer exactly once for every
// non-imported resource that survives culling, right before the first pass
// that uses it, with the union of the usages declared by surviving passes.
// Release is called with the returned object right after the last such pass.
// Imported resources and subresources are never acquired or released.
//
// The allocator package provides implementations backed by a wgpu HAL
// device, by CPU memory and by a frame-aged cache in front of either.
type ResourceAllocator interface {
	AcquireTexture(name string, desc TextureDescriptor, usage TextureUsage) (any, error)
	AcquireBuffer(name string, desc BufferDescriptor, usage BufferUsage) (any, error)
	Release(obj any)
}

// RenderTargetAllocator is optionally implemented by allocators whose
// backend needs a concrete render-target object around a pass.
//
// When the allocator implements it, Execute calls CreateRenderTarget for
// every render target declared by a surviving pass before the pass runs,
// and DestroyRenderTarget after. Render targets of imported attachments
// use the object given to ImportRenderTarget instead.
type RenderTargetAllocator interface {
	CreateRenderTarget(name string, info RenderTargetInfo) (any, error)
	DestroyRenderTarget(target any)
}
