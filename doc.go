// Package framegraph schedules the GPU work of a frame as a dependency graph.
//
// # Overview
//
// Client code declares passes and the virtual resources (textures, buffers,
// render-target attachments) they create, read and write. No GPU object
// exists at declaration time and passes need not be declared in execution
// order. The frame graph then:
//
//   - links passes and resource versions into a dependency graph,
//   - culls every pass and resource that does not contribute to a presented
//     resource or to a pass marked with SideEffect,
//   - asks a ResourceAllocator for each surviving resource right before the
//     first pass that needs it and hands it back right after the last one,
//   - runs the surviving passes in a stable topological order.
//
// # Quick Start
//
//	fg := framegraph.New(allocator.NewSoftware())
//
//	type sceneData struct{ color framegraph.TextureID }
//	scene := framegraph.AddPass(fg, "scene",
//	    func(b *framegraph.Builder, d *sceneData) {
//	        d.color = b.CreateTexture("color", framegraph.TextureDescriptor{Width: 640, Height: 480})
//	        b.UseAsColorTarget(&d.color)
//	    },
//	    func(res *framegraph.Resources, d sceneData, driver any) {
//	        // draw into res.Texture(d.color)
//	    })
//
//	fg.PresentTexture(scene.Data().color)
//	if err := fg.Compile().Execute(nil); err != nil {
//	    log.Fatal(err)
//	}
//	fg.Reset()
//
// # Handles and Versions
//
// Every resource is reached through a Handle made of a slot index and a
// version. A write returns a handle to a new version and makes the old one
// stale; Read and Write given a stale handle return an invalid handle and
// log a warning. Keep only the handles returned by the latest call.
//
// # Lifetimes
//
// A surviving resource is acquired exactly once per frame, with the union
// of the usages declared by surviving passes, no matter how many versions
// it has. Imported resources are never acquired or released. Subresources
// share the object of their root resource.
//
// # Thread Safety
//
// A FrameGraph is owned by one goroutine for the duration of a frame.
// SetLogger may be called concurrently.
package framegraph

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
