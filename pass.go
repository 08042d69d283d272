package framegraph

import (
	"fmt"
	"reflect"
)

// MaxPassDataSize is the largest per-pass data value AddPass accepts, in
// bytes. Pass data lives in the frame arena; large payloads belong in
// resources or behind a pointer.
const MaxPassDataSize = 1024

// ExecuteFunc runs the GPU work of a pass. It receives the concrete
// resources of the pass, a copy of the data filled in by setup, and the
// driver value given to FrameGraph.Execute.
type ExecuteFunc[Data any] func(res *Resources, data Data, driver any)

// Pass is a declared pass together with its data.
type Pass[Data any] struct {
	id   int32
	name string
	data Data
	exec ExecuteFunc[Data]
}

// ID returns the index of the pass within its frame.
func (p *Pass[Data]) ID() int { return int(p.id) }

// Name returns the name given to AddPass.
func (p *Pass[Data]) Name() string { return p.name }

// Data returns the data filled in by setup. Handles stored in it can be
// used by later passes of the same frame.
func (p *Pass[Data]) Data() Data { return p.data }

func (p *Pass[Data]) execute(res *Resources, driver any) {
	p.exec(res, p.data, driver)
}

// AddPass declares a pass. setup runs immediately with a Builder bound to
// the new pass and a pointer to its zero-valued data; the Builder must not
// be used after setup returns. exec may be nil for passes that only shape
// the graph.
//
// AddPass panics with ErrPassDataTooLarge if Data is larger than
// MaxPassDataSize.
//
// Example:
//
//	type blurData struct {
//	    input, output framegraph.TextureID
//	}
//	blur := framegraph.AddPass(fg, "blur",
//	    func(b *framegraph.Builder, d *blurData) {
//	        d.input = b.ReadTexture(color, framegraph.TextureUsageTextureBinding)
//	        d.output = b.CreateTexture("blurred", desc)
//	        d.output = b.WriteTexture(d.output, framegraph.TextureUsageStorageBinding)
//	    },
//	    func(res *framegraph.Resources, d blurData, driver any) {
//	        src := res.Texture(d.input)
//	        dst := res.Texture(d.output)
//	        // record GPU commands
//	    })
//	fg.PresentTexture(blur.Data().output)
func AddPass[Data any](fg *FrameGraph, name string, setup func(b *Builder, data *Data), exec ExecuteFunc[Data]) *Pass[Data] {
	if size := reflect.TypeFor[Data]().Size(); size > MaxPassDataSize {
		panic(fmt.Errorf("%w: pass %q data is %d bytes, limit is %d",
			ErrPassDataTooLarge, name, size, MaxPassDataSize))
	}

	p := &Pass[Data]{name: name, exec: exec}
	var executor passExecutor
	if exec != nil {
		executor = p
	}
	p.id = fg.addPass(name, executor)

	b := &Builder{fg: fg, pass: p.id}
	if setup != nil {
		setup(b, &p.data)
	}
	b.done = true
	return p
}
