package framegraph

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var errOutOfMemory = errors.New("out of memory")

type fakeObject struct {
	kind string
	name string
}

// recordingAllocator logs every call in order, together with the exec
// events that tests append through log.
type recordingAllocator struct {
	events        []string
	live          map[*fakeObject]bool
	textureUsage  map[string]TextureUsage
	textureDesc   map[string]TextureDescriptor
	bufferUsage   map[string]BufferUsage
	fail          string
	doubleRelease int
}

func newRecordingAllocator() *recordingAllocator {
	return &recordingAllocator{
		live:         make(map[*fakeObject]bool),
		textureUsage: make(map[string]TextureUsage),
		textureDesc:  make(map[string]TextureDescriptor),
		bufferUsage:  make(map[string]BufferUsage),
	}
}

func (a *recordingAllocator) log(event string) {
	a.events = append(a.events, event)
}

func (a *recordingAllocator) AcquireTexture(name string, desc TextureDescriptor, usage TextureUsage) (any, error) {
	if name == a.fail {
		return nil, errOutOfMemory
	}
	a.log("acquire:" + name)
	a.textureUsage[name] = usage
	a.textureDesc[name] = desc
	obj := &fakeObject{kind: "texture", name: name}
	a.live[obj] = true
	return obj, nil
}

func (a *recordingAllocator) AcquireBuffer(name string, _ BufferDescriptor, usage BufferUsage) (any, error) {
	if name == a.fail {
		return nil, errOutOfMemory
	}
	a.log("acquire:" + name)
	a.bufferUsage[name] = usage
	obj := &fakeObject{kind: "buffer", name: name}
	a.live[obj] = true
	return obj, nil
}

func (a *recordingAllocator) Release(obj any) {
	o := obj.(*fakeObject)
	if !a.live[o] {
		a.doubleRelease++
		return
	}
	delete(a.live, o)
	a.log("release:" + o.name)
}

func (a *recordingAllocator) count(prefix string) int {
	n := 0
	for _, e := range a.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (a *recordingAllocator) index(event string) int {
	for i, e := range a.events {
		if e == event {
			return i
		}
	}
	return -1
}

// targetAllocator additionally creates render targets.
type targetAllocator struct {
	*recordingAllocator
	created   []RenderTargetInfo
	destroyed int
}

func (a *targetAllocator) CreateRenderTarget(name string, info RenderTargetInfo) (any, error) {
	a.log("create-target:" + name)
	a.created = append(a.created, info)
	return fmt.Sprintf("rt-%d", len(a.created)), nil
}

func (a *targetAllocator) DestroyRenderTarget(any) {
	a.destroyed++
	a.log("destroy-target")
}

// mustPanic runs fn and fails unless it panics with an error wrapping want.
func mustPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic wrapping %v", want)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value = %v (%T), want error wrapping %v", r, r, want)
		}
		if !errors.Is(err, want) {
			t.Fatalf("panic = %v, want error wrapping %v", err, want)
		}
	}()
	fn()
}

var smallTexture = TextureDescriptor{Width: 16, Height: 16}
