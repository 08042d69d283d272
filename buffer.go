package framegraph

import "github.com/gogpu/gputypes"

// BufferDescriptor describes a buffer to be created by the allocator.
type BufferDescriptor struct {
	Size uint64
}

// BufferSubResourceDescriptor selects a byte range of a buffer.
// A zero Size extends the range to the end of the parent.
type BufferSubResourceDescriptor struct {
	Offset uint64
	Size   uint64
}

// BufferUsage is the set of ways a buffer is used by the passes of a frame.
type BufferUsage = gputypes.BufferUsage

// Buffer usage bits.
const (
	BufferUsageMapRead  = gputypes.BufferUsageMapRead
	BufferUsageMapWrite = gputypes.BufferUsageMapWrite
	BufferUsageCopySrc  = gputypes.BufferUsageCopySrc
	BufferUsageCopyDst  = gputypes.BufferUsageCopyDst
	BufferUsageVertex   = gputypes.BufferUsageVertex
	BufferUsageUniform  = gputypes.BufferUsageUniform
	BufferUsageStorage  = gputypes.BufferUsageStorage
)

var bufferOps = &kindOps[BufferDescriptor, BufferSubResourceDescriptor, BufferUsage]{
	kind: KindBuffer,
	subDescriptor: func(parent BufferDescriptor, sub BufferSubResourceDescriptor) BufferDescriptor {
		if sub.Offset >= parent.Size {
			return BufferDescriptor{}
		}
		size := parent.Size - sub.Offset
		if sub.Size != 0 && sub.Size < size {
			size = sub.Size
		}
		return BufferDescriptor{Size: size}
	},
	acquire: func(a ResourceAllocator, name string, desc BufferDescriptor, usage BufferUsage) (any, error) {
		return a.AcquireBuffer(name, desc, usage)
	},
}
