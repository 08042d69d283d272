package framegraph

import "github.com/gogpu/gputypes"

// TextureType selects the shape of a texture.
type TextureType uint8

const (
	// Texture2D is a single two-dimensional image. It is the zero value.
	Texture2D TextureType = iota

	// Texture2DArray is an array of two-dimensional layers.
	Texture2DArray

	// TextureCube is a six-layer cube map.
	TextureCube

	// Texture3D is a volume texture.
	Texture3D
)

// String returns the name of the texture type.
func (t TextureType) String() string {
	switch t {
	case Texture2D:
		return "2d"
	case Texture2DArray:
		return "2d-array"
	case TextureCube:
		return "cube"
	case Texture3D:
		return "3d"
	default:
		return "unknown"
	}
}

// TextureDescriptor describes a texture to be created by the allocator.
// Zero-valued Depth, Levels and Samples are treated as 1, and an undefined
// Format as RGBA8Unorm.
type TextureDescriptor struct {
	Width   uint32
	Height  uint32
	Depth   uint32 // depth for Texture3D, layer count otherwise
	Levels  uint8
	Samples uint8
	Type    TextureType
	Format  gputypes.TextureFormat
}

func (d TextureDescriptor) normalized() TextureDescriptor {
	d.Width = max(d.Width, 1)
	d.Height = max(d.Height, 1)
	d.Depth = max(d.Depth, 1)
	d.Levels = max(d.Levels, 1)
	d.Samples = max(d.Samples, 1)
	if d.Type == TextureCube {
		d.Depth = 6
	}
	if d.Format == gputypes.TextureFormatUndefined {
		d.Format = gputypes.TextureFormatRGBA8Unorm
	}
	return d
}

// TextureSubResourceDescriptor selects one mip level of one layer.
type TextureSubResourceDescriptor struct {
	Level uint8
	Layer uint16
}

// TextureUsage is the set of ways a texture is used by the passes of a frame.
type TextureUsage = gputypes.TextureUsage

// Texture usage bits.
const (
	TextureUsageCopySrc          = gputypes.TextureUsageCopySrc
	TextureUsageCopyDst          = gputypes.TextureUsageCopyDst
	TextureUsageTextureBinding   = gputypes.TextureUsageTextureBinding
	TextureUsageStorageBinding   = gputypes.TextureUsageStorageBinding
	TextureUsageRenderAttachment = gputypes.TextureUsageRenderAttachment
)

var textureOps = &kindOps[TextureDescriptor, TextureSubResourceDescriptor, TextureUsage]{
	kind:          KindTexture,
	subDescriptor: textureSubDescriptor,
	acquire: func(a ResourceAllocator, name string, desc TextureDescriptor, usage TextureUsage) (any, error) {
		return a.AcquireTexture(name, desc, usage)
	},
}

// textureSubDescriptor derives the descriptor of a single level/layer view
// of parent.
func textureSubDescriptor(parent TextureDescriptor, sub TextureSubResourceDescriptor) TextureDescriptor {
	d := parent
	d.Width = max(parent.Width>>sub.Level, 1)
	d.Height = max(parent.Height>>sub.Level, 1)
	if parent.Type == Texture3D {
		d.Depth = max(parent.Depth>>sub.Level, 1)
	} else {
		d.Depth = 1
	}
	d.Levels = 1
	d.Type = Texture2D
	return d
}
