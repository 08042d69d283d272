package main

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/allocator"
	"github.com/gogpu/framegraph/internal/parallel"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const lightStride = 8 // x, y, radius, intensity as uint16

type sceneConfig struct {
	Width  uint32
	Height uint32
	Frame  int
	Bloom  uint8
	Lights []sceneLight
}

// target is the driver handed to every pass. Pixel loops run on pool and
// the composite pass copies the final color into out.
type target struct {
	out  *image.RGBA
	pool *parallel.Pool
}

type lightsData struct {
	lights framegraph.BufferID
}

type gbufferData struct {
	albedo framegraph.TextureID
	depth  framegraph.TextureID
}

type shadowData struct {
	atlas   framegraph.TextureID
	cascade framegraph.TextureID
}

type maskData struct {
	mask framegraph.TextureID
}

type lightingData struct {
	albedo framegraph.TextureID
	depth  framegraph.TextureID
	shadow framegraph.TextureID
	lights framegraph.BufferID
	color  framegraph.TextureID
}

type bloomData struct {
	src framegraph.TextureID
	dst framegraph.TextureID
}

// buildFrame declares the passes of one frame. The shadow mask is rendered
// straight into a layer of the shadow atlas through ForwardTexture, and the
// debug pass is culled because nothing consumes its output.
func buildFrame(fg *framegraph.FrameGraph, cfg sceneConfig) {
	w, h := cfg.Width, cfg.Height

	lights := framegraph.AddPass(fg, "lights",
		func(b *framegraph.Builder, d *lightsData) {
			d.lights = b.CreateBuffer("lights", framegraph.BufferDescriptor{Size: uint64(len(cfg.Lights) * lightStride)})
			d.lights = b.WriteBuffer(d.lights, framegraph.BufferUsageStorage|framegraph.BufferUsageCopyDst)
		},
		func(res *framegraph.Resources, d lightsData, _ any) {
			uploadLights(res.Buffer(d.lights).(*allocator.SoftwareBuffer).Data, cfg)
		})

	gbuffer := framegraph.AddPass(fg, "gbuffer",
		func(b *framegraph.Builder, d *gbufferData) {
			d.albedo = b.CreateTexture("albedo", framegraph.TextureDescriptor{Width: w, Height: h})
			d.depth = b.CreateTexture("depth", framegraph.TextureDescriptor{
				Width: w, Height: h, Format: gputypes.TextureFormatDepth24PlusStencil8,
			})
			b.UseAsColorDepthTarget(&d.albedo, &d.depth)
		},
		func(res *framegraph.Resources, d gbufferData, driver any) {
			albedo := res.Texture(d.albedo).(*image.RGBA)
			depth := res.Texture(d.depth).(*image.Gray16)
			driver.(*target).pool.Rows(albedo.Bounds(), func(band image.Rectangle) {
				drawFloor(albedo, depth, band)
			})
			drawDiscs(albedo, depth, cfg.Frame)
		})

	atlas := framegraph.AddPass(fg, "shadow-atlas",
		func(b *framegraph.Builder, d *shadowData) {
			d.atlas = b.CreateTexture("shadow-atlas", framegraph.TextureDescriptor{
				Width: w / 2, Height: h / 2, Depth: 2, Type: framegraph.Texture2DArray,
			})
			d.cascade = b.CreateTextureSubresource(&d.atlas, "cascade0", framegraph.TextureSubResourceDescriptor{Layer: 1})
		}, nil)

	mask := framegraph.AddPass(fg, "shadow",
		func(b *framegraph.Builder, d *maskData) {
			b.ReadTexture(gbuffer.Data().depth, framegraph.TextureUsageTextureBinding)
			d.mask = b.CreateTexture("shadow-mask", framegraph.TextureDescriptor{Width: w / 2, Height: h / 2})
			b.UseAsColorTarget(&d.mask)
		},
		func(res *framegraph.Resources, d maskData, _ any) {
			drawShadows(shadowLayer(res, d.mask), res.Texture(gbuffer.Data().depth).(*image.Gray16))
		})

	cascade := mask.Data().mask
	shadow := fg.ForwardTexture(atlas.Data().cascade, &cascade)

	lighting := framegraph.AddPass(fg, "lighting",
		func(b *framegraph.Builder, d *lightingData) {
			d.albedo = b.ReadTexture(gbuffer.Data().albedo, framegraph.TextureUsageTextureBinding)
			d.depth = b.ReadTexture(gbuffer.Data().depth, framegraph.TextureUsageTextureBinding)
			d.shadow = b.ReadTexture(shadow, framegraph.TextureUsageTextureBinding)
			d.lights = b.ReadBuffer(lights.Data().lights, framegraph.BufferUsageStorage)
			d.color = b.CreateTexture("color", framegraph.TextureDescriptor{Width: w, Height: h})
			b.UseAsColorTarget(&d.color)
		},
		func(res *framegraph.Resources, d lightingData, driver any) {
			dst := res.Texture(d.color).(*image.RGBA)
			albedo := res.Texture(d.albedo).(*image.RGBA)
			mask := shadowLayer(res, d.shadow)
			lights := res.Buffer(d.lights).(*allocator.SoftwareBuffer).Data
			driver.(*target).pool.Rows(dst.Bounds(), func(band image.Rectangle) {
				shade(dst, albedo, mask, lights, band)
			})
		})

	down := framegraph.AddPass(fg, "bloom-down",
		func(b *framegraph.Builder, d *bloomData) {
			d.src = b.ReadTexture(lighting.Data().color, framegraph.TextureUsageTextureBinding)
			d.dst = b.CreateTexture("bloom", framegraph.TextureDescriptor{Width: w / 4, Height: h / 4})
			b.UseAsColorTarget(&d.dst)
		},
		func(res *framegraph.Resources, d bloomData, _ any) {
			src := res.Texture(d.src).(*image.RGBA)
			dst := res.Texture(d.dst).(*image.RGBA)
			xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		})

	up := framegraph.AddPass(fg, "bloom-up",
		func(b *framegraph.Builder, d *bloomData) {
			d.src = b.ReadTexture(down.Data().dst, framegraph.TextureUsageTextureBinding)
			// Blended over the lit color.
			d.dst = b.WriteTexture(
				b.ReadTexture(lighting.Data().color, framegraph.TextureUsageTextureBinding),
				framegraph.TextureUsageRenderAttachment)
		},
		func(res *framegraph.Resources, d bloomData, _ any) {
			src := res.Texture(d.src).(*image.RGBA)
			dst := res.Texture(d.dst).(*image.RGBA)
			xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, &xdraw.Options{
				SrcMask: image.NewUniform(color.Alpha{A: cfg.Bloom}),
			})
		})

	framegraph.AddPass(fg, "debug-overlay",
		func(b *framegraph.Builder, d *bloomData) {
			d.src = b.ReadTexture(gbuffer.Data().depth, framegraph.TextureUsageTextureBinding)
			d.dst = b.CreateTexture("overlay", framegraph.TextureDescriptor{Width: w, Height: h})
			b.UseAsColorTarget(&d.dst)
		},
		func(*framegraph.Resources, bloomData, any) {})

	hud := framegraph.AddPass(fg, "hud",
		func(b *framegraph.Builder, d *bloomData) {
			d.dst = b.WriteTexture(
				b.ReadTexture(up.Data().dst, framegraph.TextureUsageTextureBinding),
				framegraph.TextureUsageRenderAttachment)
		},
		func(res *framegraph.Resources, d bloomData, _ any) {
			drawLabel(res.Texture(d.dst).(*image.RGBA), fmt.Sprintf("frame %d  passes %d", cfg.Frame, fg.PassCount()))
		})

	framegraph.AddPass(fg, "composite",
		func(b *framegraph.Builder, d *bloomData) {
			d.src = b.ReadTexture(hud.Data().dst, framegraph.TextureUsageCopySrc)
			b.SideEffect()
		},
		func(res *framegraph.Resources, d bloomData, driver any) {
			t := driver.(*target)
			draw.Draw(t.out, t.out.Bounds(), res.Texture(d.src).(*image.RGBA), image.Point{}, draw.Src)
		})

	fg.PresentTexture(hud.Data().dst)
}

// drawLabel writes s in the top-left corner of dst.
func drawLabel(dst *image.RGBA, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(dst.Rect.Min.X+6, dst.Rect.Min.Y+16),
	}
	d.DrawString(s)
}

// shadowLayer returns the atlas layer a forwarded shadow handle points to.
func shadowLayer(res *framegraph.Resources, id framegraph.TextureID) *image.RGBA {
	desc := res.TextureDescriptor(id)
	sub, _ := res.TextureSubResource(id)
	return allocator.SoftwareLayer(res.Texture(id), desc.Height, sub.Layer).(*image.RGBA)
}

// uploadLights packs the lights of cfg, circling the image center, into buf.
func uploadLights(buf []byte, cfg sceneConfig) {
	w, h := float64(cfg.Width), float64(cfg.Height)
	n := len(cfg.Lights)
	for i, l := range cfg.Lights {
		phase := float64(cfg.Frame)*0.35 + float64(i)*2*math.Pi/float64(n)
		radius := l.Radius
		if radius == 0 {
			radius = int(min(cfg.Width, cfg.Height) / 2)
		}
		p := buf[i*lightStride:]
		binary.LittleEndian.PutUint16(p[0:], uint16(w/2+math.Cos(phase)*w/3))
		binary.LittleEndian.PutUint16(p[2:], uint16(h/2+math.Sin(phase)*h/3))
		binary.LittleEndian.PutUint16(p[4:], uint16(radius))      //nolint:gosec // G115: validated by scene
		binary.LittleEndian.PutUint16(p[6:], uint16(l.Intensity)) //nolint:gosec // G115: validated by scene
	}
}

var palette = []color.RGBA{
	{R: 220, G: 80, B: 70, A: 255},
	{R: 80, G: 180, B: 110, A: 255},
	{R: 70, G: 120, B: 220, A: 255},
	{R: 230, G: 190, B: 60, A: 255},
}

// drawFloor fills band of the G-buffer with a checkered floor at the far
// plane.
func drawFloor(albedo *image.RGBA, depth *image.Gray16, band image.Rectangle) {
	for y := band.Min.Y; y < band.Max.Y; y++ {
		for x := band.Min.X; x < band.Max.X; x++ {
			c := color.RGBA{R: 150, G: 150, B: 160, A: 255}
			if (x/24+y/24)%2 == 0 {
				c = color.RGBA{R: 110, G: 110, B: 125, A: 255}
			}
			albedo.SetRGBA(x, y, c)
			depth.SetGray16(x, y, color.Gray16{Y: 0xffff})
		}
	}
}

// drawDiscs draws a row of bobbing discs over the floor. Depth grows from
// left to right.
func drawDiscs(albedo *image.RGBA, depth *image.Gray16, frame int) {
	b := albedo.Bounds()
	r := b.Dy() / 6
	for i, c := range palette {
		cx := b.Dx() * (2*i + 1) / (2 * len(palette))
		cy := b.Dy()/2 + int(float64(r)*math.Sin(float64(frame)*0.5+float64(i)))
		z := uint16(0x4000 + 0x2000*i)
		for y := cy - r; y <= cy+r; y++ {
			for x := cx - r; x <= cx+r; x++ {
				if (x-cx)*(x-cx)+(y-cy)*(y-cy) > r*r || !image.Pt(x, y).In(b) {
					continue
				}
				albedo.SetRGBA(x, y, c)
				depth.SetGray16(x, y, color.Gray16{Y: z})
			}
		}
	}
}

// drawShadows darkens the mask below and to the right of every occluder.
func drawShadows(mask *image.RGBA, depth *image.Gray16) {
	mb := mask.Bounds()
	draw.Draw(mask, mb, image.White, image.Point{}, draw.Src)

	const offset = 8
	db := depth.Bounds()
	for y := db.Min.Y; y < db.Max.Y; y += 2 {
		for x := db.Min.X; x < db.Max.X; x += 2 {
			if depth.Gray16At(x, y).Y == 0xffff {
				continue
			}
			p := image.Pt(mb.Min.X+(x+offset)/2, mb.Min.Y+(y+offset)/2)
			if p.In(mb) {
				mask.SetRGBA(p.X, p.Y, color.RGBA{R: 90, G: 90, B: 90, A: 255})
			}
		}
	}
}

// shade combines albedo, shadow mask and point lights into band of dst.
func shade(dst, albedo, mask *image.RGBA, lights []byte, band image.Rectangle) {
	mb := mask.Bounds()
	for y := band.Min.Y; y < band.Max.Y; y++ {
		for x := band.Min.X; x < band.Max.X; x++ {
			light := 0.25
			for i := range len(lights) / lightStride {
				p := lights[i*lightStride:]
				lx := float64(binary.LittleEndian.Uint16(p[0:]))
				ly := float64(binary.LittleEndian.Uint16(p[2:]))
				radius := float64(binary.LittleEndian.Uint16(p[4:]))
				intensity := float64(binary.LittleEndian.Uint16(p[6:])) / 255
				d := math.Hypot(float64(x)-lx, float64(y)-ly)
				if d < radius {
					light += intensity * (1 - d/radius) * (1 - d/radius)
				}
			}

			sx := min(mb.Min.X+x/2, mb.Max.X-1)
			sy := min(mb.Min.Y+y/2, mb.Max.Y-1)
			light *= float64(mask.RGBAAt(sx, sy).R) / 255

			a := albedo.RGBAAt(x, y)
			dst.SetRGBA(x, y, color.RGBA{
				R: clamp8(float64(a.R) * light),
				G: clamp8(float64(a.G) * light),
				B: clamp8(float64(a.B) * light),
				A: 255,
			})
		}
	}
}

func clamp8(v float64) uint8 {
	return uint8(min(max(v, 0), 255))
}
