// Command fgdemo renders a small deferred-shading frame through a frame
// graph on the software allocator and saves the result as PNG.
//
// Image size, frame count, bloom strength and lights can be read from an
// HCL scene file with -scene; flags given explicitly override it.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/allocator"
	"github.com/gogpu/framegraph/internal/parallel"
)

func main() {
	var (
		sceneF  = flag.String("scene", "", "HCL scene file")
		width   = flag.Int("width", 640, "image width")
		height  = flag.Int("height", 360, "image height")
		frames  = flag.Int("frames", 3, "number of frames to render")
		output  = flag.String("output", "fgdemo.png", "output file")
		dot     = flag.String("dot", "", "write the last frame's graph in Graphviz format to this file")
		workers = flag.Int("workers", 0, "shading goroutines (0 = GOMAXPROCS)")
		verbose = flag.Bool("v", false, "log frame graph activity")
	)
	flag.Parse()

	if *verbose {
		l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		framegraph.SetLogger(l)
		allocator.SetLogger(l)
	}

	sc := defaultScene()
	if *sceneF != "" {
		var err error
		if sc, err = loadScene(*sceneF); err != nil {
			log.Fatalf("Failed to load scene: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			sc.Width = *width
		case "height":
			sc.Height = *height
		case "frames":
			sc.Frames = *frames
		}
	})
	if err := sc.validate(); err != nil {
		log.Fatalf("Invalid scene: %v", err)
	}

	sw := allocator.NewSoftware()
	alloc := allocator.NewCache(sw, allocator.CacheConfig{})
	fg := framegraph.New(alloc)

	pool := parallel.NewPool(*workers)

	out := image.NewRGBA(image.Rect(0, 0, sc.Width, sc.Height))
	for frame := range sc.Frames {
		buildFrame(fg, sc.frame(frame))
		fg.Compile()

		last := frame == sc.Frames-1
		if last && *dot != "" {
			if err := writeDOT(fg, *dot); err != nil {
				log.Fatalf("Failed to write graph: %v", err)
			}
		}
		if err := fg.Execute(&target{out: out, pool: pool}); err != nil {
			log.Fatalf("Frame %d failed: %v", frame, err)
		}
		if last {
			s := fg.Stats()
			log.Printf("Passes: %d (%d culled), resources: %d (%d culled), order: %v",
				s.Passes, s.CulledPasses, s.Resources, s.CulledResources, fg.ExecutionOrder())
		}
		fg.Reset()
		alloc.Gc()
	}

	pool.Close()

	cs := alloc.Stats()
	log.Printf("Allocator: %d created, %d cache hits", sw.Created(), cs.Hits)
	alloc.Purge()

	if err := savePNG(out, *output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d)\n", *output, sc.Width, sc.Height)
}

func savePNG(img image.Image, path string) error {
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeDOT(fg *framegraph.FrameGraph, path string) error {
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return err
	}
	if err := fg.WriteGraphviz(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
