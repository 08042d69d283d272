package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// scene holds the settings of a scene file. Attributes left out keep the
// values of defaultScene.
//
// Example:
//
//	width  = defaults.width * 2
//	frames = 8
//	bloom  = 96
//
//	light "key" {
//	  intensity = 320
//	}
//	light "rim" {
//	  intensity = 120
//	  radius    = 90
//	}
type scene struct {
	Width  int          `hcl:"width,optional"`
	Height int          `hcl:"height,optional"`
	Frames int          `hcl:"frames,optional"`
	Bloom  int          `hcl:"bloom,optional"`
	Lights []sceneLight `hcl:"light,block"`
}

// sceneLight is one point light. A zero Radius selects half the shorter
// image side.
type sceneLight struct {
	Name      string `hcl:"name,label"`
	Intensity int    `hcl:"intensity"`
	Radius    int    `hcl:"radius,optional"`
}

func defaultScene() scene {
	return scene{
		Width:  640,
		Height: 360,
		Frames: 3,
		Bloom:  72,
		Lights: []sceneLight{
			{Name: "warm", Intensity: 200},
			{Name: "fill", Intensity: 240},
			{Name: "cool", Intensity: 280},
		},
	}
}

// loadScene reads a scene file.
func loadScene(path string) (scene, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return scene{}, err
	}
	return parseScene(src, path)
}

// parseScene decodes an HCL scene over defaultScene. The variable
// "defaults" exposes the default width, height and frames.
func parseScene(src []byte, filename string) (scene, error) {
	s := defaultScene()
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return scene{}, fmt.Errorf("failed to parse scene %s: %w", filename, diags)
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"defaults": cty.ObjectVal(map[string]cty.Value{
				"width":  cty.NumberIntVal(int64(s.Width)),
				"height": cty.NumberIntVal(int64(s.Height)),
				"frames": cty.NumberIntVal(int64(s.Frames)),
			}),
		},
	}

	lights := s.Lights
	s.Lights = nil
	if diags := gohcl.DecodeBody(file.Body, ctx, &s); diags.HasErrors() {
		return scene{}, fmt.Errorf("failed to decode scene %s: %w", filename, diags)
	}
	if len(s.Lights) == 0 {
		s.Lights = lights
	}
	if err := s.validate(); err != nil {
		return scene{}, fmt.Errorf("scene %s: %w", filename, err)
	}
	return s, nil
}

// frame returns the per-frame configuration handed to buildFrame.
func (s *scene) frame(n int) sceneConfig {
	return sceneConfig{
		Width:  uint32(s.Width),  //nolint:gosec // G115: validated
		Height: uint32(s.Height), //nolint:gosec // G115: validated
		Frame:  n,
		Bloom:  uint8(s.Bloom), //nolint:gosec // G115: validated
		Lights: s.Lights,
	}
}

func (s *scene) validate() error {
	switch {
	case s.Width < 8 || s.Width > 8192:
		return fmt.Errorf("width %d out of range [8, 8192]", s.Width)
	case s.Height < 8 || s.Height > 8192:
		return fmt.Errorf("height %d out of range [8, 8192]", s.Height)
	case s.Frames < 1:
		return fmt.Errorf("frames must be positive, got %d", s.Frames)
	case s.Bloom < 0 || s.Bloom > 255:
		return fmt.Errorf("bloom %d out of range [0, 255]", s.Bloom)
	}
	for _, l := range s.Lights {
		if l.Intensity < 0 || l.Intensity > 0xffff {
			return fmt.Errorf("light %q: intensity %d out of range", l.Name, l.Intensity)
		}
		if l.Radius < 0 || l.Radius > 0xffff {
			return fmt.Errorf("light %q: radius %d out of range", l.Name, l.Radius)
		}
	}
	return nil
}
