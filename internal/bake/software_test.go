package bake

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/Faultbox/meshforge/internal/atlas"
	m "github.com/Faultbox/meshforge/pkg/math"
)

func solidSource(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestSoftwareRenderFillsRect(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	target := image.NewRGBA(image.Rect(0, 0, 32, 32))
	req := &Request{
		Source: solidSource(4, 4, green),
		Faces: [][3]m.Vec2{
			{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
			{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		},
		Target: target,
		Rect:   atlas.Rect{X: 8, Y: 8, W: 16, H: 16},
	}

	if err := NewSoftware().Render(context.Background(), req); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, p := range [][2]int{{8, 8}, {16, 16}, {23, 23}} {
		if got := target.RGBAAt(p[0], p[1]); got != green {
			t.Errorf("rect pixel (%d,%d) = %v, want source color", p[0], p[1], got)
		}
	}
	// Pixels outside the rectangle stay untouched.
	if target.RGBAAt(0, 0) != (color.RGBA{}) {
		t.Error("render wrote outside its rectangle")
	}
	if target.RGBAAt(24, 24) != (color.RGBA{}) {
		t.Error("render wrote outside its rectangle")
	}
}

func TestSoftwareRenderDegenerateFace(t *testing.T) {
	target := image.NewRGBA(image.Rect(0, 0, 8, 8))
	req := &Request{
		Source: solidSource(2, 2, color.RGBA{R: 255, A: 255}),
		Faces:  [][3]m.Vec2{{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}}},
		Target: target,
		Rect:   atlas.Rect{X: 0, Y: 0, W: 8, H: 8},
	}
	if err := NewSoftware().Render(context.Background(), req); err != nil {
		t.Fatalf("degenerate face should not fail: %v", err)
	}
}

func TestSoftwareRenderNilSource(t *testing.T) {
	req := &Request{Target: image.NewRGBA(image.Rect(0, 0, 4, 4)), Rect: atlas.Rect{W: 4, H: 4}}
	if err := NewSoftware().Render(context.Background(), req); err == nil {
		t.Error("expected error for nil source")
	}
}

func TestSampleBilinearClamps(t *testing.T) {
	src := solidSource(2, 2, color.RGBA{B: 255, A: 255})
	for _, uv := range []m.Vec2{{X: -0.5, Y: 0.5}, {X: 1.5, Y: 1.5}, {X: 0.5, Y: 0.5}} {
		if got := sampleBilinear(src, uv); got != (color.RGBA{B: 255, A: 255}) {
			t.Errorf("sample at %v = %v", uv, got)
		}
	}
}
