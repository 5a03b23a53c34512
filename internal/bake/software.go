package bake

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"

	m "github.com/Faultbox/meshforge/pkg/math"
)

// Software is a CPU rasterization backend. It resamples the source
// texture across the whole rectangle as a base layer, then re-renders
// every UV-mapped face with barycentric sampling so face coverage is
// exact. It writes disjoint rectangles and is safe for concurrent use.
type Software struct{}

// NewSoftware returns the built-in rasterization backend.
func NewSoftware() *Software {
	return &Software{}
}

// ThreadSafe is true: renders touch only their own rectangle.
func (s *Software) ThreadSafe() bool { return true }

// Render rasterizes one request.
func (s *Software) Render(ctx context.Context, req *Request) error {
	if req.Source == nil {
		return fmt.Errorf("software backend: nil source texture")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Base layer: the source texture resampled to the rectangle. Covers
	// texels no face maps to, so the rect never holds stale pixels.
	resized := transform.Resize(req.Source, req.Rect.W, req.Rect.H, transform.Linear)
	for y := 0; y < req.Rect.H; y++ {
		for x := 0; x < req.Rect.W; x++ {
			req.Target.SetRGBA(req.Rect.X+x, req.Rect.Y+y, resized.RGBAAt(x, y))
		}
	}

	for _, face := range req.Faces {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.rasterizeFace(req, face)
	}
	return nil
}

// rasterizeFace scans the face's bounding box in target pixels and
// bilinearly samples the source at the interpolated original UV.
func (s *Software) rasterizeFace(req *Request, face [3]m.Vec2) {
	rw := float32(req.Rect.W)
	rh := float32(req.Rect.H)

	// Target pixel positions of the three corners.
	var px [3]m.Vec2
	for i, uv := range face {
		px[i] = m.Vec2{X: uv.X * rw, Y: uv.Y * rh}
	}

	minX := int(math32.Floor(min3(px[0].X, px[1].X, px[2].X)))
	maxX := int(math32.Ceil(max3(px[0].X, px[1].X, px[2].X)))
	minY := int(math32.Floor(min3(px[0].Y, px[1].Y, px[2].Y)))
	maxY := int(math32.Ceil(max3(px[0].Y, px[1].Y, px[2].Y)))

	minX = clamp(minX, 0, req.Rect.W-1)
	maxX = clamp(maxX, 0, req.Rect.W-1)
	minY = clamp(minY, 0, req.Rect.H-1)
	maxY = clamp(maxY, 0, req.Rect.H-1)

	area := edge(px[0], px[1], px[2])
	if math32.Abs(area) < 1e-8 {
		return // degenerate in UV space
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := m.Vec2{X: float32(x) + 0.5, Y: float32(y) + 0.5}
			w0 := edge(px[1], px[2], p) / area
			w1 := edge(px[2], px[0], p) / area
			w2 := edge(px[0], px[1], p) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			uv := face[0].Scale(w0).Add(face[1].Scale(w1)).Add(face[2].Scale(w2))
			req.Target.SetRGBA(req.Rect.X+x, req.Rect.Y+y, sampleBilinear(req.Source, uv))
		}
	}
}

func edge(a, b, p m.Vec2) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// sampleBilinear samples a 0..1 UV coordinate with clamped bilinear
// filtering.
func sampleBilinear(img *image.RGBA, uv m.Vec2) color.RGBA {
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()

	fx := uv.X*float32(w) - 0.5
	fy := uv.Y*float32(h) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	get := func(x, y int) color.RGBA {
		return img.RGBAAt(b.Min.X+clamp(x, 0, w-1), b.Min.Y+clamp(y, 0, h-1))
	}
	c00 := get(x0, y0)
	c10 := get(x0+1, y0)
	c01 := get(x0, y0+1)
	c11 := get(x0+1, y0+1)

	lerp := func(a, b uint8, t float32) float32 {
		return float32(a) + (float32(b)-float32(a))*t
	}
	mix := func(f func(color.RGBA) uint8) uint8 {
		top := lerp(f(c00), f(c10), tx)
		bot := lerp(f(c01), f(c11), tx)
		return uint8(top + (bot-top)*ty + 0.5)
	}
	return color.RGBA{
		R: mix(func(c color.RGBA) uint8 { return c.R }),
		G: mix(func(c color.RGBA) uint8 { return c.G }),
		B: mix(func(c color.RGBA) uint8 { return c.B }),
		A: mix(func(c color.RGBA) uint8 { return c.A }),
	}
}

func min3(a, b, c float32) float32 { return math32.Min(a, math32.Min(b, c)) }
func max3(a, b, c float32) float32 { return math32.Max(a, math32.Max(b, c)) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
