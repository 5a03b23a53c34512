package bake

import (
	"image"
	"image/color"

	"github.com/Faultbox/meshforge/internal/atlas"
)

// FillRect writes a constant value into a rectangle. Used for the
// constant-channel fast path and for fallback fills after task failures.
func FillRect(img *image.RGBA, r atlas.Rect, value [4]float32) {
	c := toRGBA(value)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// ExtendEdges clamp-extends the rectangle's border texels outward into
// the padding margin, so downstream mip-mapping does not pull a
// neighbor's data across the shared atlas.
func ExtendEdges(img *image.RGBA, r atlas.Rect, padding int) {
	if padding <= 0 {
		return
	}
	b := img.Bounds()

	x0 := max(r.X-padding, b.Min.X)
	x1 := min(r.X+r.W+padding, b.Max.X)
	y0 := max(r.Y-padding, b.Min.Y)
	y1 := min(r.Y+r.H+padding, b.Max.Y)

	clampX := func(x int) int {
		if x < r.X {
			return r.X
		}
		if x >= r.X+r.W {
			return r.X + r.W - 1
		}
		return x
	}
	clampY := func(y int) int {
		if y < r.Y {
			return r.Y
		}
		if y >= r.Y+r.H {
			return r.Y + r.H - 1
		}
		return y
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H {
				continue
			}
			img.SetRGBA(x, y, img.RGBAAt(clampX(x), clampY(y)))
		}
	}
}

func toRGBA(v [4]float32) color.RGBA {
	to8 := func(f float32) uint8 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 255
		}
		return uint8(f*255 + 0.5)
	}
	return color.RGBA{R: to8(v[0]), G: to8(v[1]), B: to8(v[2]), A: to8(v[3])}
}
