// Package atlas computes non-overlapping rectangular layouts that place
// every surviving material's texture footprint into shared atlas pages.
package atlas

import (
	m "github.com/Faultbox/meshforge/pkg/math"
)

// Rect is an axis-aligned rectangle in texel units.
type Rect struct {
	X, Y, W, H int
}

// Overlaps reports whether two rectangles share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Inset shrinks the rectangle by n texels on every side.
func (r Rect) Inset(n int) Rect {
	return Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
}

// UVTransform maps a material's 0..1 UV space into its atlas placement:
// uv' = uv * scale + offset.
type UVTransform struct {
	OffsetX, OffsetY float32
	ScaleX, ScaleY   float32
}

// Apply transforms one UV coordinate.
func (t UVTransform) Apply(uv m.Vec2) m.Vec2 {
	return m.Vec2{
		X: uv.X*t.ScaleX + t.OffsetX,
		Y: uv.Y*t.ScaleY + t.OffsetY,
	}
}

// Placement is one material's assigned region.
type Placement struct {
	Page int
	Rect Rect // content rect, margin excluded
	// Margin is the effective padding ring around Rect, still inside the
	// placed block. Zero when the footprint could not afford the margin.
	Margin int
	UV     UVTransform
}

// Layout maps material identity to placement. Built once per run; the
// combiner's UV rewrite and the baker's render targets both read it, so
// for fixed input it must be exactly reproducible.
type Layout struct {
	PageSize   int
	PageCount  int
	Placements map[string]Placement
	// Order lists material names in placement order for deterministic
	// iteration.
	Order []string
}

// Placement returns the placement for a material name.
func (l *Layout) Placement(material string) (Placement, bool) {
	p, ok := l.Placements[material]
	return p, ok
}
