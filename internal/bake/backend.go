// Package bake renders material channels into their assigned atlas
// rectangles.
package bake

import (
	"context"
	"image"

	"github.com/Faultbox/meshforge/internal/atlas"
	"github.com/Faultbox/meshforge/internal/scene"
	m "github.com/Faultbox/meshforge/pkg/math"
)

// Request is one rasterization unit of work: render a material channel
// into a rectangle of a target page image, sampling the source texture
// across the given UV-mapped faces.
type Request struct {
	Material *scene.Material
	Channel  scene.Channel
	Source   *image.RGBA // source channel texture
	Faces    [][3]m.Vec2 // original 0..1 UVs of every face using the material
	Target   *image.RGBA // whole page image
	Rect     atlas.Rect  // target rectangle inside the page
}

// Backend executes one render operation. A render completes before its
// result is read; requests never target overlapping rectangles.
type Backend interface {
	Render(ctx context.Context, req *Request) error
	// ThreadSafe reports whether concurrent Render calls on the same
	// target image are allowed. When false the baker serializes per page.
	ThreadSafe() bool
}
