package atlas

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
)

// Footprint is the texel size one material requests in the atlas.
type Footprint struct {
	Material *scene.Material
	W, H     int
}

// PackOptions controls atlas packing.
type PackOptions struct {
	MaxSize int // page edge length
	Padding int // margin inside each placement, filled by edge extension
}

// OverflowError reports a single material whose footprint cannot fit a page.
type OverflowError struct {
	Material string
	W, H     int
	MaxSize  int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("material %q footprint %dx%d exceeds atlas size %d", e.Material, e.W, e.H, e.MaxSize)
}

// page holds the free-rectangle list of one atlas image. Placing into a
// free rectangle splits it into a bottom and a right residual; zero-area
// residuals are dropped.
type page struct {
	free []Rect
}

// Pack computes a layout for all footprints: sort by descending area
// (stable on input order), then place each into the first page with a
// sufficient free rectangle, opening a new page when none fits. A
// footprint is the full placed block; the padding margin lives inside it,
// so a footprint equal to the page size still packs and adjacent blocks
// tile without gaps.
func Pack(footprints []Footprint, opts PackOptions) (*Layout, error) {
	for _, fp := range footprints {
		if fp.W > opts.MaxSize || fp.H > opts.MaxSize {
			return nil, &OverflowError{Material: fp.Material.Name, W: fp.W, H: fp.H, MaxSize: opts.MaxSize}
		}
	}

	ordered := make([]Footprint, len(footprints))
	copy(ordered, footprints)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].W*ordered[i].H > ordered[j].W*ordered[j].H
	})

	layout := &Layout{
		PageSize:   opts.MaxSize,
		Placements: make(map[string]Placement, len(ordered)),
	}

	var pages []*page
	for _, fp := range ordered {
		placed := false
		for pi, pg := range pages {
			if pos, ok := pg.place(fp.W, fp.H); ok {
				layout.add(fp, pi, pos, opts.Padding)
				placed = true
				break
			}
		}
		if !placed {
			pg := &page{free: []Rect{{W: opts.MaxSize, H: opts.MaxSize}}}
			pages = append(pages, pg)
			pos, ok := pg.place(fp.W, fp.H)
			if !ok {
				// Cannot happen: footprints were bounds-checked above.
				return nil, &OverflowError{Material: fp.Material.Name, W: fp.W, H: fp.H, MaxSize: opts.MaxSize}
			}
			layout.add(fp, len(pages)-1, pos, opts.Padding)
		}
	}
	layout.PageCount = len(pages)

	logger.Log.Info("packed atlas layout",
		zap.Int("materials", len(ordered)),
		zap.Int("pages", layout.PageCount),
		zap.Int("page_size", opts.MaxSize))
	return layout, nil
}

// place scans the free list backwards so recent, smaller residuals are
// preferred, keeping large rectangles intact for large footprints.
func (p *page) place(w, h int) (Rect, bool) {
	for i := len(p.free) - 1; i >= 0; i-- {
		space := p.free[i]
		rightSpace := space.W - w
		bottomSpace := space.H - h
		if rightSpace < 0 || bottomSpace < 0 {
			continue
		}

		// Swap-remove the chosen space.
		p.free[i] = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]

		// Block goes to the top-left corner; split the remainder into a
		// bottom strip and a right strip.
		if bottomSpace > 0 {
			p.free = append(p.free, Rect{X: space.X, Y: space.Y + h, W: space.W, H: bottomSpace})
		}
		if rightSpace > 0 {
			p.free = append(p.free, Rect{X: space.X + w, Y: space.Y, W: rightSpace, H: h})
		}
		return Rect{X: space.X, Y: space.Y, W: w, H: h}, true
	}
	return Rect{}, false
}

func (l *Layout) add(fp Footprint, pageIndex int, block Rect, padding int) {
	// The content rect is the block inset by the padding margin; the margin
	// ring is filled by edge extension at bake time. A footprint too small
	// to afford the margin keeps the full block and loses the ring, so the
	// baker never extends past the block into a neighbor.
	margin := padding
	inner := block.Inset(margin)
	if inner.W <= 0 || inner.H <= 0 {
		margin = 0
		inner = block
	}
	size := float32(l.PageSize)
	l.Placements[fp.Material.Name] = Placement{
		Page:   pageIndex,
		Rect:   inner,
		Margin: margin,
		UV: UVTransform{
			OffsetX: float32(inner.X) / size,
			OffsetY: float32(inner.Y) / size,
			ScaleX:  float32(inner.W) / size,
			ScaleY:  float32(inner.H) / size,
		},
	}
	l.Order = append(l.Order, fp.Material.Name)
}
