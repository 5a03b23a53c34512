package atlas

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
)

// TextureSizer reports source texture dimensions without decoding pixels.
type TextureSizer interface {
	Size(path string) (w, h int, err error)
}

// FootprintOptions controls footprint derivation.
type FootprintOptions struct {
	Min  int // fallback size for untextured materials
	Cell int // round footprints up to a multiple of this
	Pad  int // padding margin reserved inside the footprint
}

// Footprints derives each material's requested atlas size from its
// largest-resolution channel texture, grown by the padding margin and
// rounded up to the cell size. Materials with no textured channel, or
// whose textures cannot be measured, fall back to the minimum footprint.
func Footprints(materials []*scene.Material, sizer TextureSizer, opts FootprintOptions) []Footprint {
	fps := make([]Footprint, 0, len(materials))
	for _, mat := range materials {
		w, h := opts.Min, opts.Min
		for _, cv := range mat.Channels {
			if !cv.HasTexture() {
				continue
			}
			tw, th, err := sizer.Size(cv.Texture)
			if err != nil {
				logger.Log.Warn("cannot measure source texture",
					zap.String("material", mat.Name),
					zap.String("texture", cv.Texture),
					zap.Error(err))
				continue
			}
			if tw > w {
				w = tw
			}
			if th > h {
				h = th
			}
		}
		fps = append(fps, Footprint{
			Material: mat,
			W:        roundUp(w+2*opts.Pad, opts.Cell),
			H:        roundUp(h+2*opts.Pad, opts.Cell),
		})
	}
	return fps
}

func roundUp(v, cell int) int {
	if cell <= 1 {
		return v
	}
	if r := v % cell; r != 0 {
		return v + cell - r
	}
	return v
}
