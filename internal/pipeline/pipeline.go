// Package pipeline sequences the optimization stages: instantiate,
// classify, combine, pack, bake. It owns run state and failure reporting;
// no state survives across runs except configuration.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/atlas"
	"github.com/Faultbox/meshforge/internal/bake"
	"github.com/Faultbox/meshforge/internal/combine"
	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
	"github.com/Faultbox/meshforge/internal/texture"
	m "github.com/Faultbox/meshforge/pkg/math"
)

// Status summarizes a finished run.
type Status int

// Run outcomes.
const (
	StatusCompleted Status = iota
	StatusCompletedWithWarnings
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCompletedWithWarnings:
		return "completed with warnings"
	default:
		return "failed"
	}
}

// GroupFailure records a merge group whose combination failed. Its members
// pass through uncombined.
type GroupFailure struct {
	Group string
	Err   error
}

// Result is the artifact set of one run: combined meshes referencing
// atlas materials, per-channel atlas pages, the layout, and everything
// that went wrong along the way.
type Result struct {
	Objects  []*scene.Object // combined meshes first, then residual objects
	Combined int             // number of combined meshes in Objects
	Layout   *atlas.Layout
	Images   map[scene.Channel][]*image.RGBA
	// AtlasMaterials holds the replacement material per atlas page.
	AtlasMaterials []*scene.Material

	GroupFailures []GroupFailure
	BakeFailures  []bake.Failure
	Status        Status
}

// Runner executes pipeline runs. The zero value is not usable; construct
// with New.
type Runner struct {
	cfg     *config.Config
	tex     *texture.Manager
	backend bake.Backend
	// Progress, when set, receives bake task completion updates.
	Progress func(done, total int)
}

// New creates a runner with the given configuration and bake backend.
// A nil backend selects the built-in software rasterizer.
func New(cfg *config.Config, backend bake.Backend) *Runner {
	if backend == nil {
		backend = bake.NewSoftware()
	}
	return &Runner{
		cfg:     cfg,
		tex:     texture.NewManager(cfg.Textures.SearchPaths...),
		backend: backend,
	}
}

// Textures exposes the texture manager, mainly for cache statistics.
func (r *Runner) Textures() *texture.Manager { return r.tex }

// Run executes the full pipeline on a scene document. Fatal errors
// (graph cycles, unconvertible nodes, atlas overflow) return a nil
// result; per-group and per-task failures are recorded in the result
// and reflected in its Status.
func (r *Runner) Run(ctx context.Context, doc *scene.Document) (*Result, error) {
	start := time.Now()

	objects, err := r.instantiate(doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	combined, residual := r.combineStage(objects, res)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout, materials, err := r.packStage(combined)
	if err != nil {
		return nil, err
	}
	res.Layout = layout

	jobs := collectJobs(combined, materials)

	// UV rewrite must follow job collection: jobs sample the original UVs.
	for _, obj := range combined {
		if err := combine.RewriteUVs(obj, layout); err != nil {
			return nil, err
		}
	}

	if err := r.bakeStage(ctx, jobs, layout, res); err != nil {
		return nil, err
	}

	r.assignAtlasMaterials(combined, layout, res)

	res.Objects = append(append([]*scene.Object{}, combined...), residual...)
	res.Combined = len(combined)
	res.Status = StatusCompleted
	if len(res.GroupFailures) > 0 || len(res.BakeFailures) > 0 {
		res.Status = StatusCompletedWithWarnings
	}

	logger.Log.Info("pipeline run finished",
		zap.String("status", res.Status.String()),
		zap.Int("combined", res.Combined),
		zap.Int("residual", len(res.Objects)-res.Combined),
		zap.Int("atlas_pages", layout.PageCount),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (r *Runner) instantiate(doc *scene.Document) ([]*scene.Object, error) {
	start := time.Now()
	objects, err := scene.Instantiate(doc, scene.InstantiateOptions{
		SkipUnconvertible: r.cfg.Merge.SkipUnconvertible,
	})
	if err != nil {
		return nil, fmt.Errorf("instantiating scene graph: %w", err)
	}
	logger.Log.Info("stage done", zap.String("stage", "instantiate"),
		zap.Int("objects", len(objects)), zap.Duration("elapsed", time.Since(start)))
	return objects, nil
}

// combineStage classifies and combines. A group that fails its post-hoc
// budget check is recorded and its members fall through uncombined.
func (r *Runner) combineStage(objects []*scene.Object, res *Result) (combined, residual []*scene.Object) {
	start := time.Now()
	budgets := combine.Budgets{
		MaxVertices: r.cfg.Merge.MaxVertices,
		MaxSlots:    r.cfg.Merge.MaxSlots,
	}
	part := combine.Classify(objects, combine.Options{
		Budgets:                 budgets,
		MatchSlotsIgnoringOrder: r.cfg.Merge.MatchSlotsIgnoringOrder,
	})

	for _, g := range part.Groups {
		obj, err := combine.Combine(g, budgets)
		if err != nil {
			name := g.Objects[0].Name
			logger.Log.Error("combining group failed", zap.String("group", name), zap.Error(err))
			res.GroupFailures = append(res.GroupFailures, GroupFailure{Group: name, Err: err})
			residual = append(residual, g.Objects...)
			continue
		}
		combined = append(combined, obj)
	}
	residual = append(residual, part.Residual...)

	logger.Log.Info("stage done", zap.String("stage", "combine"),
		zap.Int("groups", len(part.Groups)),
		zap.Int("failed_groups", len(res.GroupFailures)),
		zap.Duration("elapsed", time.Since(start)))
	return combined, residual
}

func (r *Runner) packStage(combined []*scene.Object) (*atlas.Layout, []*scene.Material, error) {
	start := time.Now()
	materials := survivingMaterials(combined)
	footprints := atlas.Footprints(materials, r.tex, atlas.FootprintOptions{
		Min:  r.cfg.Atlas.MinFootprint,
		Cell: r.cfg.Atlas.Cell,
		Pad:  r.cfg.Atlas.Padding,
	})
	layout, err := atlas.Pack(footprints, atlas.PackOptions{
		MaxSize: r.cfg.Atlas.MaxSize,
		Padding: r.cfg.Atlas.Padding,
	})
	if err != nil {
		var overflow *atlas.OverflowError
		if errors.As(err, &overflow) {
			return nil, nil, fmt.Errorf("atlas packing: %w", err)
		}
		return nil, nil, err
	}
	logger.Log.Info("stage done", zap.String("stage", "pack"),
		zap.Int("materials", len(materials)),
		zap.Int("pages", layout.PageCount),
		zap.Duration("elapsed", time.Since(start)))
	return layout, materials, nil
}

func (r *Runner) bakeStage(ctx context.Context, jobs []bake.Job, layout *atlas.Layout, res *Result) error {
	start := time.Now()
	channels := make([]scene.Channel, 0, len(r.cfg.Bake.Channels))
	for _, ch := range r.cfg.Bake.Channels {
		channels = append(channels, scene.Channel(ch))
	}

	bres, err := bake.Bake(ctx, jobs, layout, r.tex, r.backend, bake.Options{
		Channels:    channels,
		Concurrency: r.cfg.Bake.Concurrency,
		Strict:      r.cfg.Bake.Strict,
		Progress:    r.Progress,
	})
	if err != nil {
		return err
	}
	res.Images = bres.Images
	res.BakeFailures = bres.Failures

	logger.Log.Info("stage done", zap.String("stage", "bake"),
		zap.Int("failures", len(bres.Failures)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// survivingMaterials lists the distinct materials of the combined
// objects, in first-use order for deterministic packing.
func survivingMaterials(combined []*scene.Object) []*scene.Material {
	seen := make(map[string]bool)
	var out []*scene.Material
	for _, obj := range combined {
		for _, s := range obj.Slots {
			if !seen[s.Material.Name] {
				seen[s.Material.Name] = true
				out = append(out, s.Material)
			}
		}
	}
	return out
}

// collectJobs gathers, per material, the original UVs of every face that
// references it across the combined meshes.
func collectJobs(combined []*scene.Object, materials []*scene.Material) []bake.Job {
	faces := make(map[string][][3]m.Vec2)
	for _, obj := range combined {
		me := obj.Mesh
		if me == nil || len(me.UVs) == 0 {
			continue
		}
		uvs := me.UVs[0]
		for fi, f := range me.Faces {
			name := obj.Slots[f.Slot].Material.Name
			faces[name] = append(faces[name], [3]m.Vec2{uvs[3*fi], uvs[3*fi+1], uvs[3*fi+2]})
		}
	}

	jobs := make([]bake.Job, 0, len(materials))
	for _, mat := range materials {
		jobs = append(jobs, bake.Job{Material: mat, Faces: faces[mat.Name]})
	}
	return jobs
}

// assignAtlasMaterials supersedes each combined object's slots with one
// atlas material per page, remapping face slot indices accordingly.
func (r *Runner) assignAtlasMaterials(combined []*scene.Object, layout *atlas.Layout, res *Result) {
	res.AtlasMaterials = make([]*scene.Material, layout.PageCount)
	for page := 0; page < layout.PageCount; page++ {
		chans := make(map[scene.Channel]scene.ChannelValue, len(r.cfg.Bake.Channels))
		for _, ch := range r.cfg.Bake.Channels {
			c := scene.Channel(ch)
			chans[c] = scene.ChannelValue{Texture: AtlasImageName(page, c)}
		}
		res.AtlasMaterials[page] = &scene.Material{
			Name:     fmt.Sprintf("atlas_%03d", page),
			Channels: chans,
		}
	}

	for _, obj := range combined {
		pageSlot := make(map[int]int)
		var slots []scene.MaterialSlot
		remap := make([]int, len(obj.Slots))
		for i, s := range obj.Slots {
			placement, ok := layout.Placement(s.Material.Name)
			if !ok {
				continue
			}
			idx, seen := pageSlot[placement.Page]
			if !seen {
				idx = len(slots)
				pageSlot[placement.Page] = idx
				slots = append(slots, scene.MaterialSlot{Material: res.AtlasMaterials[placement.Page]})
			}
			remap[i] = idx
		}
		for fi := range obj.Mesh.Faces {
			obj.Mesh.Faces[fi].Slot = remap[obj.Mesh.Faces[fi].Slot]
		}
		obj.Slots = slots
	}
}

// AtlasImageName is the file name an atlas page image is exported under.
func AtlasImageName(page int, ch scene.Channel) string {
	return fmt.Sprintf("atlas_%03d_%s.png", page, ch)
}
