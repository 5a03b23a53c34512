package bake

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/atlas"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/scene"
	"github.com/Faultbox/meshforge/internal/texture"
	m "github.com/Faultbox/meshforge/pkg/math"
)

// Job is one material to bake, with the original UVs of every face that
// references it. Faces are gathered before the combiner rewrites UVs to
// atlas space.
type Job struct {
	Material *scene.Material
	Faces    [][3]m.Vec2
}

// Failure records one failed (material, channel) task.
type Failure struct {
	Material string
	Channel  scene.Channel
	Err      error
}

// Options controls bake scheduling.
type Options struct {
	Channels    []scene.Channel
	Concurrency int // 0 = GOMAXPROCS
	// Strict escalates the first failure to a run-fatal error.
	Strict bool
	// Progress, when set, is called after each finished task.
	Progress func(done, total int)
}

// Result holds the baked page images per channel plus recorded failures.
type Result struct {
	Images   map[scene.Channel][]*image.RGBA
	Failures []Failure
}

// task is the (material, channel, rectangle, image) bake unit.
type task struct {
	job     Job
	channel scene.Channel
	value   scene.ChannelValue
	page    int
	rect    atlas.Rect
	margin  int
}

// Bake renders every (material, channel) pair with channel data into its
// assigned atlas rectangle. Constant channels are filled directly without
// invoking the backend. Textured channels become tasks executed by a
// bounded worker pool; tasks target disjoint rectangles so they run in
// any order. A task failure is recorded, its rectangle filled with the
// channel's neutral value, and siblings continue — unless Strict is set,
// in which case no further tasks are launched. Cancelling ctx stops new
// tasks between launches; in-flight tasks finish their own rectangle.
func Bake(ctx context.Context, jobs []Job, layout *atlas.Layout, tex *texture.Manager, backend Backend, opts Options) (*Result, error) {
	if len(opts.Channels) == 0 {
		opts.Channels = scene.DefaultChannels()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	res := &Result{Images: make(map[scene.Channel][]*image.RGBA, len(opts.Channels))}
	for _, ch := range opts.Channels {
		pages := make([]*image.RGBA, layout.PageCount)
		for i := range pages {
			pages[i] = image.NewRGBA(image.Rect(0, 0, layout.PageSize, layout.PageSize))
		}
		res.Images[ch] = pages
	}

	// Constant fast path runs inline; textured channels queue as tasks.
	var tasks []task
	for _, job := range jobs {
		placement, ok := layout.Placement(job.Material.Name)
		if !ok {
			return nil, fmt.Errorf("material %q has no atlas placement", job.Material.Name)
		}
		for _, ch := range opts.Channels {
			target := res.Images[ch][placement.Page]
			cv, present := job.Material.Channel(ch)
			switch {
			case !present:
				// Keep the atlas structurally valid for materials that
				// lack the channel.
				FillRect(target, placement.Rect, scene.NeutralValue(ch))
				ExtendEdges(target, placement.Rect, placement.Margin)
			case !cv.HasTexture():
				FillRect(target, placement.Rect, cv.Value)
				ExtendEdges(target, placement.Rect, placement.Margin)
			default:
				tasks = append(tasks, task{
					job:     job,
					channel: ch,
					value:   cv,
					page:    placement.Page,
					rect:    placement.Rect,
					margin:  placement.Margin,
				})
			}
		}
	}

	logger.Log.Info("baking atlas",
		zap.Int("materials", len(jobs)),
		zap.Int("channels", len(opts.Channels)),
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", workers))

	b := &baker{
		backend: backend,
		tex:     tex,
		result:  res,
		opts:    opts,
	}
	if !backend.ThreadSafe() {
		b.pageLocks = make([]sync.Mutex, layout.PageCount)
	}
	b.run(ctx, tasks)

	if opts.Strict && len(res.Failures) > 0 {
		f := res.Failures[0]
		return res, fmt.Errorf("bake failed for material %q channel %s: %w", f.Material, f.Channel, f.Err)
	}
	return res, nil
}

type baker struct {
	backend   Backend
	tex       *texture.Manager
	result    *Result
	opts      Options
	pageLocks []sync.Mutex

	mu     sync.Mutex
	done   int
	failed bool
}

func (b *baker) run(ctx context.Context, tasks []task) {
	queue := make(chan task)
	var wg sync.WaitGroup

	workers := b.opts.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range queue {
				b.execute(ctx, t, len(tasks))
			}
		}()
	}

dispatch:
	for _, t := range tasks {
		// Cooperative cancellation between tasks; in-flight ones finish.
		if ctx.Err() != nil {
			break
		}
		if b.opts.Strict && b.hasFailed() {
			break
		}
		select {
		case queue <- t:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(queue)
	wg.Wait()
}

func (b *baker) execute(ctx context.Context, t task, total int) {
	target := b.result.Images[t.channel][t.page]

	err := b.render(ctx, t, target)
	if err != nil {
		logger.Log.Warn("bake task failed",
			zap.String("material", t.job.Material.Name),
			zap.String("channel", string(t.channel)),
			zap.Error(err))
		// Fallback keeps the atlas structurally valid.
		FillRect(target, t.rect, scene.NeutralValue(t.channel))
	}
	// Extend by the placement's own margin so the write stays inside the
	// placed block even when the margin was clamped away.
	ExtendEdges(target, t.rect, t.margin)

	b.mu.Lock()
	if err != nil {
		b.result.Failures = append(b.result.Failures, Failure{
			Material: t.job.Material.Name,
			Channel:  t.channel,
			Err:      err,
		})
		b.failed = true
	}
	b.done++
	done := b.done
	b.mu.Unlock()

	if b.opts.Progress != nil {
		b.opts.Progress(done, total)
	}
}

func (b *baker) render(ctx context.Context, t task, target *image.RGBA) error {
	src, err := b.tex.Load(t.value.Texture)
	if err != nil {
		return fmt.Errorf("loading source texture: %w", err)
	}

	if b.pageLocks != nil {
		b.pageLocks[t.page].Lock()
		defer b.pageLocks[t.page].Unlock()
	}
	return b.backend.Render(ctx, &Request{
		Material: t.job.Material,
		Channel:  t.channel,
		Source:   src,
		Faces:    t.job.Faces,
		Target:   target,
		Rect:     t.rect,
	})
}

func (b *baker) hasFailed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}
