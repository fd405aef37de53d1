package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvaslayout/pkg/cache"
	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/graph"
	"github.com/matzehuels/canvaslayout/pkg/layout"
	"github.com/matzehuels/canvaslayout/pkg/observability"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Runner executes pipeline steps with caching.
//
// The Runner holds no per-run state, so one Runner may serve concurrent
// requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching and a nil logger means [log.Default].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs prepare → layout → render for doc.
func (r *Runner) Execute(ctx context.Context, doc graph.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	opts.Layout = opts.resolveLayout(doc.Options)

	result := &Result{}

	start := time.Now()
	w, repaired, err := r.Prepare(doc)
	if err != nil {
		return nil, err
	}
	result.Repaired = repaired
	result.DroppedEdges = doc.StaleEdges()
	result.Stats.PrepareTime = time.Since(start)
	result.Stats.BlockCount = w.BlockCount()
	result.Stats.EdgeCount = w.EdgeCount()

	start = time.Now()
	l, hit, err := r.LayoutWithCacheInfo(ctx, w, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(start)
	result.CacheInfo.LayoutHit = hit
	result.DocumentHash, _ = documentHash(w)
	l.Apply(w)
	result.Workflow = w

	r.Logger.Info("computed layout",
		"blocks", result.Stats.BlockCount,
		"orientation", l.Orientation,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, w, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the layout of w, returning whether it came
// from the cache. opts.Layout must already be resolved.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, w *workflow.Workflow, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Layout{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return graph.Layout{}, false, errors.Wrap(errors.ErrCodeCancelled, err, "layout")
	}

	hash, err := documentHash(w)
	if err != nil {
		return graph.Layout{}, false, errors.Wrap(errors.ErrCodeInternal, err, "hash workflow")
	}
	key := r.Keyer.LayoutKey(hash, LayoutKeyOpts(opts.Layout))

	if data, ok := r.lookup(ctx, key, opts.Refresh); ok {
		if cached, err := graph.UnmarshalLayout(data); err == nil {
			return cached, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, w.BlockCount(), w.EdgeCount())
	start := time.Now()
	res := layout.Compute(w.Blocks(), w.Edges(), opts.Layout,
		layout.WithLogger(opts.Logger),
		layout.WithMaxDepth(opts.MaxDepth))
	l := graph.FromResult(res)
	hooks.OnLayoutComplete(ctx, l.Orientation, time.Since(start), nil)

	if len(l.Unresolved) > 0 {
		opts.Logger.Debug("blocks unreachable from any entry point", "count", len(l.Unresolved), "blocks", l.Unresolved)
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		r.store(ctx, key, data, cache.LayoutTTL)
	}
	return l, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit flag.
func (r *Runner) Layout(ctx context.Context, w *workflow.Workflow, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, w, opts)
	return l, err
}

// RenderWithCacheInfo renders every requested format. The hit flag is true
// only when all formats came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, w *workflow.Workflow, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	docHash, err := documentHash(w)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash workflow")
	}
	layoutHash := cache.Hash([]byte(docHash + string(layoutData)))

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, ok := r.lookup(ctx, key, opts.Refresh); ok {
			artifacts[format] = data
			continue
		}
		allCached = false

		data, err := r.renderFormat(ctx, w, l, layoutData, format, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		r.store(ctx, key, data, cache.ArtifactTTL)
	}
	return artifacts, allCached, nil
}

// Render is RenderWithCacheInfo without the cache hit flag.
func (r *Runner) Render(ctx context.Context, w *workflow.Workflow, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, w, l, opts)
	return artifacts, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// lookup reads key unless refresh is set. Backend errors are logged and
// treated as misses so a flaky cache never fails a run.
func (r *Runner) lookup(ctx context.Context, key string, refresh bool) ([]byte, bool) {
	if refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return data, true
}

func (r *Runner) store(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func documentHash(w *workflow.Workflow) (string, error) {
	return cache.HashJSON(graph.FromWorkflow(w))
}
