// Package pipeline chains the load → prepare → layout → render steps used
// by the CLI and the HTTP server.
//
// Centralizing the steps keeps the CLI and the server behaving identically:
// the same defaults, the same dangling-parent repair and the same cache keys.
//
// # Steps
//
//  1. Prepare: convert a [graph.Document] to a workflow and repair blocks
//     whose parent is missing or not a container
//  2. Layout: run [layout.Compute] with caching
//  3. Render: produce DOT, SVG or layout JSON with caching
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Formats = []string{pipeline.FormatSVG}
//
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// # Option precedence
//
// Layout options resolve, lowest first: [DefaultOptions], a TOML file
// loaded with [LoadConfig], the document's own "options" block, then
// [Options.Overrides] (explicit CLI flags).
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvaslayout/pkg/cache"
	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/graph"
	"github.com/matzehuels/canvaslayout/pkg/hierarchy"
	"github.com/matzehuels/canvaslayout/pkg/layout"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = FormatSVG

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatDOT, FormatSVG, FormatJSON}

// Options configures a pipeline run.
type Options struct {
	// Layout is the base layout configuration.
	Layout layout.Options `json:"layout" toml:"layout"`
	// Overrides are applied after the document's own options.
	Overrides *graph.Options `json:"-" toml:"-"`
	// MaxDepth bounds container nesting during layout.
	MaxDepth int `json:"max_depth,omitempty" toml:"max_depth"`

	Formats  []string `json:"formats,omitempty" toml:"formats"`
	Detailed bool     `json:"detailed,omitempty" toml:"detailed"`

	// Refresh bypasses cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// DefaultOptions returns the single source of truth for CLI and server
// defaults.
func DefaultOptions() Options {
	return Options{
		Layout:   layout.DefaultOptions(),
		MaxDepth: hierarchy.DefaultMaxDepth,
		Formats:  []string{DefaultFormat},
	}
}

// ValidateAndSetDefaults normalizes formats, fills zero fields and checks
// the layout options. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.MaxDepth <= 0 {
		o.MaxDepth = hierarchy.DefaultMaxDepth
	}
	if o.Layout.HandleOrientation == "" {
		o.Layout.HandleOrientation = layout.OrientationAuto
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	return ValidateFormats(o.Formats)
}

// ValidateFormats lowercases every format in place and rejects unknown ones.
func ValidateFormats(formats []string) error {
	for i, f := range formats {
		norm, err := errors.ValidateFormat(f, ValidFormats...)
		if err != nil {
			return err
		}
		formats[i] = norm
	}
	return nil
}

// resolveLayout overlays the document options and then the overrides.
func (o Options) resolveLayout(doc *graph.Options) layout.Options {
	return o.Overrides.Apply(doc.Apply(o.Layout))
}

// LayoutKeyOpts returns cache key options for a resolved layout config.
func LayoutKeyOpts(lo layout.Options) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		HorizontalSpacing: lo.HorizontalSpacing,
		VerticalSpacing:   lo.VerticalSpacing,
		StartX:            lo.StartX,
		StartY:            lo.StartY,
		AlignByLayer:      lo.AlignByLayer,
		Orientation:       string(lo.HandleOrientation),
	}
}

// ArtifactKeyOpts returns cache key options for a rendered format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Labels: o.Detailed}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Workflow is the prepared workflow with the layout applied.
	Workflow *workflow.Workflow
	// DocumentHash is the content hash of the prepared workflow.
	DocumentHash string
	// Repaired lists blocks whose dangling parent was cleared.
	Repaired []string
	// DroppedEdges lists edges whose source or target block does not exist.
	DroppedEdges []graph.Edge

	Layout    graph.Layout
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Formats returns the rendered formats, sorted.
func (r *Result) Formats() []string {
	out := make([]string, 0, len(r.Artifacts))
	for f := range r.Artifacts {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BlockCount  int
	EdgeCount   int
	PrepareTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each cached step.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}
