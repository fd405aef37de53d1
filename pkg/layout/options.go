package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/hierarchy"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Orientation is the flow direction of a layout.
type Orientation string

// Orientations accepted by [Options.HandleOrientation].
const (
	// OrientationAuto infers the direction from the blocks' stored handle flags.
	OrientationAuto Orientation = "auto"
	// OrientationHorizontal progresses layers left to right, stacking blocks
	// top to bottom inside a layer.
	OrientationHorizontal Orientation = "horizontal"
	// OrientationVertical progresses layers top to bottom, stacking blocks
	// left to right inside a layer.
	OrientationVertical Orientation = "vertical"
)

// Valid reports whether o is one of the known orientations. The empty
// string counts as auto.
func (o Orientation) Valid() bool {
	switch o {
	case "", OrientationAuto, OrientationHorizontal, OrientationVertical:
		return true
	}
	return false
}

// Default option values.
const (
	DefaultHorizontalSpacing = 250.0
	DefaultVerticalSpacing   = 200.0
	DefaultStartX            = 150.0
	DefaultStartY            = 300.0
)

// Options configures a layout run.
type Options struct {
	// HorizontalSpacing is the base gap along the x axis.
	HorizontalSpacing float64 `json:"horizontalSpacing" yaml:"horizontalSpacing" toml:"horizontal_spacing"`
	// VerticalSpacing is the base gap along the y axis.
	VerticalSpacing float64 `json:"verticalSpacing" yaml:"verticalSpacing" toml:"vertical_spacing"`
	// StartX and StartY are the layout origin. The first layer starts on the
	// primary-axis origin, and every layer is centred on the cross-axis origin.
	StartX float64 `json:"startX" yaml:"startX" toml:"start_x"`
	StartY float64 `json:"startY" yaml:"startY" toml:"start_y"`
	// AlignByLayer enables layered placement. When false, blocks are placed
	// in input order along the primary axis.
	AlignByLayer bool `json:"alignByLayer" yaml:"alignByLayer" toml:"align_by_layer"`
	// HandleOrientation selects the flow direction.
	HandleOrientation Orientation `json:"handleOrientation" yaml:"handleOrientation" toml:"handle_orientation"`
}

// DefaultOptions returns the options used by the canvas "auto layout" action.
func DefaultOptions() Options {
	return Options{
		HorizontalSpacing: DefaultHorizontalSpacing,
		VerticalSpacing:   DefaultVerticalSpacing,
		StartX:            DefaultStartX,
		StartY:            DefaultStartY,
		AlignByLayer:      true,
		HandleOrientation: OrientationAuto,
	}
}

// Validate rejects negative spacing and unknown orientations.
func (o Options) Validate() error {
	if o.HorizontalSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "horizontal spacing must not be negative, got %v", o.HorizontalSpacing)
	}
	if o.VerticalSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "vertical spacing must not be negative, got %v", o.VerticalSpacing)
	}
	if !o.HandleOrientation.Valid() {
		return errors.New(errors.ErrCodeInvalidOptions, "unknown orientation %q", o.HandleOrientation)
	}
	return nil
}

// childOptions derives the tighter options used inside a container.
func (o Options) childOptions() Options {
	c := o
	c.HorizontalSpacing = min(o.HorizontalSpacing, ChildMaxHorizontalSpacing)
	c.VerticalSpacing = min(o.VerticalSpacing, ChildMaxVerticalSpacing)
	c.StartX = ChildStartX
	c.StartY = ChildStartY
	return c
}

// Option configures the engine behind [Compute].
type Option func(*engine)

// WithLogger sets the logger for diagnostics (dangling parents, unresolved
// cycles). The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth bounds container recursion. Defaults to
// [hierarchy.DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(e *engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithSizeFunc overrides the stored-size accessor for ordinary blocks, for
// hosts that measure rendered blocks. Containers are always fitted to their
// children.
func WithSizeFunc(fn hierarchy.SizeFunc) Option {
	return func(e *engine) {
		if fn != nil {
			e.baseSize = fn
		}
	}
}

func newEngine(opts []Option) *engine {
	e := &engine{
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		maxDepth: hierarchy.DefaultMaxDepth,
		baseSize: workflow.Dimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
