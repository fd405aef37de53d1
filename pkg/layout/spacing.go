package layout

import "github.com/matzehuels/canvaslayout/pkg/workflow"

// Spacing constants in canvas pixels.
const (
	// GroupSpacingRatio scales the cross spacing between blocks of one group.
	GroupSpacingRatio = 0.5
	// TransitionSpacingRatio is the extra cross spacing, as a fraction of the
	// base, where a group moves from one bucket to another.
	TransitionSpacingRatio = 0.3

	// ReferenceWidth and ReferenceHeight are the block extents the base
	// layer spacing is calibrated against, for horizontal and vertical flow.
	ReferenceWidth  = 350.0
	ReferenceHeight = 150.0

	// ConnectionLabelSpace is reserved between layers for edge labels.
	ConnectionLabelSpace = 50.0
	// OrphanLayerBonus is added between layers near the end that hold orphans.
	OrphanLayerBonus = 100.0
	// OrphanLayerWindow is how close to MaxLayer a layer must be to earn the
	// orphan bonus.
	OrphanLayerWindow = 2

	// MinContainerWidth and MinContainerHeight clamp container extents used
	// for spacing.
	MinContainerWidth  = 400.0
	MinContainerHeight = 200.0

	// Child layouts inside containers use capped spacing and a fixed origin.
	ChildMaxHorizontalSpacing = 300.0
	ChildMaxVerticalSpacing   = 150.0
	ChildStartX               = 50.0
	ChildStartY               = 80.0
)

// axes maps primary/cross coordinates onto x/y for one orientation.
type axes struct {
	horizontal bool
	opts       Options
}

func newAxes(o Orientation, opts Options) axes {
	return axes{horizontal: o != OrientationVertical, opts: opts}
}

// primary returns the extent along the layer-progression axis.
func (a axes) primary(s workflow.Size) float64 {
	if a.horizontal {
		return s.Width
	}
	return s.Height
}

// cross returns the extent along the stacking axis.
func (a axes) cross(s workflow.Size) float64 {
	if a.horizontal {
		return s.Height
	}
	return s.Width
}

func (a axes) primarySpacing() float64 {
	if a.horizontal {
		return a.opts.HorizontalSpacing
	}
	return a.opts.VerticalSpacing
}

func (a axes) crossSpacing() float64 {
	if a.horizontal {
		return a.opts.VerticalSpacing
	}
	return a.opts.HorizontalSpacing
}

func (a axes) primaryOrigin() float64 {
	if a.horizontal {
		return a.opts.StartX
	}
	return a.opts.StartY
}

func (a axes) crossOrigin() float64 {
	if a.horizontal {
		return a.opts.StartY
	}
	return a.opts.StartX
}

func (a axes) reference() float64 {
	if a.horizontal {
		return ReferenceWidth
	}
	return ReferenceHeight
}

func (a axes) point(primary, cross float64) workflow.Position {
	if a.horizontal {
		return workflow.Position{X: primary, Y: cross}
	}
	return workflow.Position{X: cross, Y: primary}
}

// blockGap is the cross spacing between two adjacent blocks of one group.
func (a axes) blockGap(c *Classification, prev, next string) float64 {
	s := a.crossSpacing()
	gap := s * GroupSpacingRatio
	if c.Bucket(prev) != c.Bucket(next) {
		gap += s * TransitionSpacingRatio
	}
	return gap
}

// groupExtent is the cross extent of one sorted group.
func (a axes) groupExtent(c *Classification, group []string, size func(string) workflow.Size) float64 {
	var total float64
	for i, id := range group {
		if i > 0 {
			total += a.blockGap(c, group[i-1], id)
		}
		total += a.cross(size(id))
	}
	return total
}

// layerExtent is the cross extent of a whole layer, groups separated by
// the full cross spacing.
func (a axes) layerExtent(c *Classification, groups [][]string, size func(string) workflow.Size) float64 {
	var total float64
	for i, g := range groups {
		if i > 0 {
			total += a.crossSpacing()
		}
		total += a.groupExtent(c, g, size)
	}
	return total
}

// layerSpacing is the primary-axis distance from layer cur to layer next.
// It grows with the widest block of either layer past the reference extent,
// always reserves room for connection labels, and adds a bonus when either
// layer sits near the end and holds orphans.
func (a axes) layerSpacing(c *Classification, cur, next int, size func(string) workflow.Size) float64 {
	var maxDim float64
	hasOrphans := false
	for _, l := range [...]int{cur, next} {
		for _, g := range c.Groups[l] {
			for _, id := range g {
				maxDim = max(maxDim, a.primary(size(id)))
				if c.Orphaned[id] && c.MaxLayer-l <= OrphanLayerWindow {
					hasOrphans = true
				}
			}
		}
	}

	ref := a.reference()
	spacing := ref + a.primarySpacing() + max(0, maxDim-ref) + ConnectionLabelSpace
	if hasOrphans {
		spacing += OrphanLayerBonus
	}
	return spacing
}
