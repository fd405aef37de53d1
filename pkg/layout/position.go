package layout

import (
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvaslayout/pkg/hierarchy"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Positions maps block IDs to positions. Positions of nested blocks are
// relative to their container.
type Positions map[string]workflow.Position

// Result is the output of [Compute].
type Result struct {
	Positions Positions
	// Sizes holds the fitted size of every laid-out container.
	Sizes map[string]workflow.Size
	// Orientation is the resolved flow direction.
	Orientation Orientation
	// Classification is the analysis of the top-level sibling set.
	Classification Classification
}

type engine struct {
	logger   *log.Logger
	maxDepth int
	baseSize hierarchy.SizeFunc

	children map[string][]workflow.Block
	edges    []workflow.Edge
	sizes    map[string]workflow.Size
	visiting map[string]bool
}

// Compute returns positions for blocks.
//
// Top-level blocks (no parent, or a parent that does not resolve to a
// container) are laid out around (StartX, StartY). Every container's direct
// children are laid out with the same algorithm in the container's local
// space, innermost containers first, so each parent is spaced with its
// children's fitted sizes. Compute never fails: cycles fall back to layer 0
// and malformed nesting degrades to top-level placement.
func Compute(blocks []workflow.Block, edges []workflow.Edge, opts Options, extra ...Option) Result {
	e := newEngine(extra)
	res := Result{
		Positions: make(Positions, len(blocks)),
		Sizes:     make(map[string]workflow.Size),
	}
	if len(blocks) == 0 {
		res.Orientation = resolveOrientation(opts.HandleOrientation, nil)
		return res
	}

	byID := make(map[string]workflow.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}
	e.children = make(map[string][]workflow.Block)
	e.edges = edges
	e.sizes = res.Sizes
	e.visiting = make(map[string]bool)

	var top []workflow.Block
	for _, b := range blocks {
		pid := b.Parent()
		if pid == "" {
			top = append(top, b)
			continue
		}
		if p, ok := byID[pid]; !ok || !p.IsContainer() {
			e.logger.Warn("dangling parent reference, placing at top level", "block", b.ID, "parent", pid)
			top = append(top, b)
			continue
		}
		e.children[pid] = append(e.children[pid], b)
	}

	top = e.promoteUnreachable(blocks, top)
	res.Orientation = resolveOrientation(opts.HandleOrientation, top)

	for _, b := range top {
		if b.IsContainer() {
			e.layoutContainer(b, 0, opts.childOptions(), res.Orientation, res.Positions)
		}
	}

	pos, c := e.place(top, opts, res.Orientation)
	maps.Copy(res.Positions, pos)
	res.Classification = c

	if len(c.Unresolved) > 0 {
		e.logger.Debug("blocks not reached by layering", "blocks", c.Unresolved)
	}
	return res
}

// promoteUnreachable moves blocks caught in a parent cycle to the top
// level. One member per cycle is detached from its parent, which makes the
// rest of the cycle reachable through it.
func (e *engine) promoteUnreachable(blocks []workflow.Block, top []workflow.Block) []workflow.Block {
	reached := make(map[string]bool, len(blocks))
	var mark func(id string)
	mark = func(id string) {
		if reached[id] {
			return
		}
		reached[id] = true
		for _, c := range e.children[id] {
			mark(c.ID)
		}
	}
	for _, b := range top {
		mark(b.ID)
	}
	for _, b := range blocks {
		if reached[b.ID] {
			continue
		}
		e.logger.Error("cycle in parent chain, placing at top level", "block", b.ID, "parent", b.Parent())
		pid := b.Parent()
		e.children[pid] = slices.DeleteFunc(e.children[pid], func(c workflow.Block) bool { return c.ID == b.ID })
		top = append(top, b)
		mark(b.ID)
	}
	return top
}

// layoutContainer positions c's children (recursing into nested containers
// first) and records c's fitted size.
func (e *engine) layoutContainer(c workflow.Block, depth int, opts Options, o Orientation, out Positions) {
	if e.visiting[c.ID] || depth >= e.maxDepth {
		e.logger.Error("container recursion stopped", "container", c.ID, "depth", depth)
		return
	}
	e.visiting[c.ID] = true
	defer delete(e.visiting, c.ID)

	children := e.children[c.ID]
	if len(children) == 0 {
		return
	}
	for _, child := range children {
		if child.IsContainer() {
			e.layoutContainer(child, depth+1, opts, o, out)
		}
	}

	pos, _ := e.place(children, opts, o)
	placed := make([]workflow.Block, 0, len(children))
	for _, child := range children {
		child.Position = pos[child.ID]
		out[child.ID] = child.Position
		placed = append(placed, child)
	}
	e.sizes[c.ID] = hierarchy.FitContainer(placed, e.sizeOf)
}

// sizeOf is the stored size, or the fitted size for containers already
// laid out.
func (e *engine) sizeOf(b workflow.Block) workflow.Size {
	if s, ok := e.sizes[b.ID]; ok {
		return s
	}
	return e.baseSize(b)
}

// spacingSize is the size used for spacing, with containers clamped to the
// container minimum.
func (e *engine) spacingSize(b workflow.Block) workflow.Size {
	s := e.sizeOf(b)
	if b.IsContainer() {
		s.Width = max(s.Width, MinContainerWidth)
		s.Height = max(s.Height, MinContainerHeight)
	}
	return s
}

// place lays out one sibling set.
func (e *engine) place(blocks []workflow.Block, opts Options, o Orientation) (Positions, Classification) {
	ax := newAxes(o, opts)
	out := make(Positions, len(blocks))

	byID := make(map[string]workflow.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}
	size := func(id string) workflow.Size { return e.spacingSize(byID[id]) }

	c := Classify(blocks, e.edges)
	if !opts.AlignByLayer {
		placeSequential(ax, blocks, size, out)
		return out, c
	}

	cursor := ax.primaryOrigin()
	layers := c.LayerIDs()
	for i, l := range layers {
		groups := c.Groups[l]
		slot := ax.crossOrigin() - ax.layerExtent(&c, groups, size)/2
		for gi, g := range groups {
			if gi > 0 {
				slot += ax.crossSpacing()
			}
			for ni, id := range g {
				if ni > 0 {
					slot += ax.blockGap(&c, g[ni-1], id)
				}
				d := ax.cross(size(id))
				out[id] = ax.point(cursor, slot+d/2)
				slot += d
			}
		}
		if i+1 < len(layers) {
			cursor += ax.layerSpacing(&c, l, layers[i+1], size)
		}
	}
	return out, c
}

// placeSequential places blocks in input order along the primary axis.
func placeSequential(ax axes, blocks []workflow.Block, size func(string) workflow.Size, out Positions) {
	cursor := ax.primaryOrigin()
	seen := make(map[string]bool, len(blocks))
	var prev string
	for _, b := range blocks {
		if seen[b.ID] {
			continue
		}
		if len(seen) > 0 {
			cursor += max(ax.primary(size(prev)), ax.primary(size(b.ID))) + ax.primarySpacing()*GroupSpacingRatio
		}
		out[b.ID] = ax.point(cursor, ax.crossOrigin())
		seen[b.ID] = true
		prev = b.ID
	}
}

// IDs returns the position keys, sorted.
func (p Positions) IDs() []string {
	return slices.Sorted(maps.Keys(p))
}
