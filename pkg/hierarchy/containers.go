package hierarchy

import (
	"cmp"
	"errors"
	"slices"

	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// ErrCyclicParent is returned by [Resolver.Reparent] when the new parent is
// the block itself or one of its descendants.
var ErrCyclicParent = errors.New("new parent would create a containment cycle")

// SizeFunc returns the current size of a block.
type SizeFunc func(workflow.Block) workflow.Size

// FitContainer returns the size a container needs to enclose children.
//
// The bounding box is taken over the children's right and bottom edges in
// the container's local space, then padded (150 when any child is itself a
// container, 120 otherwise) plus a 50px margin. The result never drops
// below the 500×300 container default.
func FitContainer(children []workflow.Block, sizeOf SizeFunc) workflow.Size {
	if len(children) == 0 {
		return workflow.Size{Width: workflow.DefaultContainerWidth, Height: workflow.DefaultContainerHeight}
	}
	if sizeOf == nil {
		sizeOf = workflow.Dimensions
	}
	var maxRight, maxBottom float64
	padding := ContainerPadding
	for _, c := range children {
		s := sizeOf(c)
		maxRight = max(maxRight, c.Position.X+s.Width)
		maxBottom = max(maxBottom, c.Position.Y+s.Height)
		if c.IsContainer() {
			padding = NestedContainerPadding
		}
	}
	return workflow.Size{
		Width:  max(workflow.DefaultContainerWidth, maxRight+padding+ContainerMargin),
		Height: max(workflow.DefaultContainerHeight, maxBottom+padding+ContainerMargin),
	}
}

// ContainerSize fits id to its direct children found in blocks. Nested
// containers count with their fitted size, as in [Resolver.ResizeContainers].
func (r *Resolver) ContainerSize(id string, blocks []workflow.Block) workflow.Size {
	sizes := r.ResizeContainers(blocks, nil)
	if s, ok := sizes[id]; ok {
		return s
	}
	var children []workflow.Block
	for _, b := range blocks {
		if b.Parent() == id {
			children = append(children, b)
		}
	}
	return FitContainer(children, fittedSize(sizes))
}

func fittedSize(sizes map[string]workflow.Size) SizeFunc {
	return func(b workflow.Block) workflow.Size {
		if s, ok := sizes[b.ID]; ok {
			return s
		}
		return workflow.Dimensions(b)
	}
}

// ResizeContainers recomputes the size of every container in blocks and
// reports each through setSize.
//
// Containers are processed innermost first (descending depth), and every
// computed size is used in place of the stored size when fitting the
// enclosing container, so outer containers always see correct inner sizes.
func (r *Resolver) ResizeContainers(blocks []workflow.Block, setSize func(id string, s workflow.Size)) map[string]workflow.Size {
	children := make(map[string][]workflow.Block)
	var containers []workflow.Block
	for _, b := range blocks {
		if pid := b.Parent(); pid != "" {
			children[pid] = append(children[pid], b)
		}
		if b.IsContainer() {
			containers = append(containers, b)
		}
	}

	depths := make(map[string]int, len(containers))
	for _, c := range containers {
		depths[c.ID] = r.Depth(c.ID)
	}
	slices.SortStableFunc(containers, func(a, b workflow.Block) int {
		if d := cmp.Compare(depths[b.ID], depths[a.ID]); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, b.ID)
	})

	sizes := make(map[string]workflow.Size, len(containers))
	sizeOf := fittedSize(sizes)
	for _, c := range containers {
		s := FitContainer(children[c.ID], sizeOf)
		sizes[c.ID] = s
		if setSize != nil {
			setSize(c.ID, s)
		}
	}
	return sizes
}

// Reparent moves id into newParentID (or to the top level when newParentID
// is empty) without changing where it appears on the canvas: the stored
// position is rewritten into the new parent's coordinate space.
func (r *Resolver) Reparent(id, newParentID string, setPosition func(id string, p workflow.Position), setParent func(id, parentID string)) error {
	if newParentID != "" {
		if slices.Contains(r.AncestorPath(newParentID), id) {
			return ErrCyclicParent
		}
	}

	pos := r.AbsolutePosition(id)
	if newParentID != "" {
		pos = r.RelativePosition(id, newParentID)
	}
	if setPosition != nil {
		setPosition(id, pos)
	}
	if setParent != nil {
		setParent(id, newParentID)
	}
	return nil
}

// FindDangling returns the IDs of blocks whose parent is missing or is not
// a container, sorted.
func FindDangling(blocks []workflow.Block) []string {
	byID := make(map[string]workflow.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}
	var out []string
	for _, b := range blocks {
		pid := b.Parent()
		if pid == "" {
			continue
		}
		if p, ok := byID[pid]; !ok || !p.IsContainer() {
			out = append(out, b.ID)
		}
	}
	slices.Sort(out)
	return out
}
