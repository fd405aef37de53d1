package hierarchy

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// DefaultMaxDepth bounds every parent-chain walk.
const DefaultMaxDepth = 100

// Container fitting constants in canvas pixels.
const (
	// ContainerPadding is added past the children's right/bottom edges.
	ContainerPadding = 120.0
	// NestedContainerPadding replaces ContainerPadding when any child is
	// itself a container.
	NestedContainerPadding = 150.0
	// ContainerMargin is the fixed extra margin on both axes.
	ContainerMargin = 50.0
)

// Lookup resolves a block by ID. It is supplied by the host and must be
// safe to call repeatedly; the resolver never mutates what it returns.
type Lookup func(id string) (workflow.Block, bool)

// Option configures a [Resolver].
type Option func(*Resolver)

// WithMaxDepth overrides [DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for dangling-parent warnings and cycle
// errors. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver answers nesting questions from parent pointers alone.
// All methods are pure with respect to the lookup: nothing is cached, so a
// Resolver sees host mutations made between calls.
type Resolver struct {
	lookup   Lookup
	maxDepth int
	logger   *log.Logger
}

// New creates a resolver over lookup.
func New(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:   lookup,
		maxDepth: DefaultMaxDepth,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForWorkflow is shorthand for New(w.Lookup(), opts...).
func ForWorkflow(w *workflow.Workflow, opts ...Option) *Resolver {
	return New(w.Lookup(), opts...)
}

// parent returns the resolved parent block. A parent ID that does not
// resolve is a dangling reference; it is logged and treated as no parent.
func (r *Resolver) parent(b workflow.Block) (workflow.Block, bool) {
	pid := b.Parent()
	if pid == "" {
		return workflow.Block{}, false
	}
	p, ok := r.lookup(pid)
	if !ok {
		r.logger.Warn("dangling parent reference", "block", b.ID, "parent", pid)
		return workflow.Block{}, false
	}
	return p, true
}

// Depth returns the number of containers enclosing id: 0 for a top-level
// block. Chains longer than the max depth (or cyclic ones, which are
// unbounded) yield 0.
func (r *Resolver) Depth(id string) int {
	b, ok := r.lookup(id)
	if !ok {
		return 0
	}
	depth := 0
	for {
		p, ok := r.parent(b)
		if !ok {
			return depth
		}
		depth++
		if depth > r.maxDepth {
			return 0
		}
		b = p
	}
}

// AncestorPath returns the IDs from the outermost container down to id,
// inclusive. A block without a parent yields [id]. The walk stops at the
// first repeated ID.
func (r *Resolver) AncestorPath(id string) []string {
	b, ok := r.lookup(id)
	if !ok {
		return []string{id}
	}
	path := []string{id}
	seen := map[string]bool{id: true}
	for len(path) <= r.maxDepth {
		p, ok := r.parent(b)
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		path = append(path, p.ID)
		b = p
	}
	slices.Reverse(path)
	return path
}

// AbsolutePosition flattens a block's position through all ancestor
// offsets. On a cyclic parent chain it logs an error and returns the block's
// raw stored position.
func (r *Resolver) AbsolutePosition(id string) workflow.Position {
	b, ok := r.lookup(id)
	if !ok {
		return workflow.Position{}
	}

	pos := b.Position
	visited := map[string]bool{b.ID: true}
	for cur := b; ; {
		p, ok := r.parent(cur)
		if !ok {
			return pos
		}
		if visited[p.ID] || len(visited) > r.maxDepth {
			r.logger.Error("cycle in parent chain", "block", id, "parent", p.ID)
			return b.Position
		}
		visited[p.ID] = true
		pos = pos.Add(p.Position)
		cur = p
	}
}

// RelativePosition returns id's position expressed in newParentID's local
// coordinate space.
func (r *Resolver) RelativePosition(id, newParentID string) workflow.Position {
	return r.AbsolutePosition(id).Sub(r.AbsolutePosition(newParentID))
}
