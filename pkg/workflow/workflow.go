package workflow

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidBlockID is returned by [Workflow.AddBlock] when the block ID is empty.
	ErrInvalidBlockID = errors.New("block ID must not be empty")

	// ErrDuplicateBlockID is returned by [Workflow.AddBlock] when a block with the
	// same ID already exists.
	ErrDuplicateBlockID = errors.New("duplicate block ID")

	// ErrUnknownSourceBlock is returned by [Workflow.AddEdge] when the source
	// block does not exist.
	ErrUnknownSourceBlock = errors.New("unknown source block")

	// ErrUnknownTargetBlock is returned by [Workflow.AddEdge] when the target
	// block does not exist.
	ErrUnknownTargetBlock = errors.New("unknown target block")
)

// Block types with layout significance. Every other type string is an
// ordinary block.
const (
	TypeStarter  = "starter"
	TypeLoop     = "loop"
	TypeParallel = "parallel"
)

// CategoryTriggers marks block types that start a workflow on an external
// event (webhooks, schedules, chat). Trigger blocks anchor layer 0.
const CategoryTriggers = "triggers"

// Start handles connect a container to the first block inside it.
const (
	HandleLoopStart     = "loop-start-source"
	HandleParallelStart = "parallel-start-source"
)

// Position is a point on the canvas. Top-level blocks use the global
// coordinate space; nested blocks are relative to their parent container.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by q.
func (p Position) Add(q Position) Position { return Position{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p translated by -q.
func (p Position) Sub(q Position) Position { return Position{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is a width/height pair in canvas pixels.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Data holds the optional, UI-populated attributes of a block.
type Data struct {
	Width    float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64 `json:"height,omitempty" yaml:"height,omitempty"`
	ParentID string  `json:"parentId,omitempty" yaml:"parentId,omitempty"`
}

// Block is a single node of the workflow canvas.
type Block struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	Position Position `json:"position" yaml:"position"`
	ParentID string   `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Data     Data     `json:"data,omitempty" yaml:"data,omitempty"`

	// IsWide selects the wide block variant.
	IsWide bool `json:"isWide,omitempty" yaml:"isWide,omitempty"`
	// HorizontalHandles is the stored handle orientation. Nil means the block
	// was never annotated and does not take part in orientation voting.
	HorizontalHandles *bool `json:"horizontalHandles,omitempty" yaml:"horizontalHandles,omitempty"`
}

// Parent returns the containing block ID, falling back to the legacy
// Data.ParentID field.
func (b Block) Parent() string {
	if b.ParentID != "" {
		return b.ParentID
	}
	return b.Data.ParentID
}

// IsContainer reports whether the block can hold child blocks.
func (b Block) IsContainer() bool { return IsContainerType(b.Type) }

// IsEntryPoint reports whether the block anchors layer 0 regardless of edges.
func (b Block) IsEntryPoint() bool {
	return b.Type == TypeStarter || b.Category == CategoryTriggers
}

// IsContainerType reports whether t is a loop or parallel block type.
func IsContainerType(t string) bool { return t == TypeLoop || t == TypeParallel }

// Edge connects the output handle of one block to the input of another.
type Edge struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// IsContainerStart reports whether the edge leaves a container's internal
// start handle.
func (e Edge) IsContainerStart() bool {
	return e.SourceHandle == HandleLoopStart || e.SourceHandle == HandleParallelStart
}

// Workflow is an ordered snapshot of blocks and edges. Insertion order is
// preserved because the non-layered layout places blocks in input order.
//
// The zero value is not usable - use New.
type Workflow struct {
	blocks []Block
	index  map[string]int
	edges  []Edge
}

// New creates an empty workflow.
func New() *Workflow {
	return &Workflow{index: make(map[string]int)}
}

// FromSlices builds a workflow from blocks and edges, silently dropping
// duplicate blocks and edges with unknown endpoints.
func FromSlices(blocks []Block, edges []Edge) *Workflow {
	w := New()
	for _, b := range blocks {
		_ = w.AddBlock(b)
	}
	for _, e := range edges {
		_ = w.AddEdge(e)
	}
	return w
}

// AddBlock appends a block.
func (w *Workflow) AddBlock(b Block) error {
	if b.ID == "" {
		return ErrInvalidBlockID
	}
	if _, exists := w.index[b.ID]; exists {
		return ErrDuplicateBlockID
	}
	w.index[b.ID] = len(w.blocks)
	w.blocks = append(w.blocks, b)
	return nil
}

// AddEdge appends an edge between two existing blocks.
func (w *Workflow) AddEdge(e Edge) error {
	if _, ok := w.index[e.Source]; !ok {
		return ErrUnknownSourceBlock
	}
	if _, ok := w.index[e.Target]; !ok {
		return ErrUnknownTargetBlock
	}
	w.edges = append(w.edges, e)
	return nil
}

// Block returns the block with the given ID.
func (w *Workflow) Block(id string) (Block, bool) {
	i, ok := w.index[id]
	if !ok {
		return Block{}, false
	}
	return w.blocks[i], true
}

// Lookup returns [Workflow.Block] as a function value for the hierarchy
// resolver.
func (w *Workflow) Lookup() func(id string) (Block, bool) { return w.Block }

// Update replaces the stored block with the same ID. Unknown IDs are ignored.
func (w *Workflow) Update(b Block) {
	if i, ok := w.index[b.ID]; ok {
		w.blocks[i] = b
	}
}

// Blocks returns a copy of all blocks in insertion order.
func (w *Workflow) Blocks() []Block { return slices.Clone(w.blocks) }

// Edges returns a copy of all edges in insertion order.
func (w *Workflow) Edges() []Edge { return slices.Clone(w.edges) }

// BlockCount returns the number of blocks.
func (w *Workflow) BlockCount() int { return len(w.blocks) }

// EdgeCount returns the number of edges.
func (w *Workflow) EdgeCount() int { return len(w.edges) }

// Children returns the blocks whose parent is id, in insertion order.
func (w *Workflow) Children(id string) []Block {
	var out []Block
	for _, b := range w.blocks {
		if b.Parent() == id {
			out = append(out, b)
		}
	}
	return out
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	c := &Workflow{
		blocks: make([]Block, len(w.blocks)),
		index:  make(map[string]int, len(w.index)),
		edges:  slices.Clone(w.edges),
	}
	for i, b := range w.blocks {
		if b.HorizontalHandles != nil {
			v := *b.HorizontalHandles
			b.HorizontalHandles = &v
		}
		c.blocks[i] = b
		c.index[b.ID] = i
	}
	return c
}
