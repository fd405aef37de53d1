package graph

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/layout"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// =============================================================================
// Document - Workflow Canvas Serialization
// =============================================================================

// Document is the serialization format for workflow canvases accepted by
// the CLI and the layout server.
//
// Blocks may be given either as an array or as an object keyed by block ID
// (the shape canvas stores persist). Object form is read in key order so
// decoding is deterministic.
type Document struct {
	Blocks  []Block  `json:"blocks" yaml:"blocks"`
	Edges   []Edge   `json:"edges,omitempty" yaml:"edges,omitempty"`
	Options *Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// Block is the wire form of [workflow.Block]. Enabled is a pointer so that
// omitting it means enabled.
type Block struct {
	ID                string            `json:"id,omitempty" yaml:"id,omitempty"`
	Type              string            `json:"type" yaml:"type"`
	Category          string            `json:"category,omitempty" yaml:"category,omitempty"`
	Enabled           *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Position          workflow.Position `json:"position" yaml:"position"`
	ParentID          string            `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Data              workflow.Data     `json:"data,omitempty" yaml:"data,omitempty"`
	IsWide            bool              `json:"isWide,omitempty" yaml:"isWide,omitempty"`
	HorizontalHandles *bool             `json:"horizontalHandles,omitempty" yaml:"horizontalHandles,omitempty"`
}

// Edge is the wire form of [workflow.Edge].
type Edge = workflow.Edge

// Options are per-document layout overrides. Nil fields keep the caller's
// value.
type Options struct {
	HorizontalSpacing *float64 `json:"horizontalSpacing,omitempty" yaml:"horizontalSpacing,omitempty"`
	VerticalSpacing   *float64 `json:"verticalSpacing,omitempty" yaml:"verticalSpacing,omitempty"`
	StartX            *float64 `json:"startX,omitempty" yaml:"startX,omitempty"`
	StartY            *float64 `json:"startY,omitempty" yaml:"startY,omitempty"`
	AlignByLayer      *bool    `json:"alignByLayer,omitempty" yaml:"alignByLayer,omitempty"`
	HandleOrientation string   `json:"handleOrientation,omitempty" yaml:"handleOrientation,omitempty"`
}

// Apply overlays the set fields onto base.
func (o *Options) Apply(base layout.Options) layout.Options {
	if o == nil {
		return base
	}
	if o.HorizontalSpacing != nil {
		base.HorizontalSpacing = *o.HorizontalSpacing
	}
	if o.VerticalSpacing != nil {
		base.VerticalSpacing = *o.VerticalSpacing
	}
	if o.StartX != nil {
		base.StartX = *o.StartX
	}
	if o.StartY != nil {
		base.StartY = *o.StartY
	}
	if o.AlignByLayer != nil {
		base.AlignByLayer = *o.AlignByLayer
	}
	if o.HandleOrientation != "" {
		base.HandleOrientation = layout.Orientation(o.HandleOrientation)
	}
	return base
}

// UnmarshalJSON accepts blocks as an array or as an ID-keyed object.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Blocks  json.RawMessage `json:"blocks"`
		Edges   []Edge          `json:"edges"`
		Options *Options        `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Edges = raw.Edges
	d.Options = raw.Options
	d.Blocks = nil

	trimmed := bytes.TrimSpace(raw.Blocks)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return nil
	case trimmed[0] == '[':
		return json.Unmarshal(trimmed, &d.Blocks)
	default:
		var keyed map[string]Block
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return err
		}
		for _, key := range slices.Sorted(maps.Keys(keyed)) {
			b := keyed[key]
			if b.ID == "" {
				b.ID = key
			} else if b.ID != key {
				return errors.New(errors.ErrCodeInvalidWorkflow, "block keyed %q has id %q", key, b.ID)
			}
			d.Blocks = append(d.Blocks, b)
		}
		return nil
	}
}

// ToBlock converts the wire form to a [workflow.Block].
func (b Block) ToBlock() workflow.Block {
	enabled := true
	if b.Enabled != nil {
		enabled = *b.Enabled
	}
	return workflow.Block{
		ID:                b.ID,
		Type:              b.Type,
		Category:          b.Category,
		Enabled:           enabled,
		Position:          b.Position,
		ParentID:          b.ParentID,
		Data:              b.Data,
		IsWide:            b.IsWide,
		HorizontalHandles: b.HorizontalHandles,
	}
}

// FromBlock converts a [workflow.Block] to its wire form.
func FromBlock(b workflow.Block) Block {
	enabled := b.Enabled
	return Block{
		ID:                b.ID,
		Type:              b.Type,
		Category:          b.Category,
		Enabled:           &enabled,
		Position:          b.Position,
		ParentID:          b.ParentID,
		Data:              b.Data,
		IsWide:            b.IsWide,
		HorizontalHandles: b.HorizontalHandles,
	}
}

// ToWorkflow builds a validated workflow. Duplicate or malformed block IDs
// are rejected. Edges to unknown blocks are left out, see [Document.StaleEdges].
func (d Document) ToWorkflow() (*workflow.Workflow, error) {
	w := workflow.New()
	for i, wb := range d.Blocks {
		if err := errors.ValidateBlockID(wb.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "block %d", i)
		}
		if err := w.AddBlock(wb.ToBlock()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "block %s", wb.ID)
		}
	}
	for _, e := range d.Edges {
		_ = w.AddEdge(e) // only unknown endpoints fail, and those edges are stale
	}
	return w, nil
}

// StaleEdges returns the edges whose source or target is not a block of d,
// in document order. Canvas exports keep these after a block is deleted.
func (d Document) StaleEdges() []Edge {
	ids := make(map[string]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		ids[b.ID] = true
	}
	var out []Edge
	for _, e := range d.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// FromWorkflow converts a workflow to a document in array form.
func FromWorkflow(w *workflow.Workflow) Document {
	blocks := w.Blocks()
	d := Document{
		Blocks: make([]Block, len(blocks)),
		Edges:  w.Edges(),
	}
	for i, b := range blocks {
		d.Blocks[i] = FromBlock(b)
	}
	return d
}

// =============================================================================
// Layout - Computed Positions
// =============================================================================

// Layout is the serialization format for a computed layout.
type Layout struct {
	Orientation string                       `json:"orientation" yaml:"orientation"`
	Positions   map[string]workflow.Position `json:"positions" yaml:"positions"`
	Sizes       map[string]workflow.Size     `json:"sizes,omitempty" yaml:"sizes,omitempty"`
	Layers      map[string]int               `json:"layers,omitempty" yaml:"layers,omitempty"`
	Unresolved  []string                     `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

// FromResult converts a layout result to its serialization form.
func FromResult(res layout.Result) Layout {
	l := Layout{
		Orientation: string(res.Orientation),
		Positions:   maps.Clone(map[string]workflow.Position(res.Positions)),
		Layers:      maps.Clone(res.Classification.Layers),
		Unresolved:  slices.Clone(res.Classification.Unresolved),
	}
	if len(res.Sizes) > 0 {
		l.Sizes = maps.Clone(res.Sizes)
	}
	if l.Positions == nil {
		l.Positions = map[string]workflow.Position{}
	}
	return l
}

// Apply writes the positions and sizes into w.
func (l Layout) Apply(w *workflow.Workflow) {
	for _, b := range w.Blocks() {
		if p, ok := l.Positions[b.ID]; ok {
			b.Position = p
		}
		if s, ok := l.Sizes[b.ID]; ok {
			b.Data.Width, b.Data.Height = s.Width, s.Height
		}
		w.Update(b)
	}
}
