// Package workflow defines the canvas data model consumed by the layout core.
//
// A [Workflow] is an ordered collection of [Block] and [Edge] records, the
// same shape the canvas host keeps in its store. Blocks may be nested inside
// container blocks (loop and parallel); a nested block's [Position] is
// relative to its parent, every other position is global.
//
// # Block Classes
//
// Three predicates drive the layout:
//
//   - [Block.IsContainer]: loop and parallel blocks hold children
//   - [Block.IsEntryPoint]: starter and trigger-category blocks anchor layer 0
//   - [Block.Parent]: the containing block, if any
//
// [Dimensions] gives the stored size of any block.
//
// # Example
//
//	w := workflow.New()
//	_ = w.AddBlock(workflow.Block{ID: "start", Type: workflow.TypeStarter, Enabled: true})
//	_ = w.AddBlock(workflow.Block{ID: "agent", Type: "agent", Enabled: true})
//	_ = w.AddEdge(workflow.Edge{Source: "start", Target: "agent"})
package workflow
