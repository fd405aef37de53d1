// Package layout computes automatic positions for workflow canvases.
//
// # Overview
//
// A layout run has three stages:
//
//  1. [Classify] assigns every block a layer by longest path from the entry
//     points and splits each layer into groups of blocks that share the
//     same predecessors
//  2. Grouping and spacing decide the cross-axis extent of each layer and
//     the primary-axis distance between consecutive layers
//  3. [Compute] walks the layers, centring each one on the origin, and
//     recurses into container blocks so their children are arranged in the
//     container's local space
//
// # Orientation
//
// Horizontal flow progresses layers left to right and stacks blocks top to
// bottom. Vertical flow swaps the axes. [OrientationAuto] picks whichever
// direction most top-level blocks were drawn with; see [DetectOrientation].
//
// # Usage
//
//	res := layout.Compute(w.Blocks(), w.Edges(), layout.DefaultOptions())
//	for id, p := range res.Positions {
//	    canvas.Move(id, p)
//	}
//
// Compute is pure: it reads only its arguments and returns fresh maps.
// Malformed input never produces an error. Cycles come back on layer 0,
// listed in [Classification.Unresolved], and blocks with dangling parents
// are placed at the top level.
package layout
