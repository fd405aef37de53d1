// Package nodelink draws a positioned workflow as a node-link diagram.
//
// # Overview
//
// Unlike a classic Graphviz export, the diagram is not laid out by
// Graphviz. [ToDOT] pins every block at the position the layout engine
// computed, and [RenderSVG] draws it with the neato engine, which keeps
// pinned nodes where they are and only routes the edges. The SVG is
// therefore a faithful preview of what the canvas will show.
//
// # Usage
//
//	res := layout.Compute(w.Blocks(), w.Edges(), layout.DefaultOptions())
//	graph.FromResult(res).Apply(w)
//
//	dot := nodelink.ToDOT(w, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Coordinates
//
// Canvas pixels map 1:1 to Graphviz points. Block positions are top-left
// corners on the canvas; DOT positions are node centres with the y axis
// flipped. Nested blocks are resolved to absolute positions through
// [hierarchy.Resolver].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, so no Graphviz installation is needed.
package nodelink
