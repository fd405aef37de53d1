package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/canvaslayout/pkg/hierarchy"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// PointsPerInch converts canvas pixels (rendered 1:1 as points) to the
// inch units Graphviz uses for node sizes.
const PointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the block type under the ID in each label.
	Detailed bool
}

type placed struct {
	block  workflow.Block
	depth  int
	center workflow.Position
	size   workflow.Size
}

// ToDOT converts a positioned workflow to Graphviz DOT. Every node is
// pinned at its canvas position (pos="x,y!"), so the neato engine draws
// the layout as computed rather than re-laying it out.
//
// Containers are drawn before their children with a dashed outline;
// disabled blocks are greyed out.
func ToDOT(w *workflow.Workflow, opts Options) string {
	nodes := place(w)

	var bottom float64
	for _, n := range nodes {
		bottom = max(bottom, n.center.Y+n.size.Height/2)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph workflow {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		attrs := fmtAttrs(n, fmtLabel(n.block, opts.Detailed), bottom)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.block.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range w.Edges() {
		if e.IsContainerStart() {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// place resolves absolute node centres, outermost containers first.
func place(w *workflow.Workflow) []placed {
	r := hierarchy.ForWorkflow(w)
	blocks := w.Blocks()
	out := make([]placed, 0, len(blocks))
	for _, b := range blocks {
		abs := r.AbsolutePosition(b.ID)
		size := workflow.Dimensions(b)
		out = append(out, placed{
			block:  b,
			depth:  r.Depth(b.ID),
			center: workflow.Position{X: abs.X + size.Width/2, Y: abs.Y + size.Height/2},
			size:   size,
		})
	}
	slices.SortStableFunc(out, func(a, b placed) int {
		return cmp.Or(cmp.Compare(a.depth, b.depth), cmp.Compare(a.block.ID, b.block.ID))
	})
	return out
}

func fmtLabel(b workflow.Block, detailed bool) string {
	if !detailed || b.Type == "" {
		return b.ID
	}
	return b.ID + "\n" + b.Type
}

// fmtAttrs flips the y axis: the canvas grows downwards, Graphviz upwards.
func fmtAttrs(n placed, label string, bottom float64) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%s,%s!\"", num(n.center.X), num(bottom-n.center.Y)),
		fmt.Sprintf("width=%.3f", n.size.Width/PointsPerInch),
		fmt.Sprintf("height=%.3f", n.size.Height/PointsPerInch),
	}
	switch {
	case n.block.IsContainer():
		attrs = append(attrs, "style=\"rounded,dashed\"", "labelloc=t")
	case !n.block.Enabled:
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=grey40")
	}
	return attrs
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// RenderSVG renders DOT produced by [ToDOT] to SVG with the neato engine,
// which honours pinned node positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg tag with a pixel-sized
// one so browsers scale the drawing to the canvas.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
