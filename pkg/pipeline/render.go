package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/graph"
	"github.com/matzehuels/canvaslayout/pkg/observability"
	"github.com/matzehuels/canvaslayout/pkg/render/nodelink"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// renderFormat produces one artifact. The layout is applied to a copy of w
// so rendering never depends on whether the caller already applied it.
func (r *Runner) renderFormat(ctx context.Context, w *workflow.Workflow, l graph.Layout, layoutData []byte, format string, opts Options) (data []byte, err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err) }()

	switch format {
	case FormatJSON:
		return layoutData, nil
	case FormatDOT:
		return []byte(toDOT(w, l, opts)), nil
	case FormatSVG:
		svg, err := nodelink.RenderSVG(ctx, toDOT(w, l, opts))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return svg, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
	}
}

func toDOT(w *workflow.Workflow, l graph.Layout, opts Options) string {
	positioned := w.Clone()
	l.Apply(positioned)
	return nodelink.ToDOT(positioned, nodelink.Options{Detailed: opts.Detailed})
}
