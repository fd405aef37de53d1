package pipeline

import (
	"time"

	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/graph"
	"github.com/matzehuels/canvaslayout/pkg/hierarchy"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Load reads a workflow document from path ("-" for stdin).
func Load(path string) (graph.Document, error) {
	return graph.ReadDocumentFile(path)
}

// Prepare converts doc to a workflow and repairs dangling parents.
//
// A block whose parent is missing or is not a container is moved to the
// top level: its parent is cleared and its position replaced by the
// absolute position it had on the canvas. The repaired IDs are returned
// sorted. Edges to blocks that are not in doc are dropped with a warning.
func (r *Runner) Prepare(doc graph.Document) (*workflow.Workflow, []string, error) {
	start := time.Now()
	w, err := doc.ToWorkflow()
	if err != nil {
		return nil, nil, err
	}
	for _, e := range doc.StaleEdges() {
		r.Logger.Warn("dropped edge to unknown block", "source", e.Source, "target", e.Target)
	}

	dangling := hierarchy.FindDangling(w.Blocks())
	if len(dangling) == 0 {
		return w, nil, nil
	}

	res := hierarchy.ForWorkflow(w.Clone(), hierarchy.WithLogger(r.Logger))
	for _, id := range dangling {
		err := res.Reparent(id, "",
			func(id string, p workflow.Position) {
				b, _ := w.Block(id)
				b.Position = p
				w.Update(b)
			},
			func(id, parentID string) {
				b, _ := w.Block(id)
				b.ParentID, b.Data.ParentID = parentID, parentID
				w.Update(b)
			})
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "repair block %s", id)
		}
		r.Logger.Warn("repaired dangling parent", "block", id)
	}
	r.Logger.Debug("prepared workflow",
		"blocks", w.BlockCount(),
		"repaired", len(dangling),
		"duration", time.Since(start))
	return w, dangling, nil
}
