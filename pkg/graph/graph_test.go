package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/layout"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

const keyedDoc = `{
  "blocks": {
    "zeta":  {"type": "agent", "position": {"x": 1, "y": 2}},
    "alpha": {"type": "starter", "enabled": false},
    "loop":  {"type": "loop", "data": {"width": 600, "height": 400}},
    "child": {"type": "agent", "data": {"parentId": "loop"}}
  },
  "edges": [{"id": "e1", "source": "alpha", "target": "zeta"}],
  "options": {"verticalSpacing": 120, "alignByLayer": false}
}`

func TestParseDocumentKeyedBlocks(t *testing.T) {
	d, err := ParseDocument([]byte(keyedDoc), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	var ids []string
	for _, b := range d.Blocks {
		ids = append(ids, b.ID)
	}
	if got := strings.Join(ids, ","); got != "alpha,child,loop,zeta" {
		t.Errorf("block order = %s, want key order", got)
	}

	w, err := d.ToWorkflow()
	if err != nil {
		t.Fatalf("ToWorkflow: %v", err)
	}
	alpha, _ := w.Block("alpha")
	if alpha.Enabled {
		t.Error("explicit enabled=false lost")
	}
	zeta, _ := w.Block("zeta")
	if !zeta.Enabled || zeta.Position != (workflow.Position{X: 1, Y: 2}) {
		t.Errorf("zeta = %+v", zeta)
	}
	child, _ := w.Block("child")
	if child.Parent() != "loop" {
		t.Errorf("child parent = %q, want loop", child.Parent())
	}

	opts := d.Options.Apply(layout.DefaultOptions())
	if opts.VerticalSpacing != 120 || opts.AlignByLayer || opts.HorizontalSpacing != layout.DefaultHorizontalSpacing {
		t.Errorf("Apply() = %+v", opts)
	}
}

func TestParseDocumentYAML(t *testing.T) {
	src := `
blocks:
  - id: start
    type: starter
  - id: agent
    type: agent
    isWide: true
edges:
  - source: start
    target: agent
`
	d, err := ParseDocument([]byte(src), FormatYAML)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	w, err := d.ToWorkflow()
	if err != nil {
		t.Fatalf("ToWorkflow: %v", err)
	}
	if w.BlockCount() != 2 || w.EdgeCount() != 1 {
		t.Errorf("counts = %d blocks, %d edges", w.BlockCount(), w.EdgeCount())
	}
	if b, _ := w.Block("agent"); !b.IsWide {
		t.Error("isWide not decoded")
	}
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		format Format
		code   errors.Code
	}{
		{"empty", "  ", FormatJSON, errors.ErrCodeInvalidInput},
		{"malformed json", `{"blocks": [`, FormatJSON, errors.ErrCodeInvalidInput},
		{"missing blocks", `{"edges": []}`, FormatJSON, errors.ErrCodeInvalidWorkflow},
		{"block without type", `{"blocks": [{"id": "a"}]}`, FormatJSON, errors.ErrCodeInvalidWorkflow},
		{"edge without target", `{"blocks": [], "edges": [{"source": "a"}]}`, FormatJSON, errors.ErrCodeInvalidWorkflow},
		{"negative spacing", `{"blocks": [], "options": {"horizontalSpacing": -1}}`, FormatJSON, errors.ErrCodeInvalidWorkflow},
		{"unknown orientation", `{"blocks": [], "options": {"handleOrientation": "diagonal"}}`, FormatJSON, errors.ErrCodeInvalidWorkflow},
		{"key id mismatch", `{"blocks": {"a": {"id": "b", "type": "agent"}}}`, FormatJSON, errors.ErrCodeInvalidWorkflow},
		{"bad yaml", "blocks: [unclosed", FormatYAML, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.src), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestToWorkflowErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"duplicate id", Document{Blocks: []Block{{ID: "a", Type: "agent"}, {ID: "a", Type: "agent"}}}},
		{"empty id", Document{Blocks: []Block{{Type: "agent"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.doc.ToWorkflow(); !errors.Is(err, errors.ErrCodeInvalidWorkflow) {
				t.Errorf("ToWorkflow() error = %v, want INVALID_WORKFLOW", err)
			}
		})
	}
}

func TestToWorkflowDropsStaleEdges(t *testing.T) {
	d := Document{
		Blocks: []Block{{ID: "s", Type: "starter"}, {ID: "a", Type: "agent"}},
		Edges: []Edge{
			{Source: "s", Target: "a"},
			{Source: "a", Target: "deleted"},
			{Source: "ghost", Target: "a"},
		},
	}

	w, err := d.ToWorkflow()
	if err != nil {
		t.Fatalf("ToWorkflow() error = %v", err)
	}
	if w.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", w.EdgeCount())
	}

	stale := d.StaleEdges()
	if len(stale) != 2 || stale[0].Target != "deleted" || stale[1].Source != "ghost" {
		t.Errorf("StaleEdges() = %+v", stale)
	}
	if got := (Document{Blocks: d.Blocks, Edges: d.Edges[:1]}).StaleEdges(); got != nil {
		t.Errorf("StaleEdges() on a clean document = %+v", got)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	d, err := ParseDocument([]byte(keyedDoc), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	w, err := d.ToWorkflow()
	if err != nil {
		t.Fatal(err)
	}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := MarshalDocument(FromWorkflow(w), format)
		if err != nil {
			t.Fatalf("%s: MarshalDocument: %v", format, err)
		}
		back, err := ParseDocument(data, format)
		if err != nil {
			t.Fatalf("%s: ParseDocument: %v\n%s", format, err, data)
		}
		w2, err := back.ToWorkflow()
		if err != nil {
			t.Fatalf("%s: ToWorkflow: %v", format, err)
		}
		if w2.BlockCount() != w.BlockCount() || w2.EdgeCount() != w.EdgeCount() {
			t.Errorf("%s: round trip changed counts", format)
		}
		if a, _ := w2.Block("alpha"); a.Enabled {
			t.Errorf("%s: disabled flag lost", format)
		}
	}
}

func TestLayoutFile(t *testing.T) {
	w := workflow.FromSlices([]workflow.Block{
		{ID: "s", Type: workflow.TypeStarter, Enabled: true},
		{ID: "l", Type: workflow.TypeLoop, Enabled: true},
		{ID: "c", Type: "agent", Enabled: true, ParentID: "l"},
	}, []workflow.Edge{{Source: "s", Target: "l"}})
	res := layout.Compute(w.Blocks(), w.Edges(), layout.DefaultOptions())
	l := FromResult(res)

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if got.Orientation != "horizontal" || len(got.Positions) != 3 || len(got.Sizes) != 1 {
		t.Errorf("layout = %+v", got)
	}

	got.Apply(w)
	if b, _ := w.Block("c"); b.Position != res.Positions["c"] {
		t.Errorf("Apply position = %+v, want %+v", b.Position, res.Positions["c"])
	}
	if b, _ := w.Block("l"); b.Data.Width != res.Sizes["l"].Width {
		t.Errorf("Apply size = %v, want %v", b.Data.Width, res.Sizes["l"].Width)
	}

	if _, err := UnmarshalLayout([]byte(`{"orientation": "horizontal"}`)); err == nil {
		t.Error("layout without positions should fail")
	}
}

func TestWriteLayout(t *testing.T) {
	var buf bytes.Buffer
	l := Layout{Orientation: "vertical", Positions: map[string]workflow.Position{"a": {X: 1, Y: 2}}}
	if err := WriteLayout(l, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"orientation": "vertical"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestReadDocumentFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "flow.yml")
	if err := os.WriteFile(yamlPath, []byte("blocks:\n  a:\n    type: agent\n"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := ReadDocumentFile(yamlPath)
	if err != nil {
		t.Fatalf("ReadDocumentFile: %v", err)
	}
	if len(d.Blocks) != 1 || d.Blocks[0].ID != "a" {
		t.Errorf("blocks = %+v", d.Blocks)
	}

	_, err = ReadDocumentFile(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"flow.json": FormatJSON,
		"flow.YAML": FormatYAML,
		"flow.yml":  FormatYAML,
		"flow":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", path, got, want)
		}
	}
}
