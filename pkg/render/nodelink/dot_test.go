package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

func testWorkflow() *workflow.Workflow {
	return workflow.FromSlices([]workflow.Block{
		{ID: "start", Type: workflow.TypeStarter, Enabled: true, Position: workflow.Position{X: 150, Y: 300}},
		{ID: "agent", Type: "agent", Enabled: true, Position: workflow.Position{X: 800, Y: 300}},
	}, []workflow.Edge{{Source: "start", Target: "agent"}})
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testWorkflow(), Options{})

	for _, want := range []string{
		"digraph workflow {",
		`"start" [label="start", pos="325,50!", width=4.861, height=1.389]`,
		`"agent" [label="agent", pos="975,50!", width=4.861, height=1.389]`,
		`"start" -> "agent";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testWorkflow(), Options{Detailed: true})
	if !strings.Contains(dot, `label="agent\nagent"`) {
		t.Errorf("detailed label missing type:\n%s", dot)
	}
}

func TestToDOTNested(t *testing.T) {
	w := workflow.FromSlices([]workflow.Block{
		{ID: "child", Type: "agent", Enabled: true, ParentID: "loop", Position: workflow.Position{X: 50, Y: 80}},
		{ID: "loop", Type: workflow.TypeLoop, Enabled: true, Position: workflow.Position{X: 100, Y: 100},
			Data: workflow.Data{Width: 600, Height: 400}},
		{ID: "off", Type: "api", Position: workflow.Position{X: 900, Y: 100}},
	}, []workflow.Edge{{Source: "loop", Target: "child", SourceHandle: workflow.HandleLoopStart}})
	dot := ToDOT(w, Options{})

	loop := strings.Index(dot, `"loop" [`)
	child := strings.Index(dot, `"child" [`)
	if loop < 0 || child < 0 || loop > child {
		t.Fatalf("container should be emitted before its children:\n%s", dot)
	}
	// child centre: (100+50+175, 100+80+50) = (325, 230); bottom edge is 500.
	if !strings.Contains(dot, `pos="325,270!"`) {
		t.Errorf("nested block not resolved to absolute position:\n%s", dot)
	}
	if !strings.Contains(dot, `style="rounded,dashed"`) {
		t.Error("container should be dashed")
	}
	if !strings.Contains(dot, "fillcolor=lightgrey") {
		t.Error("disabled block should be greyed out")
	}
	if !strings.Contains(dot, `"loop" -> "child" [style=dashed];`) {
		t.Error("container start edge should be dashed")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testWorkflow(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("svg tag not normalized:\n%.300s", s)
	}
	if !strings.Contains(s, "agent") {
		t.Error("svg should contain node labels")
	}
}

func TestRenderSVGInvalid(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("expected parse error")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
	if plain := []byte("<svg><g/></svg>"); string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
