package hierarchy

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

func nested() *workflow.Workflow {
	return workflow.FromSlices([]workflow.Block{
		{ID: "outer", Type: workflow.TypeLoop, Position: workflow.Position{X: 100, Y: 200}},
		{ID: "inner", Type: workflow.TypeParallel, ParentID: "outer", Position: workflow.Position{X: 50, Y: 80}},
		{ID: "leaf", Type: "agent", ParentID: "inner", Position: workflow.Position{X: 10, Y: 20}},
		{ID: "top", Type: "agent", Position: workflow.Position{X: 900, Y: 40}},
	}, nil)
}

func TestDepth(t *testing.T) {
	r := ForWorkflow(nested())
	tests := []struct {
		id   string
		want int
	}{
		{"outer", 0},
		{"inner", 1},
		{"leaf", 2},
		{"top", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := r.Depth(tt.id); got != tt.want {
				t.Errorf("Depth(%s) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestDepthGuard(t *testing.T) {
	var blocks []workflow.Block
	for i := 0; i < 10; i++ {
		b := workflow.Block{ID: fmt.Sprintf("n%d", i), Type: workflow.TypeLoop}
		if i > 0 {
			b.ParentID = fmt.Sprintf("n%d", i-1)
		}
		blocks = append(blocks, b)
	}
	w := workflow.FromSlices(blocks, nil)

	if got := ForWorkflow(w).Depth("n9"); got != 9 {
		t.Errorf("Depth(n9) = %d, want 9", got)
	}
	if got := ForWorkflow(w, WithMaxDepth(5)).Depth("n9"); got != 0 {
		t.Errorf("Depth past guard = %d, want 0", got)
	}
}

func TestAncestorPath(t *testing.T) {
	r := ForWorkflow(nested())
	if got, want := r.AncestorPath("leaf"), []string{"outer", "inner", "leaf"}; !slices.Equal(got, want) {
		t.Errorf("AncestorPath(leaf) = %v, want %v", got, want)
	}
	if got, want := r.AncestorPath("top"), []string{"top"}; !slices.Equal(got, want) {
		t.Errorf("AncestorPath(top) = %v, want %v", got, want)
	}
}

func TestAbsolutePosition(t *testing.T) {
	w := nested()
	r := ForWorkflow(w)

	tests := []struct {
		id   string
		want workflow.Position
	}{
		{"outer", workflow.Position{X: 100, Y: 200}},
		{"inner", workflow.Position{X: 150, Y: 280}},
		{"leaf", workflow.Position{X: 160, Y: 300}},
		{"top", workflow.Position{X: 900, Y: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := r.AbsolutePosition(tt.id); got != tt.want {
				t.Errorf("AbsolutePosition(%s) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}

	// abs(node) == abs(parent) + node.position
	for _, b := range w.Blocks() {
		if b.Parent() == "" {
			continue
		}
		want := r.AbsolutePosition(b.Parent()).Add(b.Position)
		if got := r.AbsolutePosition(b.ID); got != want {
			t.Errorf("AbsolutePosition(%s) = %+v, want parent+offset %+v", b.ID, got, want)
		}
	}
}

func TestAbsolutePositionCycle(t *testing.T) {
	w := workflow.FromSlices([]workflow.Block{
		{ID: "A", Type: workflow.TypeLoop, ParentID: "C", Position: workflow.Position{X: 1, Y: 2}},
		{ID: "B", Type: workflow.TypeLoop, ParentID: "A", Position: workflow.Position{X: 3, Y: 4}},
		{ID: "C", Type: workflow.TypeLoop, ParentID: "B", Position: workflow.Position{X: 5, Y: 6}},
	}, nil)

	var buf bytes.Buffer
	r := ForWorkflow(w, WithLogger(log.New(&buf)))

	for _, b := range w.Blocks() {
		if got := r.AbsolutePosition(b.ID); got != b.Position {
			t.Errorf("AbsolutePosition(%s) = %+v, want raw %+v", b.ID, got, b.Position)
		}
	}
	if !strings.Contains(buf.String(), "cycle") {
		t.Errorf("expected cycle error to be logged, got %q", buf.String())
	}
	if got := r.Depth("A"); got != 0 {
		t.Errorf("Depth on cycle = %d, want 0", got)
	}
	if got := r.AncestorPath("A"); len(got) != 3 {
		t.Errorf("AncestorPath on cycle = %v, want 3 distinct entries", got)
	}
}

func TestDanglingParentLogged(t *testing.T) {
	w := workflow.FromSlices([]workflow.Block{
		{ID: "orphan", Type: "agent", ParentID: "gone", Position: workflow.Position{X: 7, Y: 8}},
	}, nil)
	var buf bytes.Buffer
	r := ForWorkflow(w, WithLogger(log.New(&buf)))

	if got := r.AbsolutePosition("orphan"); got != (workflow.Position{X: 7, Y: 8}) {
		t.Errorf("AbsolutePosition = %+v, want stored position", got)
	}
	if !strings.Contains(buf.String(), "dangling") {
		t.Errorf("expected dangling warning, got %q", buf.String())
	}
}

func TestRelativePosition(t *testing.T) {
	r := ForWorkflow(nested())
	got := r.RelativePosition("top", "inner")
	want := workflow.Position{X: 750, Y: -240}
	if got != want {
		t.Errorf("RelativePosition(top, inner) = %+v, want %+v", got, want)
	}
}

func TestFitContainer(t *testing.T) {
	tests := []struct {
		name     string
		children []workflow.Block
		want     workflow.Size
	}{
		{
			name: "empty uses default",
			want: workflow.Size{Width: 500, Height: 300},
		},
		{
			name:     "small child floors at default",
			children: []workflow.Block{{ID: "a", Type: "agent", Position: workflow.Position{X: 10, Y: 10}}},
			want:     workflow.Size{Width: 530, Height: 300},
		},
		{
			name: "grows past default",
			children: []workflow.Block{
				{ID: "a", Type: "agent", Position: workflow.Position{X: 50, Y: 80}},
				{ID: "b", Type: "agent", Position: workflow.Position{X: 450, Y: 200}},
			},
			want: workflow.Size{Width: 450 + 350 + 120 + 50, Height: 200 + 100 + 120 + 50},
		},
		{
			name: "nested container padding",
			children: []workflow.Block{
				{ID: "c", Type: workflow.TypeLoop, Position: workflow.Position{X: 50, Y: 80}},
			},
			want: workflow.Size{Width: 50 + 500 + 150 + 50, Height: 80 + 300 + 150 + 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FitContainer(tt.children, nil); got != tt.want {
				t.Errorf("FitContainer() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResizeContainersInnermostFirst(t *testing.T) {
	w := workflow.FromSlices([]workflow.Block{
		{ID: "outer", Type: workflow.TypeLoop},
		{ID: "inner", Type: workflow.TypeParallel, ParentID: "outer", Position: workflow.Position{X: 50, Y: 80}},
		{ID: "leaf", Type: "agent", ParentID: "inner", Position: workflow.Position{X: 600, Y: 400}},
	}, nil)
	r := ForWorkflow(w)

	var order []string
	sizes := r.ResizeContainers(w.Blocks(), func(id string, s workflow.Size) {
		order = append(order, id)
	})

	if !slices.Equal(order, []string{"inner", "outer"}) {
		t.Errorf("resize order = %v, want [inner outer]", order)
	}
	inner := sizes["inner"]
	if want := (workflow.Size{Width: 600 + 350 + 170, Height: 400 + 100 + 170}); inner != want {
		t.Errorf("inner size = %+v, want %+v", inner, want)
	}
	outer := sizes["outer"]
	if want := (workflow.Size{Width: 50 + inner.Width + 200, Height: 80 + inner.Height + 200}); outer != want {
		t.Errorf("outer size = %+v, want %+v (must see fitted inner size)", outer, want)
	}
}

func TestContainerSizeUsesFittedChildren(t *testing.T) {
	w := workflow.FromSlices([]workflow.Block{
		{ID: "outer", Type: workflow.TypeLoop, Data: workflow.Data{Width: 2000, Height: 2000}},
		{ID: "inner", Type: workflow.TypeParallel, ParentID: "outer", Position: workflow.Position{X: 50, Y: 80},
			Data: workflow.Data{Width: 100, Height: 100, ParentID: "outer"}},
		{ID: "leaf", Type: "agent", ParentID: "inner", Position: workflow.Position{X: 600, Y: 400}},
	}, nil)
	r := ForWorkflow(w)
	sizes := r.ResizeContainers(w.Blocks(), nil)

	for _, id := range []string{"inner", "outer"} {
		if got := r.ContainerSize(id, w.Blocks()); got != sizes[id] {
			t.Errorf("ContainerSize(%s) = %+v, want %+v", id, got, sizes[id])
		}
	}
	// A group that is not itself a block still sees the fitted sizes.
	if got, want := r.ContainerSize("", w.Blocks()), (workflow.Size{
		Width:  sizes["outer"].Width + 200,
		Height: sizes["outer"].Height + 200,
	}); got != want {
		t.Errorf("ContainerSize(top level) = %+v, want %+v", got, want)
	}
}

func TestReparent(t *testing.T) {
	w := nested()
	r := ForWorkflow(w)

	var gotPos workflow.Position
	var gotParent string
	setPos := func(id string, p workflow.Position) { gotPos = p }
	setParent := func(id, pid string) { gotParent = pid }

	if err := r.Reparent("top", "outer", setPos, setParent); err != nil {
		t.Fatalf("Reparent: %v", err)
	}
	if gotParent != "outer" || gotPos != (workflow.Position{X: 800, Y: -160}) {
		t.Errorf("Reparent into outer = (%s, %+v)", gotParent, gotPos)
	}

	if err := r.Reparent("leaf", "", setPos, setParent); err != nil {
		t.Fatalf("Reparent to top: %v", err)
	}
	if gotParent != "" || gotPos != (workflow.Position{X: 160, Y: 300}) {
		t.Errorf("Reparent to top level = (%s, %+v)", gotParent, gotPos)
	}

	if err := r.Reparent("outer", "leaf", setPos, setParent); !errors.Is(err, ErrCyclicParent) {
		t.Errorf("Reparent into descendant error = %v, want ErrCyclicParent", err)
	}
}

func TestFindDangling(t *testing.T) {
	blocks := []workflow.Block{
		{ID: "loop", Type: workflow.TypeLoop},
		{ID: "agent", Type: "agent"},
		{ID: "ok", ParentID: "loop"},
		{ID: "missing", ParentID: "nope"},
		{ID: "bad", ParentID: "agent"},
	}
	if got, want := FindDangling(blocks), []string{"bad", "missing"}; !slices.Equal(got, want) {
		t.Errorf("FindDangling() = %v, want %v", got, want)
	}
}
