package layout

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvaslayout/pkg/hierarchy"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeEmpty(t *testing.T) {
	res := Compute(nil, nil, DefaultOptions())
	if len(res.Positions) != 0 {
		t.Errorf("Positions = %v, want empty", res.Positions)
	}
	if res.Orientation != OrientationHorizontal {
		t.Errorf("Orientation = %v, want horizontal", res.Orientation)
	}
}

func TestComputeTwoNodes(t *testing.T) {
	blocks := []workflow.Block{starter("A"), block("B")}
	edges := []workflow.Edge{edge("A", "B")}
	opts := DefaultOptions()

	res := Compute(blocks, edges, opts)

	if want := map[string]int{"A": 0, "B": 1}; !reflect.DeepEqual(res.Classification.Layers, want) {
		t.Fatalf("Layers = %v, want %v", res.Classification.Layers, want)
	}

	c := res.Classification
	ax := newAxes(OrientationHorizontal, opts)
	spacing := ax.layerSpacing(&c, 0, 1, func(string) workflow.Size { return workflow.Size{Width: 350, Height: 100} })
	if !near(spacing, 650) {
		t.Errorf("layerSpacing(A,B) = %v, want 650", spacing)
	}

	if got, want := res.Positions["A"], (workflow.Position{X: opts.StartX, Y: opts.StartY}); got != want {
		t.Errorf("A = %+v, want %+v", got, want)
	}
	if got, want := res.Positions["B"], (workflow.Position{X: opts.StartX + spacing, Y: opts.StartY}); got != want {
		t.Errorf("B = %+v, want %+v", got, want)
	}
}

func TestComputeFanOut(t *testing.T) {
	blocks := []workflow.Block{starter("A"), block("B"), block("C")}
	edges := []workflow.Edge{edge("A", "B"), edge("A", "C")}
	opts := DefaultOptions()

	res := Compute(blocks, edges, opts)
	b, c := res.Positions["B"], res.Positions["C"]

	if res.Classification.Layers["B"] != 1 || res.Classification.Layers["C"] != 1 {
		t.Fatalf("B and C should share layer 1: %v", res.Classification.Layers)
	}
	if b.X != c.X {
		t.Errorf("B.X = %v, C.X = %v, want equal", b.X, c.X)
	}
	if !near((b.Y+c.Y)/2, opts.StartY) {
		t.Errorf("B and C not symmetric about startY: %v, %v", b.Y, c.Y)
	}
	if sep := math.Abs(b.Y - c.Y); sep < opts.VerticalSpacing*0.5 {
		t.Errorf("separation %v < %v", sep, opts.VerticalSpacing*0.5)
	}
}

func TestComputeContainer(t *testing.T) {
	blocks := []workflow.Block{
		{ID: "loop", Type: workflow.TypeLoop, Enabled: true},
		{ID: "c1", Type: "agent", Enabled: true, ParentID: "loop"},
		{ID: "c2", Type: "agent", Enabled: true, ParentID: "loop"},
	}
	edges := []workflow.Edge{
		{ID: "start", Source: "loop", Target: "c1", SourceHandle: workflow.HandleLoopStart},
		edge("c1", "c2"),
	}

	res := Compute(blocks, edges, DefaultOptions())

	c1, c2 := res.Positions["c1"], res.Positions["c2"]
	if c1 != (workflow.Position{X: ChildStartX, Y: ChildStartY}) {
		t.Errorf("c1 = %+v, want container-local origin", c1)
	}
	// ref 350 + min(250, 300) + label 50
	if c2 != (workflow.Position{X: ChildStartX + 650, Y: ChildStartY}) {
		t.Errorf("c2 = %+v", c2)
	}

	size, ok := res.Sizes["loop"]
	if !ok {
		t.Fatal("container size not reported")
	}
	if want := (workflow.Size{Width: c2.X + 350 + 120 + 50, Height: ChildStartY + 100 + 120 + 50}); size != want {
		t.Errorf("loop size = %+v, want %+v", size, want)
	}
	if size.Width <= c2.X+workflow.DefaultBlockWidth {
		t.Errorf("container width %v does not enclose c2", size.Width)
	}
	if got := res.Positions["loop"]; got != (workflow.Position{X: 150, Y: 300}) {
		t.Errorf("loop = %+v", got)
	}
}

func TestComputeNestedContainers(t *testing.T) {
	blocks := []workflow.Block{
		{ID: "outer", Type: workflow.TypeLoop, Enabled: true},
		{ID: "inner", Type: workflow.TypeParallel, Enabled: true, ParentID: "outer"},
		{ID: "leaf", Type: "agent", Enabled: true, ParentID: "inner"},
	}
	res := Compute(blocks, nil, DefaultOptions())

	if got := res.Positions["leaf"]; got != (workflow.Position{X: 50, Y: 80}) {
		t.Errorf("leaf = %+v", got)
	}
	if got := res.Positions["inner"]; got != (workflow.Position{X: 50, Y: 80}) {
		t.Errorf("inner = %+v", got)
	}
	inner := workflow.Size{Width: 50 + 350 + 170, Height: 80 + 100 + 170}
	if got := res.Sizes["inner"]; got != inner {
		t.Errorf("inner size = %+v, want %+v", got, inner)
	}
	outer := workflow.Size{Width: 50 + inner.Width + 200, Height: 80 + inner.Height + 200}
	if got := res.Sizes["outer"]; got != outer {
		t.Errorf("outer size = %+v, want %+v", got, outer)
	}
}

func TestComputeNestingMatchesHierarchy(t *testing.T) {
	blocks := []workflow.Block{
		starter("start"),
		{ID: "outer", Type: workflow.TypeLoop, Enabled: true},
		{ID: "inner", Type: workflow.TypeParallel, Enabled: true, ParentID: "outer"},
		{ID: "a", Type: "agent", Enabled: true, ParentID: "inner"},
		{ID: "b", Type: "agent", Enabled: true, ParentID: "inner"},
	}
	edges := []workflow.Edge{edge("start", "outer"), edge("a", "b")}
	res := Compute(blocks, edges, DefaultOptions())

	w := workflow.New()
	for _, b := range blocks {
		b.Position = res.Positions[b.ID]
		if err := w.AddBlock(b); err != nil {
			t.Fatal(err)
		}
	}
	r := hierarchy.ForWorkflow(w)
	for _, b := range w.Blocks() {
		if b.Parent() == "" {
			continue
		}
		want := r.AbsolutePosition(b.Parent()).Add(b.Position)
		if got := r.AbsolutePosition(b.ID); got != want {
			t.Errorf("AbsolutePosition(%s) = %+v, want %+v", b.ID, got, want)
		}
	}
}

func TestComputeCentering(t *testing.T) {
	const n, h = 5, 120.0
	opts := DefaultOptions()
	var blocks []workflow.Block
	for i := 0; i < n; i++ {
		b := block(fmt.Sprintf("n%d", i))
		b.Data.Height = h
		blocks = append(blocks, b)
	}

	res := Compute(blocks, nil, opts)
	c := res.Classification
	if len(c.Groups) != 1 || len(c.Groups[0]) != 1 {
		t.Fatalf("expected one layer with one group, got %v", c.Groups)
	}

	ax := newAxes(res.Orientation, opts)
	size := func(string) workflow.Size { return workflow.Size{Width: 350, Height: h} }
	extent := ax.groupExtent(&c, c.Groups[0][0], size)
	if want := n*h + (n-1)*opts.VerticalSpacing*0.5; !near(extent, want) {
		t.Errorf("group extent = %v, want %v", extent, want)
	}

	group := c.Groups[0][0]
	for i := range group {
		top := res.Positions[group[i]].Y - opts.StartY
		bottom := opts.StartY - res.Positions[group[len(group)-1-i]].Y
		if !near(top, bottom) {
			t.Errorf("positions not symmetric about startY: %s=%v mirror %s", group[i], top, group[len(group)-1-i])
		}
	}
}

func TestComputeTransitionSpacing(t *testing.T) {
	a := block("a")
	d := block("d")
	d.Enabled = false
	opts := DefaultOptions()
	res := Compute([]workflow.Block{starter("s"), a, d}, []workflow.Edge{edge("s", "a"), edge("s", "d")}, opts)

	// a terminal, d disabled terminal: same group, different buckets
	gap := res.Positions["d"].Y - res.Positions["a"].Y
	if want := 100 + opts.VerticalSpacing*(GroupSpacingRatio+TransitionSpacingRatio); !near(gap, want) {
		t.Errorf("center distance = %v, want %v", gap, want)
	}
}

func TestComputeOrphanBonus(t *testing.T) {
	opts := DefaultOptions()
	res := Compute(
		[]workflow.Block{starter("A"), block("B"), block("O")},
		[]workflow.Edge{edge("A", "B")},
		opts,
	)
	if got, want := res.Positions["B"].X, opts.StartX+650+OrphanLayerBonus; !near(got, want) {
		t.Errorf("B.X = %v, want %v", got, want)
	}
	// layer 0: [A] then [O], separated by the full cross spacing
	if got, want := res.Positions["O"].Y-res.Positions["A"].Y, 100+opts.VerticalSpacing; !near(got, want) {
		t.Errorf("A to O distance = %v, want %v", got, want)
	}
}

func TestComputeContainerClamp(t *testing.T) {
	narrow := workflow.Block{ID: "L", Type: workflow.TypeLoop, Enabled: true, Data: workflow.Data{Width: 200, Height: 100}}
	opts := DefaultOptions()
	res := Compute([]workflow.Block{starter("A"), narrow}, []workflow.Edge{edge("A", "L")}, opts)

	// L is spaced as 400 wide
	if got, want := res.Positions["L"].X, opts.StartX+350+250+(MinContainerWidth-350)+50; !near(got, want) {
		t.Errorf("L.X = %v, want %v", got, want)
	}
	if _, ok := res.Sizes["L"]; ok {
		t.Error("empty container should not get a fitted size")
	}
}

func TestComputeVertical(t *testing.T) {
	opts := DefaultOptions()
	opts.HandleOrientation = OrientationVertical
	res := Compute([]workflow.Block{starter("A"), block("B")}, []workflow.Edge{edge("A", "B")}, opts)

	if res.Orientation != OrientationVertical {
		t.Fatalf("Orientation = %v", res.Orientation)
	}
	if got := res.Positions["A"]; got != (workflow.Position{X: opts.StartX, Y: opts.StartY}) {
		t.Errorf("A = %+v", got)
	}
	// ref 150 + V 200 + label 50; block height 100 is below ref
	if got := res.Positions["B"]; got != (workflow.Position{X: opts.StartX, Y: opts.StartY + 400}) {
		t.Errorf("B = %+v", got)
	}
}

func TestComputeSequential(t *testing.T) {
	opts := DefaultOptions()
	opts.AlignByLayer = false
	wide := block("w")
	wide.IsWide = true
	res := Compute([]workflow.Block{block("c"), wide, block("a")}, []workflow.Edge{edge("a", "c")}, opts)

	want := Positions{
		"c": {X: 150, Y: 300},
		"w": {X: 150 + 480 + 125, Y: 300},
		"a": {X: 150 + 480 + 125 + 480 + 125, Y: 300},
	}
	if !reflect.DeepEqual(res.Positions, want) {
		t.Errorf("Positions = %v, want %v", res.Positions, want)
	}
}

func TestComputeDanglingParent(t *testing.T) {
	var buf bytes.Buffer
	res := Compute(
		[]workflow.Block{block("a"), {ID: "lost", Type: "agent", Enabled: true, ParentID: "gone"}},
		nil, DefaultOptions(), WithLogger(log.New(&buf)),
	)
	if _, ok := res.Positions["lost"]; !ok {
		t.Error("block with dangling parent not placed")
	}
	if !strings.Contains(buf.String(), "dangling") {
		t.Errorf("expected dangling warning, got %q", buf.String())
	}
}

func TestComputeParentCycleTerminates(t *testing.T) {
	blocks := []workflow.Block{
		{ID: "A", Type: workflow.TypeLoop, ParentID: "C"},
		{ID: "B", Type: workflow.TypeLoop, ParentID: "A"},
		{ID: "C", Type: workflow.TypeLoop, ParentID: "B"},
		block("free"),
	}
	var buf bytes.Buffer
	res := Compute(blocks, nil, DefaultOptions(), WithLogger(log.New(&buf)))
	for _, b := range blocks {
		if _, ok := res.Positions[b.ID]; !ok {
			t.Errorf("%s not placed", b.ID)
		}
	}
	if !strings.Contains(buf.String(), "cycle") {
		t.Errorf("expected cycle error, got %q", buf.String())
	}
	// A is detached, so B and C nest under it
	if _, ok := res.Sizes["A"]; !ok {
		t.Error("detached container A was not fitted")
	}
}

func TestComputeIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		blocks, edges := randomGraph(r)
		first := Compute(blocks, edges, DefaultOptions())
		second := Compute(blocks, edges, DefaultOptions())
		if !reflect.DeepEqual(first.Positions, second.Positions) {
			t.Fatalf("iter %d: positions differ between runs", i)
		}
		if !reflect.DeepEqual(first.Sizes, second.Sizes) {
			t.Fatalf("iter %d: sizes differ between runs", i)
		}
		if len(first.Positions) != len(blocks) {
			t.Fatalf("iter %d: %d positions for %d blocks", i, len(first.Positions), len(blocks))
		}
	}
}

func TestDetectOrientation(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name  string
		flags []*bool
		want  Orientation
	}{
		{"no annotations", []*bool{nil, nil}, OrientationHorizontal},
		{"majority vertical", []*bool{&no, &no, &yes}, OrientationVertical},
		{"majority horizontal", []*bool{&yes, &yes, &no}, OrientationHorizontal},
		{"tie", []*bool{&yes, &no, nil}, OrientationHorizontal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var blocks []workflow.Block
			for i, f := range tt.flags {
				b := block(fmt.Sprint(i))
				b.HorizontalHandles = f
				blocks = append(blocks, b)
			}
			if got := DetectOrientation(blocks); got != tt.want {
				t.Errorf("DetectOrientation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(*Options) {}, false},
		{"zero spacing", func(o *Options) { o.HorizontalSpacing = 0 }, false},
		{"negative horizontal", func(o *Options) { o.HorizontalSpacing = -1 }, true},
		{"negative vertical", func(o *Options) { o.VerticalSpacing = -5 }, true},
		{"unknown orientation", func(o *Options) { o.HandleOrientation = "diagonal" }, true},
		{"empty orientation", func(o *Options) { o.HandleOrientation = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			if err := o.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
