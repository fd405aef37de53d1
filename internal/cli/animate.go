package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/canvaslayout/pkg/animate"
	"github.com/matzehuels/canvaslayout/pkg/hierarchy"
	"github.com/matzehuels/canvaslayout/pkg/layout"
	"github.com/matzehuels/canvaslayout/pkg/pipeline"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Preview canvas bounds in terminal cells.
const (
	defaultCanvasCols = 100
	defaultCanvasRows = 28
	minCanvasCols     = 20
	minCanvasRows     = 6
)

// animateCommand creates the animate command that previews the transition
// from the stored block positions to the computed layout.
func (c *CLI) animateCommand() *cobra.Command {
	var (
		duration time.Duration
		interval time.Duration
		frames   bool
		noChrome bool
		flags    layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "animate [workflow.json]",
		Short: "Preview the transition to the computed layout",
		Long: `Preview the transition from the stored block positions to the computed layout.

Blocks glide from where they are on the canvas to where the layout puts
them, eased out over --duration. The preview runs in the terminal; press
r to replay and q to quit.

With --frames the interpolated positions are written to stdout as one JSON
object per frame instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			current, target, w, err := c.transition(cmd.Context(), args[0], flags.noCache, opts)
			if err != nil {
				return err
			}
			if frames {
				return writeFrames(current, target, duration, interval)
			}
			return c.runPreview(cmd.Context(), w, current, target, duration, !noChrome)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", animate.DefaultDuration, "transition duration")
	cmd.Flags().DurationVar(&interval, "interval", animate.DefaultFrameInterval, "frame interval for --frames")
	cmd.Flags().BoolVar(&frames, "frames", false, "print interpolated frames as JSON lines")
	cmd.Flags().BoolVar(&noChrome, "no-chrome", false, "fit the view as if editor panels were hidden")
	flags.register(cmd)

	return cmd
}

// transition loads input and returns the stored and computed positions of
// every block, plus the laid-out workflow.
func (c *CLI) transition(ctx context.Context, input string, noCache bool, opts pipeline.Options) (current, target layout.Positions, w *workflow.Workflow, err error) {
	doc, err := pipeline.Load(input)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load workflow %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prepared, _, err := runner.Prepare(doc)
	if err != nil {
		return nil, nil, nil, err
	}
	opts.Formats = []string{pipeline.FormatJSON}
	res, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("compute layout: %w", err)
	}

	current = make(layout.Positions, prepared.BlockCount())
	for _, b := range prepared.Blocks() {
		current[b.ID] = b.Position
	}
	target = make(layout.Positions, len(res.Layout.Positions))
	for id, p := range res.Layout.Positions {
		target[id] = p
	}
	return current, target, res.Workflow, nil
}

// writeFrames prints every sampled frame as a JSON line.
func writeFrames(current, target layout.Positions, duration, interval time.Duration) error {
	enc := json.NewEncoder(out)
	for _, frame := range animate.Frames(current, target, duration, interval) {
		if err := enc.Encode(frame); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) runPreview(ctx context.Context, w *workflow.Workflow, current, target layout.Positions, duration time.Duration, chrome bool) error {
	m := newPreviewModel(w, current, target)
	m.driver = animate.NewDriver(animate.SystemClock(), m.callbacks(),
		animate.WithDuration(duration), animate.WithChrome(chrome), animate.WithLogger(c.Logger))

	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// previewModel - Terminal transition preview
// =============================================================================

type frameMsg time.Time

// previewModel draws blocks on a scaled character canvas while the driver
// moves them. The driver's callbacks write into pos between frames.
type previewModel struct {
	w       *workflow.Workflow
	current layout.Positions
	target  layout.Positions
	pos     layout.Positions

	driver    *animate.Driver
	ticking   bool
	frames    int
	completed int
	padding   float64

	cols, rows int
	bounds     rect
}

func newPreviewModel(w *workflow.Workflow, current, target layout.Positions) *previewModel {
	m := &previewModel{
		w:       w,
		current: current,
		target:  target,
		pos:     make(layout.Positions, len(target)),
		cols:    defaultCanvasCols,
		rows:    defaultCanvasRows,
	}
	for id := range target {
		if p, ok := current[id]; ok {
			m.pos[id] = p
		} else {
			m.pos[id] = target[id]
		}
	}
	m.bounds = m.extent(current).union(m.extent(target))
	return m
}

func (m *previewModel) callbacks() animate.Callbacks {
	return animate.Callbacks{
		OnUpdate:   m.setPosition,
		OnResize:   m.resizeContainers,
		OnFitView:  func(padding float64) { m.padding = padding },
		OnComplete: func(layout.Positions) { m.completed++ },
	}
}

func (m *previewModel) setPosition(id string, p workflow.Position) { m.pos[id] = p }

// resizeContainers refits every container to its children at their
// settled positions and stores the new sizes on the workflow.
func (m *previewModel) resizeContainers() {
	blocks := m.w.Blocks()
	for i, b := range blocks {
		blocks[i], _ = m.lookup(b.ID)
	}
	hierarchy.New(m.lookup).ResizeContainers(blocks, func(id string, s workflow.Size) {
		b, ok := m.w.Block(id)
		if !ok {
			return
		}
		b.Data.Width, b.Data.Height = s.Width, s.Height
		m.w.Update(b)
	})
}

func (m *previewModel) Init() tea.Cmd {
	return m.replay()
}

func (m *previewModel) replay() tea.Cmd {
	m.driver.Start(m.current, m.target)
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.tick()
}

func (m *previewModel) tick() tea.Cmd {
	return tea.Tick(animate.DefaultFrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.driver.Cancel()
			return m, tea.Quit
		case "r":
			return m, m.replay()
		}
	case tea.WindowSizeMsg:
		m.cols = max(minCanvasCols, msg.Width-4)
		m.rows = max(minCanvasRows, msg.Height-6)
	case frameMsg:
		m.frames++
		if m.driver.Tick(time.Time(msg)) {
			m.ticking = false
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *previewModel) View() string {
	var b strings.Builder

	state := "moving"
	if !m.ticking {
		state = "settled"
	}
	b.WriteString(StyleTitle.Render("canvaslayout preview"))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" · %d blocks · %s · frame %d", len(m.target), state, m.frames)))
	b.WriteString("\n")

	canvas := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDim).
		Render(m.canvas())
	b.WriteString(canvas)
	b.WriteString("\n")

	footer := "r replay · q quit"
	if m.completed > 0 {
		footer += fmt.Sprintf(" · fit view padding %.1f", m.padding)
	}
	b.WriteString(StyleDim.Render(footer))
	return b.String()
}

// lookup resolves blocks with their in-flight positions so nested blocks
// follow their container.
func (m *previewModel) lookup(id string) (workflow.Block, bool) {
	b, ok := m.w.Block(id)
	if p, moving := m.pos[id]; ok && moving {
		b.Position = p
	}
	return b, ok
}

// canvas rasterizes every block into a cols×rows grid. Containers are drawn
// before their children so labels stay readable.
func (m *previewModel) canvas() string {
	grid := make([][]rune, m.rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", m.cols))
	}

	res := hierarchy.New(m.lookup)
	ids := m.target.IDs()
	slices.SortStableFunc(ids, func(a, b string) int { return res.Depth(a) - res.Depth(b) })

	for _, id := range ids {
		b, ok := m.lookup(id)
		if !ok {
			continue
		}
		r := m.bounds.project(blockRect(res.AbsolutePosition(id), workflow.Dimensions(b)), m.cols, m.rows)
		fill := '▒'
		if b.IsContainer() {
			fill = 0
		}
		drawBox(grid, r, fill)
		drawLabel(grid, r, id)
	}

	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

// extent is the bounding box of every block placed at positions.
func (m *previewModel) extent(positions layout.Positions) rect {
	saved := m.pos
	m.pos = positions
	defer func() { m.pos = saved }()

	res := hierarchy.New(m.lookup)
	out := rect{x0: math.Inf(1), y0: math.Inf(1), x1: math.Inf(-1), y1: math.Inf(-1)}
	for id := range m.target {
		b, ok := m.lookup(id)
		if !ok {
			continue
		}
		out = out.union(blockRect(res.AbsolutePosition(id), workflow.Dimensions(b)))
	}
	return out
}

type rect struct{ x0, y0, x1, y1 float64 }

func blockRect(p workflow.Position, s workflow.Size) rect {
	return rect{x0: p.X, y0: p.Y, x1: p.X + s.Width, y1: p.Y + s.Height}
}

func (r rect) union(o rect) rect {
	return rect{x0: min(r.x0, o.x0), y0: min(r.y0, o.y0), x1: max(r.x1, o.x1), y1: max(r.y1, o.y1)}
}

// project maps r from canvas pixels into grid cells, keeping at least one
// cell on each axis.
func (r rect) project(o rect, cols, rows int) rect {
	w, h := r.x1-r.x0, r.y1-r.y0
	if w <= 0 || h <= 0 || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return rect{}
	}
	sx, sy := float64(cols-1)/w, float64(rows-1)/h
	p := rect{
		x0: math.Floor((o.x0 - r.x0) * sx),
		y0: math.Floor((o.y0 - r.y0) * sy),
		x1: math.Floor((o.x1 - r.x0) * sx),
		y1: math.Floor((o.y1 - r.y0) * sy),
	}
	p.x1, p.y1 = max(p.x1, p.x0+1), max(p.y1, p.y0)
	return p
}

// drawBox outlines r, filling the inside with fill unless fill is zero.
func drawBox(grid [][]rune, r rect, fill rune) {
	for y := int(r.y0); y <= int(r.y1); y++ {
		for x := int(r.x0); x <= int(r.x1); x++ {
			edge := y == int(r.y0) || y == int(r.y1) || x == int(r.x0) || x == int(r.x1)
			switch {
			case edge && fill == 0:
				set(grid, x, y, '·')
			case edge:
				set(grid, x, y, '█')
			case fill != 0:
				set(grid, x, y, fill)
			}
		}
	}
}

func drawLabel(grid [][]rune, r rect, label string) {
	x, y := int(r.x0)+1, int(r.y0)
	if r.y1 > r.y0 {
		y++
	}
	for i, ch := range []rune(label) {
		if x+i >= int(r.x1) {
			break
		}
		set(grid, x+i, y, ch)
	}
}

func set(grid [][]rune, x, y int, ch rune) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	grid[y][x] = ch
}
