package animate

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/canvaslayout/pkg/layout"
	"github.com/matzehuels/canvaslayout/pkg/observability"
	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Defaults for transitions.
const (
	DefaultDuration      = 500 * time.Millisecond
	DefaultFrameInterval = 16 * time.Millisecond

	// FitViewPaddingChrome is the fit-view padding while editor panels are
	// visible; FitViewPaddingBare is used when they are hidden.
	FitViewPaddingChrome = 0.25
	FitViewPaddingBare   = 0.1
)

// State is the driver's lifecycle state.
type State int

const (
	Idle State = iota
	Animating
)

func (s State) String() string {
	if s == Animating {
		return "animating"
	}
	return "idle"
}

// Callbacks receive the side effects of a transition. Any may be nil.
// Calls are serialized: no frame of a transition is delivered after its
// OnCancel. Callbacks must not call back into the [Driver].
type Callbacks struct {
	// OnUpdate is called once per frame for every block in the target.
	OnUpdate func(id string, p workflow.Position)
	// OnResize asks the host to refit container dimensions.
	OnResize func()
	// OnFitView asks the host viewport to fit all blocks.
	OnFitView func(padding float64)
	// OnComplete receives the final positions.
	OnComplete func(final layout.Positions)
	// OnCancel is called when a transition is superseded or cancelled.
	OnCancel func(transition uuid.UUID)
}

// Option configures a [Driver].
type Option func(*Driver)

// WithDuration overrides [DefaultDuration].
func WithDuration(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.duration = d
		}
	}
}

// WithFrameInterval overrides [DefaultFrameInterval] for [Driver.Run].
func WithFrameInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.frame = d
		}
	}
}

// WithChrome records whether editor panels are visible, which selects the
// fit-view padding.
func WithChrome(visible bool) Option {
	return func(dr *Driver) { dr.chrome = visible }
}

// WithLogger sets the driver's logger.
func WithLogger(l *log.Logger) Option {
	return func(dr *Driver) {
		if l != nil {
			dr.logger = l
		}
	}
}

type transition struct {
	id     uuid.UUID
	start  time.Time
	from   layout.Positions
	to     layout.Positions
	ids    []string
	frames int
}

// Driver interpolates blocks from their current positions to a computed
// layout. It is safe for concurrent use. Starting a transition while one is
// running cancels the running one: the newest target wins.
type Driver struct {
	clock    Clock
	cb       Callbacks
	duration time.Duration
	frame    time.Duration
	chrome   bool
	logger   *log.Logger

	// emit is held while callbacks run and is taken before mu.
	emit sync.Mutex
	mu   sync.Mutex
	cur  *transition
}

// NewDriver creates an idle driver. A nil clock means [SystemClock].
func NewDriver(clock Clock, cb Callbacks, opts ...Option) *Driver {
	if clock == nil {
		clock = SystemClock()
	}
	d := &Driver{
		clock:    clock,
		cb:       cb,
		duration: DefaultDuration,
		frame:    DefaultFrameInterval,
		chrome:   true,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State reports whether a transition is in flight.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur != nil {
		return Animating
	}
	return Idle
}

// Current returns the in-flight transition ID, or uuid.Nil when idle.
func (d *Driver) Current() uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return uuid.Nil
	}
	return d.cur.id
}

// Start begins a transition toward target. Blocks missing from current
// start at their target. A running transition is cancelled first.
func (d *Driver) Start(current, target layout.Positions) uuid.UUID {
	t := &transition{
		id:   uuid.New(),
		from: make(layout.Positions, len(target)),
		to:   make(layout.Positions, len(target)),
		ids:  target.IDs(),
	}
	for id, p := range target {
		t.to[id] = p
		if c, ok := current[id]; ok {
			t.from[id] = c
		} else {
			t.from[id] = p
		}
	}

	d.emit.Lock()
	defer d.emit.Unlock()

	d.mu.Lock()
	prev := d.cur
	t.start = d.clock.Now()
	d.cur = t
	d.mu.Unlock()

	if prev != nil {
		d.cancelled(prev)
	}
	d.logger.Debug("transition started", "id", t.id, "blocks", len(t.ids))
	observability.Animation().OnTransitionStart(t.id.String(), len(t.ids))
	return t.id
}

// Tick advances the transition to now and emits one frame. It reports
// whether the driver is idle afterwards.
func (d *Driver) Tick(now time.Time) bool {
	d.emit.Lock()
	defer d.emit.Unlock()

	d.mu.Lock()
	t := d.cur
	if t == nil {
		d.mu.Unlock()
		return true
	}
	ratio := 1.0
	if d.duration > 0 {
		ratio = min(1, max(0, float64(now.Sub(t.start))/float64(d.duration)))
	}
	eased := EaseOutCubic(ratio)
	frame := make([]frameUpdate, 0, len(t.ids))
	for _, id := range t.ids {
		frame = append(frame, frameUpdate{id, lerp(t.from[id], t.to[id], eased)})
	}
	t.frames++
	done := ratio >= 1
	if done {
		d.cur = nil
	}
	d.mu.Unlock()

	if d.cb.OnUpdate != nil {
		for _, u := range frame {
			d.cb.OnUpdate(u.id, u.pos)
		}
	}
	if done {
		d.complete(t)
	}
	return done
}

type frameUpdate struct {
	id  string
	pos workflow.Position
}

func (d *Driver) complete(t *transition) {
	if d.cb.OnResize != nil {
		d.cb.OnResize()
	}
	if d.cb.OnFitView != nil {
		d.cb.OnFitView(d.fitViewPadding())
	}
	if d.cb.OnComplete != nil {
		final := make(layout.Positions, len(t.to))
		for id, p := range t.to {
			final[id] = p
		}
		d.cb.OnComplete(final)
	}
	d.logger.Debug("transition complete", "id", t.id, "frames", t.frames)
	observability.Animation().OnTransitionComplete(t.id.String(), t.frames, d.duration)
}

func (d *Driver) cancelled(t *transition) {
	if d.cb.OnCancel != nil {
		d.cb.OnCancel(t.id)
	}
	d.logger.Debug("transition cancelled", "id", t.id, "frames", t.frames)
	observability.Animation().OnTransitionCancel(t.id.String(), t.frames)
}

func (d *Driver) fitViewPadding() float64 {
	if d.chrome {
		return FitViewPaddingChrome
	}
	return FitViewPaddingBare
}

// Cancel stops the in-flight transition without completing it. Blocks
// keep the last emitted frame.
func (d *Driver) Cancel() { d.cancelIf(nil) }

// cancelIf cancels the in-flight transition if it is want, or whatever is
// in flight when want is nil.
func (d *Driver) cancelIf(want *transition) {
	d.emit.Lock()
	defer d.emit.Unlock()

	d.mu.Lock()
	t := d.cur
	if t == nil || (want != nil && t != want) {
		d.mu.Unlock()
		return
	}
	d.cur = nil
	d.mu.Unlock()
	d.cancelled(t)
}

// Run drives ticks from the clock until the driver is idle or ctx is done.
// On context cancellation the transition that was in flight when Run was
// called is cancelled, unless a newer one replaced it, and ctx.Err() is
// returned.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	t := d.cur
	d.mu.Unlock()
	if t == nil {
		return nil
	}
	ticker := d.clock.NewTicker(d.frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.cancelIf(t)
			return ctx.Err()
		case now := <-ticker.C():
			if d.Tick(now) {
				return nil
			}
		}
	}
}

// Animate starts a transition and runs it to completion.
func (d *Driver) Animate(ctx context.Context, current, target layout.Positions) (uuid.UUID, error) {
	id := d.Start(current, target)
	return id, d.Run(ctx)
}

// Frames samples a transition from current to target at the given frame
// interval without side effects, including both endpoints.
func Frames(current, target layout.Positions, duration, interval time.Duration) []layout.Positions {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ids := target.IDs()
	var out []layout.Positions
	for elapsed := time.Duration(0); ; elapsed += interval {
		ratio := 1.0
		if duration > 0 {
			ratio = min(1, float64(elapsed)/float64(duration))
		}
		eased := EaseOutCubic(ratio)
		frame := make(layout.Positions, len(ids))
		for _, id := range ids {
			from, ok := current[id]
			if !ok {
				from = target[id]
			}
			frame[id] = lerp(from, target[id], eased)
		}
		out = append(out, frame)
		if ratio >= 1 {
			return slices.Clip(out)
		}
	}
}

// EaseOutCubic maps linear progress t in [0,1] to 1-(1-t)³.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

func lerp(a, b workflow.Position, t float64) workflow.Position {
	return workflow.Position{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}
