// Package animate moves canvas blocks from their current positions to a
// computed layout over a short eased transition.
//
// A [Driver] is tick based: every frame it interpolates each block with
// [EaseOutCubic] and reports the new position through [Callbacks.OnUpdate].
// When the transition finishes it asks the host to resize containers, fit
// the viewport, and then hands over the final positions. Time comes from an
// injected [Clock], so tests advance frames by hand.
//
//	d := animate.NewDriver(nil, animate.Callbacks{
//	    OnUpdate:   canvas.Move,
//	    OnComplete: store.Commit,
//	})
//	_, err := d.Animate(ctx, current, res.Positions)
//
// Only one transition runs at a time. Starting another cancels the one in
// flight, which never reaches OnComplete.
package animate
