// Package hierarchy resolves container nesting from parent pointers.
//
// Blocks nested in loop or parallel containers store positions relative to
// their parent. A [Resolver] flattens those into the global canvas space and
// answers depth and ancestry questions, given only a [Lookup] supplied by
// the host. Every walk is bounded by a max depth and a visited set, so
// malformed parent chains degrade to a fallback value instead of recursing
// forever.
//
// # Operations
//
//   - [Resolver.Depth]: number of enclosing containers
//   - [Resolver.AncestorPath]: outermost container down to the block
//   - [Resolver.AbsolutePosition] and [Resolver.RelativePosition]
//   - [Resolver.ResizeContainers]: innermost-first container fitting
//   - [Resolver.Reparent]: move a block between containers in place
//
// # Example
//
//	r := hierarchy.ForWorkflow(w, hierarchy.WithLogger(logger))
//	abs := r.AbsolutePosition("agent-in-loop")
package hierarchy
