// Package pkg provides the core libraries for canvaslayout workflow auto-layout.
//
// # Overview
//
// canvaslayout arranges the blocks of a workflow canvas into readable
// layers: entry points first, every other block one layer past its furthest
// predecessor, and blocks that share a predecessor grouped together. Loop
// and parallel containers are laid out from the inside out and resized to
// fit their children.
//
// # Architecture
//
// The typical data flow:
//
//	Workflow document (JSON/YAML)
//	         ↓
//	    [graph] package (decode + schema validation)
//	         ↓
//	    [hierarchy] package (dangling-parent repair, nesting)
//	         ↓
//	    [layout] package (layering, spacing, positions)
//	         ↓
//	    [render/nodelink] package (DOT + Graphviz SVG)
//
// # Quick Start
//
//	doc, _ := pipeline.Load("workflow.json")
//	runner := pipeline.NewRunner(cache.NewMemoryCache(256), nil, logger)
//	res, _ := runner.Execute(ctx, doc, pipeline.DefaultOptions())
//	svg := res.Artifacts[pipeline.FormatSVG]
//
// # Main Packages
//
// ## Domain
//
// [workflow] - Blocks, edges and block dimensions.
//
// [hierarchy] - Parent-chain resolution: absolute and relative positions,
// depth, container fitting and reparenting.
//
// [layout] - The layout engine. [layout.Compute] classifies blocks into
// layers and places them along the flow direction.
//
// [animate] - Eased transitions from stored to computed positions.
//
// ## Serialization
//
// [graph] - Wire formats for workflow documents and layouts, with a JSON
// Schema for documents.
//
// ## Orchestration
//
// [pipeline] - Load, repair, lay out and render with caching. Shared by the
// CLI and the server so both behave alike.
//
// [cache] - File, memory, Redis and null caches plus key builders.
//
// [server] - HTTP API over the pipeline.
//
// ## Support
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for pipeline, cache, HTTP and animation events.
//
// [buildinfo] - Version information set at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example                 # Examples only
//	REDIS_ADDR=localhost:6379 go test ./pkg/cache/...  # Include Redis tests
//
// [workflow]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/workflow
// [hierarchy]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/hierarchy
// [layout]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/layout
// [layout.Compute]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/layout#Compute
// [animate]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/animate
// [graph]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/server
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/render/nodelink
// [errors]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/canvaslayout/pkg/buildinfo
package pkg
