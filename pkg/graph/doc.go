// Package graph provides serialization types for workflow documents and
// computed layouts.
//
// This package defines the wire format used for input files, server
// requests and responses, and cached layouts.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Document], [Layout]: serialization types (this package)
//   - pkg/workflow.Workflow: in-memory canvas snapshot
//   - pkg/layout.Result: computed positions and sizes
//
// Use [Document.ToWorkflow] and [FromResult] to convert between them.
//
// # Documents
//
// A document is JSON or YAML:
//
//	{
//	  "blocks": {
//	    "start": {"type": "starter", "position": {"x": 0, "y": 0}},
//	    "agent": {"type": "agent", "position": {"x": 400, "y": 0}}
//	  },
//	  "edges": [{"source": "start", "target": "agent"}],
//	  "options": {"handleOrientation": "vertical"}
//	}
//
// Blocks may also be an array with explicit ids. Every document is checked
// against a JSON Schema before decoding (see [ValidateDocument]), and
// omitted "enabled" fields default to true.
package graph
