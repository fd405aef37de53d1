package graph

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/matzehuels/canvaslayout/pkg/errors"
)

const documentSchemaURL = "https://canvaslayout.dev/schemas/document.json"

// documentSchemaJSON describes [Document]. Structural rules the schema
// cannot express (unique IDs, edge endpoints) are checked by
// [Document.ToWorkflow].
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://canvaslayout.dev/schemas/document.json",
  "type": "object",
  "required": ["blocks"],
  "properties": {
    "blocks": {
      "oneOf": [
        { "type": "array", "items": { "$ref": "#/$defs/block" } },
        { "type": "object", "additionalProperties": { "$ref": "#/$defs/block" } }
      ]
    },
    "edges": {
      "type": ["array", "null"],
      "items": { "$ref": "#/$defs/edge" }
    },
    "options": { "$ref": "#/$defs/options" }
  },
  "$defs": {
    "position": {
      "type": "object",
      "properties": {
        "x": { "type": "number" },
        "y": { "type": "number" }
      }
    },
    "block": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "id": { "type": "string" },
        "type": { "type": "string", "minLength": 1 },
        "category": { "type": "string" },
        "enabled": { "type": "boolean" },
        "position": { "$ref": "#/$defs/position" },
        "parentId": { "type": ["string", "null"] },
        "data": {
          "type": "object",
          "properties": {
            "width": { "type": "number", "minimum": 0 },
            "height": { "type": "number", "minimum": 0 },
            "parentId": { "type": ["string", "null"] }
          }
        },
        "isWide": { "type": "boolean" },
        "horizontalHandles": { "type": ["boolean", "null"] }
      }
    },
    "edge": {
      "type": "object",
      "required": ["source", "target"],
      "properties": {
        "id": { "type": "string" },
        "source": { "type": "string", "minLength": 1 },
        "target": { "type": "string", "minLength": 1 },
        "sourceHandle": { "type": ["string", "null"] },
        "targetHandle": { "type": ["string", "null"] }
      }
    },
    "options": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "horizontalSpacing": { "type": "number", "minimum": 0 },
        "verticalSpacing": { "type": "number", "minimum": 0 },
        "startX": { "type": "number" },
        "startY": { "type": "number" },
        "alignByLayer": { "type": "boolean" },
        "handleOrientation": { "enum": ["auto", "horizontal", "vertical"] }
      }
    }
  }
}`

var documentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document schema: %w", err)
	}
	if err := c.AddResource(documentSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add document schema resource: %w", err)
	}
	return c.Compile(documentSchemaURL)
})

// ValidateDocument checks JSON-encoded data against the document schema.
// Violations are reported as one INVALID_WORKFLOW error listing each
// failing location.
func ValidateDocument(data []byte) error {
	sch, err := documentSchema()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "compile document schema")
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json")
	}
	if err := sch.Validate(inst); err != nil {
		return violationError(err)
	}
	return nil
}

func violationError(err error) error {
	var verr *jsonschema.ValidationError
	if !stderrors.As(err, &verr) {
		return errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "schema validation")
	}
	violations := Violations(verr)
	switch len(violations) {
	case 0:
		return errors.New(errors.ErrCodeInvalidWorkflow, "%s", verr.Error())
	case 1:
		return errors.New(errors.ErrCodeInvalidWorkflow, "%s", violations[0])
	default:
		return errors.New(errors.ErrCodeInvalidWorkflow, "%d schema violations: %s", len(violations), strings.Join(violations, "; "))
	}
}

// Violations flattens a validation error tree into "location: message"
// lines, one per leaf.
func Violations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		return []string{fmt.Sprintf("/%s: %s", strings.Join(verr.InstanceLocation, "/"), verr.Error())}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, Violations(cause)...)
	}
	return out
}
