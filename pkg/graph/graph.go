package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/canvaslayout/pkg/errors"
)

// Format is a document encoding.
type Format string

// Supported document encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// maxDocumentSize bounds decoded input.
const maxDocumentSize = 32 << 20

// FormatFromPath infers the encoding from a file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Document Serialization API
// =============================================================================

// ParseDocument decodes and schema-validates a workflow document.
func ParseDocument(data []byte, format Format) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, errors.New(errors.ErrCodeInvalidInput, "empty document")
	}

	jsonData := data
	if format == FormatYAML {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode yaml")
		}
		b, err := json.Marshal(v)
		if err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "yaml document is not representable as json")
		}
		jsonData = b
	}

	if err := ValidateDocument(jsonData); err != nil {
		return Document{}, err
	}

	var d Document
	if err := json.Unmarshal(jsonData, &d); err != nil {
		if errors.GetCode(err) != "" {
			return Document{}, err
		}
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json")
	}
	return d, nil
}

// ReadDocument decodes a document from r.
func ReadDocument(r io.Reader, format Format) (Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
	}
	if len(data) > maxDocumentSize {
		return Document{}, errors.New(errors.ErrCodeInvalidInput, "document exceeds %d bytes", maxDocumentSize)
	}
	return ParseDocument(data, format)
}

// ReadDocumentFile reads a document from path. The encoding follows the
// file extension; "-" reads JSON from stdin.
func ReadDocumentFile(path string) (Document, error) {
	if path == "-" {
		return ReadDocument(os.Stdin, FormatJSON)
	}
	if err := errors.ValidatePath(path); err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadDocument(f, FormatFromPath(path))
}

// MarshalDocument encodes d in the given format.
func MarshalDocument(d Document, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(d)
	}
	return json.MarshalIndent(d, "", "  ")
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// WriteLayout writes a Layout as JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Positions == nil {
		return Layout{}, fmt.Errorf("layout must contain positions")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
