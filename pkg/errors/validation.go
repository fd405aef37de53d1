package errors

import (
	"slices"
	"strings"
	"unicode"
)

// maxIDLength bounds block and edge identifiers.
const maxIDLength = 256

// ValidateBlockID validates a block or edge identifier.
//
// IDs are opaque to the layout engine but end up in DOT output, cache keys,
// and JSON object keys, so the rules are conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No double quotes (they would break DOT node names)
//   - Maximum length of 256 characters
func ValidateBlockID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidWorkflow, "block id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidWorkflow, "block id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidWorkflow, "block id %q contains control characters", id)
		}
	}
	if strings.ContainsRune(id, '"') {
		return New(ErrCodeInvalidWorkflow, "block id %q contains a double quote", id)
	}
	return nil
}

// ValidateFormat checks that format is one of allowed (case-insensitive)
// and returns its lowercase form.
func ValidateFormat(format string, allowed ...string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		return "", New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(allowed, f) {
		return "", New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
	}
	return f, nil
}

// ValidatePath validates a file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
