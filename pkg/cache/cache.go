// Package cache stores computed layouts and rendered artifacts.
//
// Layout is cheap but not free on large canvases, and rendering through
// Graphviz is the slowest step of the render path. Both are pure functions
// of their inputs, so results are cached under content-addressed keys:
//
//   - Layout keys hash the canonical workflow document and layout options
//   - Artifact keys hash the layout plus the output format
//
// # Backends
//
//   - [FileCache]: per-user directory cache for the CLI
//   - [RedisCache]: shared cache for the layout server
//   - [MemoryCache]: in-process cache for a single server without Redis
//   - [NullCache]: disables caching (--no-cache)
//
// # Keys
//
// A [Keyer] builds keys. [ScopedKeyer] prefixes another keyer so several
// tenants can share one backend.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored data and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	LayoutKey(documentHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout parameters that change a layout result.
type LayoutKeyOpts struct {
	HorizontalSpacing float64 `json:"h"`
	VerticalSpacing   float64 `json:"v"`
	StartX            float64 `json:"x"`
	StartY            float64 `json:"y"`
	AlignByLayer      bool    `json:"align"`
	Orientation       string  `json:"orientation"`
}

// ArtifactKeyOpts are the render parameters that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Labels bool   `json:"labels,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<sha256>" over the document hash and options.
func (DefaultKeyer) LayoutKey(documentHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", documentHash, opts)
}

// ArtifactKey returns "artifact:<sha256>" over the layout hash and options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
