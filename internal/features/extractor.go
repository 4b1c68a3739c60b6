// Package features turns an image into per-patch descriptor vectors.
//
// Extractors are caller-owned handles: construct one, use it, and Close it.
// There is no package-level model state.
package features

import (
	"context"
	"errors"
	"image"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("model file not found")
	// ErrRuntime wraps failures reported by the inference runtime.
	ErrRuntime = errors.New("inference runtime error")
	// ErrInvalidConfig is returned for unusable extractor settings.
	ErrInvalidConfig = errors.New("invalid extractor configuration")
	// ErrBadDescriptors is returned for malformed descriptor files.
	ErrBadDescriptors = errors.New("malformed descriptor matrix")
	// ErrClosed is returned when an extractor is used after Close.
	ErrClosed = errors.New("extractor is closed")
)

// Extractor produces an N×D descriptor matrix for an image, one row per
// patch in row-major grid order.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (*mat.Dense, error)
	Close() error
}
