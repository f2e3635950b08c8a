// Package storage is the content-addressable blob store behind claim
// evidence and the legacy submission log. Identifiers are derived from the
// bytes themselves, so storing identical content twice yields the same
// identifier and duplicate submissions deduplicate naturally.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the content identifier is unknown. Terminal.
	ErrNotFound = errors.New("content not found")
	// ErrUnavailable means the upstream store failed transiently. Callers
	// retry with backoff.
	ErrUnavailable = errors.New("content store unavailable")
)

// Store persists blobs under content-derived identifiers.
//
// Put is idempotent: identical bytes always yield the identical identifier.
// Blobs must outlive any claim referencing them.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, contentID string) ([]byte, error)
}
