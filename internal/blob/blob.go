// Package blob is the client for the external artifact store. Artifacts are
// byte blobs (original images and derived thumbnails) addressed by
// owner-namespaced keys.
package blob

import (
	"context"
	"errors"
	"time"
)

var ErrPartialRemove = errors.New("some artifacts could not be removed")

// Store provides write, remove and presigned-read access to stored artifacts.
type Store interface {
	// Put writes body under key with the given content type.
	Put(ctx context.Context, key string, body []byte, contentType string) error

	// Remove deletes the given keys. Failures are collected per key; a
	// partial failure is reported wrapped in ErrPartialRemove.
	Remove(ctx context.Context, keys []string) error

	// PresignGet returns a URL from which the artifact can be fetched
	// without credentials until ttl elapses.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
