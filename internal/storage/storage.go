package storage

import "context"

// ContentStore is the durable blob store of record. Identifiers are assigned
// by the store on Put and never reused.
type ContentStore interface {
	// Put stores data and returns its newly assigned content id.
	Put(ctx context.Context, data []byte, filename, contentType string) (string, error)

	// Get returns the blob bytes and content type, or apperr.ErrNotFound.
	Get(ctx context.Context, contentID string) ([]byte, string, error)

	// Delete removes the blob. Deleting a missing id is not an error.
	Delete(ctx context.Context, contentID string) error
}

// Cache is a local, content-id keyed copy of blobs held by a ContentStore.
// Entries never expire; they are replaced or removed explicitly.
type Cache interface {
	// Put writes data for contentID, replacing any existing entry atomically.
	Put(contentID string, data []byte) error

	// Get returns the cached bytes. A missing entry is reported as
	// (nil, false, nil) so callers can fall back to the store.
	Get(contentID string) ([]byte, bool, error)

	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(contentID string) error
}
