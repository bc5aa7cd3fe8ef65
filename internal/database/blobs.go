package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leca/loqed-births/internal/apperr"
	"github.com/leca/loqed-births/internal/storage"
)

// Compile-time check that BlobStore implements storage.ContentStore.
var _ storage.ContentStore = (*BlobStore)(nil)

// BlobStore is the content store of record, kept in the blobs table.
// Identifiers are random UUIDs assigned at Put time.
type BlobStore struct {
	db *sql.DB
}

func (b *BlobStore) Put(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	id := uuid.New().String()
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO blobs (id, filename, content_type, size, data, uploaded)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, filename, contentType, len(data), data, formatTime(time.Now()),
	)
	if err != nil {
		return "", storeErr("failed to store image", err)
	}
	return id, nil
}

func (b *BlobStore) Get(ctx context.Context, contentID string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT data, content_type FROM blobs WHERE id = ?`, contentID,
	).Scan(&data, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", apperr.New(apperr.KindNotFound, "image not found")
	}
	if err != nil {
		return nil, "", storeErr("failed to load image", err)
	}
	return data, contentType, nil
}

// Delete removes the blob. It is idempotent: deleting a missing id is a no-op.
func (b *BlobStore) Delete(ctx context.Context, contentID string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, contentID); err != nil {
		return storeErr("failed to delete image", err)
	}
	return nil
}

// Count returns the number of stored blobs.
func (b *BlobStore) Count(ctx context.Context) (int, error) {
	var count int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blobs`).Scan(&count)
	return count, err
}
