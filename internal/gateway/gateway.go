// Package gateway orchestrates image ingest and secure retrieval across the
// content store, the local cache and the capability token service.
//
// The content store is the source of truth. The cache is written through on
// ingest and backfilled on read misses; cache failures never fail a read.
// There is no lock around ingest and cache priming: two concurrent replaces
// of the same record may leave the cache holding either image, which only
// wastes a cache slot because records reference blobs by id.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/leca/loqed-births/internal/imageproc"
	"github.com/leca/loqed-births/internal/metrics"
	"github.com/leca/loqed-births/internal/storage"
	"golang.org/x/sync/singleflight"
)

// Tokens issues and validates capability tokens for content ids.
type Tokens interface {
	Issue(contentID string) (string, error)
	Validate(tok string, window time.Duration) (string, error)
}

// Config holds gateway settings.
type Config struct {
	// BaseURL prefixes secure links, e.g. "http://localhost:5000".
	BaseURL string
	// TokenValidity is how long an issued token resolves.
	TokenValidity time.Duration
	Logger        *slog.Logger
}

// Gateway is the image ingest and retrieval facade.
type Gateway struct {
	store    storage.ContentStore
	cache    storage.Cache
	tokens   Tokens
	baseURL  string
	validity time.Duration
	logger   *slog.Logger
	fills    singleflight.Group
}

// New creates a Gateway.
func New(store storage.ContentStore, cache storage.Cache, tokens Tokens, cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		store:    store,
		cache:    cache,
		tokens:   tokens,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		validity: cfg.TokenValidity,
		logger:   logger.With("component", "gateway"),
	}
}

// Ingest normalizes raw, writes it to the content store and primes the
// cache. Nothing is cached when the store write fails. A failed cache write
// is logged only; the next read miss repairs it.
func (g *Gateway) Ingest(ctx context.Context, raw []byte, filename, contentType string) (string, error) {
	normalized, err := imageproc.Normalize(raw)
	if err != nil {
		return "", err
	}

	id, err := g.store.Put(ctx, normalized, filename, imageproc.ContentType)
	if err != nil {
		return "", err
	}

	if err := g.cache.Put(id, normalized); err != nil {
		metrics.RecordCacheWriteFailure("ingest")
		g.logger.Warn("cache prime failed", "content_id", id, "error", err)
	}

	metrics.ImagesIngested.Inc()
	g.logger.Info("image ingested",
		"content_id", id,
		"filename", filename,
		"source_content_type", contentType,
		"bytes", len(normalized),
	)
	return id, nil
}

// IssueSecureLink returns a URL that resolves to the content for the
// token validity window. The id is not checked for existence.
func (g *Gateway) IssueSecureLink(contentID string) (string, error) {
	tok, err := g.tokens.Issue(contentID)
	if err != nil {
		return "", err
	}
	return g.baseURL + "/secure_image/" + url.PathEscape(tok), nil
}

// Resolve validates tok and returns the image it grants access to.
// Invalid or expired tokens yield apperr.ErrTokenInvalid; a missing blob
// yields apperr.ErrNotFound.
func (g *Gateway) Resolve(ctx context.Context, tok string) ([]byte, string, error) {
	id, err := g.tokens.Validate(tok, g.validity)
	if err != nil {
		metrics.TokensRejected.Inc()
		return nil, "", err
	}
	return g.Load(ctx, id)
}

// Load returns the image for contentID from the cache, falling back to the
// content store and backfilling the cache on a miss. Concurrent misses for
// the same id share one store read.
func (g *Gateway) Load(ctx context.Context, contentID string) ([]byte, string, error) {
	data, ok, err := g.cache.Get(contentID)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		g.logger.Warn("cache read failed, using store", "content_id", contentID, "error", err)
	case ok:
		metrics.RecordCacheLookup("hit")
		return data, imageproc.ContentType, nil
	default:
		metrics.RecordCacheLookup("miss")
	}

	// The shared read must outlive any single caller's cancellation.
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := g.fills.Do(contentID, func() (interface{}, error) {
		data, _, err := g.store.Get(fillCtx, contentID)
		if err != nil {
			return nil, err
		}
		if err := g.cache.Put(contentID, data); err != nil {
			metrics.RecordCacheWriteFailure("backfill")
			g.logger.Warn("cache backfill failed", "content_id", contentID, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, "", err
	}
	return v.([]byte), imageproc.ContentType, nil
}

// Replace ingests the new image and then removes oldContentID. See
// ReplaceWith for the ordering guarantees.
func (g *Gateway) Replace(ctx context.Context, oldContentID string, raw []byte, filename, contentType string) (string, error) {
	return g.ReplaceWith(ctx, oldContentID, raw, filename, contentType, nil)
}

// ReplaceWith ingests the new image, calls commit with the new id (to point
// the owning record at it) and only then deletes oldContentID. When commit
// fails the new blob is removed and the old one is left untouched, so the
// record never references a deleted image. Failure to delete the old blob is
// logged and does not undo the replacement.
func (g *Gateway) ReplaceWith(ctx context.Context, oldContentID string, raw []byte, filename, contentType string, commit func(newContentID string) error) (string, error) {
	newID, err := g.Ingest(ctx, raw, filename, contentType)
	if err != nil {
		return "", err
	}

	if commit != nil {
		if err := commit(newID); err != nil {
			if rmErr := g.Remove(ctx, newID); rmErr != nil {
				metrics.OrphanCleanupFailures.Inc()
				g.logger.Error("removing uncommitted image failed", "content_id", newID, "error", rmErr)
			}
			return "", err
		}
	}

	if oldContentID != "" && oldContentID != newID {
		if err := g.Remove(ctx, oldContentID); err != nil {
			metrics.OrphanCleanupFailures.Inc()
			g.logger.Error("removing replaced image failed", "content_id", oldContentID, "error", err)
		}
	}
	return newID, nil
}

// Remove deletes contentID from the content store and the cache. Both
// deletions are idempotent, so repeating Remove after a partial failure
// converges.
func (g *Gateway) Remove(ctx context.Context, contentID string) error {
	storeErr := g.store.Delete(ctx, contentID)
	cacheErr := g.cache.Delete(contentID)
	return errors.Join(storeErr, cacheErr)
}
