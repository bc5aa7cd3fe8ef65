// Package migrate reprocesses stored person images through the current
// normalization pipeline.
package migrate

import (
	"context"
	"log/slog"
	"time"

	"github.com/leca/loqed-births/internal/database"
)

// Images is the part of the image gateway the migration needs.
type Images interface {
	Load(ctx context.Context, contentID string) ([]byte, string, error)
	ReplaceWith(ctx context.Context, oldContentID string, raw []byte, filename, contentType string, commit func(newContentID string) error) (string, error)
}

// Result summarises a run.
type Result struct {
	Processed int
	Skipped   int
	Failed    int
}

// Migrator rewrites every person's image one record at a time.
type Migrator struct {
	db     database.Database
	images Images
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Migrator.
func New(db database.Database, images Images, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		db:     db,
		images: images,
		logger: logger.With("component", "migrate"),
		now:    time.Now,
	}
}

// Run reprocesses all images. A record that fails is logged and counted and
// the run moves on; only listing failures and cancellation abort it.
func (m *Migrator) Run(ctx context.Context) (Result, error) {
	var res Result

	persons, err := m.db.ListPersons(ctx)
	if err != nil {
		return res, err
	}

	for _, p := range persons {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if p.ImageID == "" {
			res.Skipped++
			continue
		}

		data, contentType, err := m.images.Load(ctx, p.ImageID)
		if err != nil {
			res.Failed++
			m.logger.Error("loading image failed", "person_id", p.ID, "content_id", p.ImageID, "error", err)
			continue
		}

		oldID := p.ImageID
		newID, err := m.images.ReplaceWith(ctx, oldID, data, p.ImageFilename, contentType, func(newID string) error {
			p.ImageID = newID
			p.UpdatedAt = m.now().UTC()
			return m.db.UpdatePerson(ctx, p)
		})
		if err != nil {
			res.Failed++
			m.logger.Error("reprocessing image failed", "person_id", p.ID, "content_id", oldID, "error", err)
			continue
		}

		res.Processed++
		m.logger.Info("image reprocessed", "person_id", p.ID, "old_content_id", oldID, "content_id", newID)
	}

	m.logger.Info("migration finished", "processed", res.Processed, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
