// Package registry implements person CRUD on top of the record store and the
// image gateway, plus the natural-language query over the records.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leca/loqed-births/internal/apperr"
	"github.com/leca/loqed-births/internal/database"
	"github.com/leca/loqed-births/internal/llm"
	"github.com/leca/loqed-births/internal/model"
	"github.com/leca/loqed-births/internal/validation"
)

// Images is the part of the image gateway the registry needs.
type Images interface {
	Ingest(ctx context.Context, raw []byte, filename, contentType string) (string, error)
	ReplaceWith(ctx context.Context, oldContentID string, raw []byte, filename, contentType string, commit func(newContentID string) error) (string, error)
	Remove(ctx context.Context, contentID string) error
}

// Upload is an uploaded image file.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// CreateInput holds the fields of a new person.
type CreateInput struct {
	Name      string
	BirthDate string
	Image     Upload
}

// UpdateInput holds optional changes to a person. Nil fields are left as is.
type UpdateInput struct {
	Name      *string
	BirthDate *string
	Image     *Upload
}

// Service is the registry.
type Service struct {
	db        database.Database
	images    Images
	validator *validation.Validator
	answerer  llm.Answerer
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for timestamps and date validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service.
func New(db database.Database, images Images, answerer llm.Answerer, opts ...Option) *Service {
	s := &Service{
		db:       db,
		images:   images,
		answerer: answerer,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validation.New(s.now)
	s.logger = s.logger.With("component", "registry")
	return s
}

// imageFilename builds the stored filename hint from the person's name.
func imageFilename(name string, at time.Time) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_") + "_" + at.Format("20060102150405") + ".jpg"
}

// Create validates in, ingests the image and stores the person. If the
// record cannot be stored the ingested image is removed again.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Person, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	if err := s.validator.Person(validation.PersonInput{Name: in.Name, BirthDate: in.BirthDate}); err != nil {
		return nil, err
	}
	if len(in.Image.Data) == 0 {
		return nil, apperr.New(apperr.KindValidation, "imagem: is required")
	}

	now := s.now().UTC()
	filename := imageFilename(in.Name, now)

	imageID, err := s.images.Ingest(ctx, in.Image.Data, filename, in.Image.ContentType)
	if err != nil {
		return nil, err
	}

	p := &model.Person{
		ID:            uuid.New().String(),
		Name:          in.Name,
		BirthDate:     in.BirthDate,
		ImageFilename: filename,
		ImageID:       imageID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.CreatePerson(ctx, p); err != nil {
		if rmErr := s.images.Remove(ctx, imageID); rmErr != nil {
			s.logger.Error("removing image of rejected person failed", "content_id", imageID, "error", rmErr)
		}
		return nil, err
	}

	s.logger.Info("person created", "person_id", p.ID, "content_id", imageID)
	return p, nil
}

// Get returns one person.
func (s *Service) Get(ctx context.Context, id string) (*model.Person, error) {
	return s.db.GetPerson(ctx, id)
}

// List returns all persons.
func (s *Service) List(ctx context.Context) ([]*model.Person, error) {
	return s.db.ListPersons(ctx)
}

// Update applies the provided changes. A new image replaces the old one; the
// old blob is deleted only after the record points at the new one.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Person, error) {
	p, err := s.db.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := s.validator.Name(name); err != nil {
			return nil, err
		}
		p.Name = name
	}
	if in.BirthDate != nil {
		date := strings.TrimSpace(*in.BirthDate)
		if err := s.validator.BirthDate(date); err != nil {
			return nil, err
		}
		p.BirthDate = date
	}

	now := s.now().UTC()
	p.UpdatedAt = now

	if in.Image == nil || len(in.Image.Data) == 0 {
		if err := s.db.UpdatePerson(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}

	oldImageID := p.ImageID
	oldFilename := p.ImageFilename
	p.ImageFilename = imageFilename(p.Name, now)
	_, err = s.images.ReplaceWith(ctx, oldImageID, in.Image.Data, p.ImageFilename, in.Image.ContentType, func(newID string) error {
		p.ImageID = newID
		return s.db.UpdatePerson(ctx, p)
	})
	if err != nil {
		p.ImageID = oldImageID
		p.ImageFilename = oldFilename
		return nil, err
	}

	s.logger.Info("person image replaced", "person_id", p.ID, "old_content_id", oldImageID, "content_id", p.ImageID)
	return p, nil
}

// Delete removes the person, its image blob and its cache entry. Deleting a
// person that no longer exists succeeds, so retries after a partial failure
// converge.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.db.GetPerson(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if p.ImageID != "" {
		if err := s.images.Remove(ctx, p.ImageID); err != nil {
			return err
		}
	}

	if err := s.db.DeletePerson(ctx, id); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	s.logger.Info("person deleted", "person_id", id, "content_id", p.ImageID)
	return nil
}

// Ask answers question using the person list before the latest change and
// the current one.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperr.New(apperr.KindValidation, "pergunta: is required")
	}

	current, err := s.db.ListPersons(ctx)
	if err != nil {
		return "", err
	}
	after := make([]model.Person, 0, len(current))
	for _, p := range current {
		after = append(after, *p)
	}

	before := after
	snap, err := s.db.LatestSnapshot(ctx)
	switch {
	case err == nil:
		before = snap.Persons
	case !errors.Is(err, apperr.ErrNotFound):
		return "", err
	}

	answer, err := s.answerer.Answer(ctx, question, before, after)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return "", apperr.Wrap(apperr.KindInternal, "query feature is not configured", err)
		}
		return "", apperr.Wrap(apperr.KindInternal, "failed to answer question", err)
	}
	return answer, nil
}
