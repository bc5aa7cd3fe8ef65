package database

import (
	"context"

	"github.com/leca/loqed-births/internal/model"
)

// Database defines the persistence interface for registry records.
//
// Every mutating person operation first writes a snapshot of the full person
// list in the same transaction, so the previous state is always recoverable
// from the store itself.
type Database interface {
	// Persons
	CreatePerson(ctx context.Context, p *model.Person) error
	GetPerson(ctx context.Context, id string) (*model.Person, error)
	ListPersons(ctx context.Context) ([]*model.Person, error)
	UpdatePerson(ctx context.Context, p *model.Person) error
	DeletePerson(ctx context.Context, id string) error

	// Snapshots
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
	CountSnapshots(ctx context.Context) (int, error)

	Close() error
}
