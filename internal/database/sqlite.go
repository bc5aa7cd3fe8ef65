package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leca/loqed-births/internal/apperr"
	"github.com/leca/loqed-births/internal/model"
	_ "modernc.org/sqlite"
)

// Compile-time check that SQLiteDB implements Database.
var _ Database = (*SQLiteDB)(nil)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// For in-memory use pass "file:<name>?mode=memory&cache=shared".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	} else if !strings.Contains(dsn, "journal_mode") {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions from
	// tripping over each other with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Blobs returns the content store that shares this database.
func (s *SQLiteDB) Blobs() *BlobStore {
	return &BlobStore{db: s.db}
}

// ---------------------------------------------------------------------------
// Persons
// ---------------------------------------------------------------------------

const personColumns = `id, name, birth_date, image_filename, image_id, created_at, updated_at`

func (s *SQLiteDB) CreatePerson(ctx context.Context, p *model.Person) error {
	return s.withSnapshot(ctx, model.ReasonAdd, func(tx *sql.Tx) error {
		if err := checkDuplicateName(ctx, tx, p.Name, p.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO persons (`+personColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.BirthDate, p.ImageFilename, p.ImageID,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		)
		if err != nil {
			return storeErr("failed to insert person", err)
		}
		return nil
	})
}

func (s *SQLiteDB) GetPerson(ctx context.Context, id string) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "person not found")
	}
	if err != nil {
		return nil, storeErr("failed to load person", err)
	}
	return p, nil
}

func (s *SQLiteDB) ListPersons(ctx context.Context) ([]*model.Person, error) {
	persons, err := listPersons(ctx, s.db)
	if err != nil {
		return nil, storeErr("failed to list persons", err)
	}
	return persons, nil
}

func (s *SQLiteDB) UpdatePerson(ctx context.Context, p *model.Person) error {
	return s.withSnapshot(ctx, model.ReasonUpdate, func(tx *sql.Tx) error {
		if err := checkDuplicateName(ctx, tx, p.Name, p.ID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE persons SET name = ?, birth_date = ?, image_filename = ?, image_id = ?, updated_at = ?
			WHERE id = ?`,
			p.Name, p.BirthDate, p.ImageFilename, p.ImageID, formatTime(p.UpdatedAt), p.ID,
		)
		if err != nil {
			return storeErr("failed to update person", err)
		}
		return checkRowsAffected(res, "person not found")
	})
}

func (s *SQLiteDB) DeletePerson(ctx context.Context, id string) error {
	return s.withSnapshot(ctx, model.ReasonDelete, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, id)
		if err != nil {
			return storeErr("failed to delete person", err)
		}
		return checkRowsAffected(res, "person not found")
	})
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// withSnapshot runs fn in a transaction that first records the current
// person list. The snapshot is discarded together with the mutation if fn
// fails.
func (s *SQLiteDB) withSnapshot(ctx context.Context, reason string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("failed to begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback failed", "reason", reason, "error", err)
		}
	}()

	current, err := listPersons(ctx, tx)
	if err != nil {
		return storeErr("failed to read current persons", err)
	}
	payload := make([]model.Person, 0, len(current))
	for _, p := range current {
		payload = append(payload, *p)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (reason, created_at, persons) VALUES (?, ?, ?)`,
		reason, formatTime(time.Now()), string(data),
	); err != nil {
		return storeErr("failed to write snapshot", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("failed to commit transaction", err)
	}
	return nil
}

func (s *SQLiteDB) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reason, created_at, persons FROM snapshots
		ORDER BY id DESC LIMIT 1`)

	snap := &model.Snapshot{}
	var createdStr, personsStr string
	err := row.Scan(&snap.ID, &snap.Reason, &createdStr, &personsStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "no snapshot recorded")
	}
	if err != nil {
		return nil, storeErr("failed to load snapshot", err)
	}
	snap.CreatedAt = parseTime(createdStr)
	if err := json.Unmarshal([]byte(personsStr), &snap.Persons); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (s *SQLiteDB) CountSnapshots(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&count)
	return count, err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...interface{}) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func listPersons(ctx context.Context, q querier) ([]*model.Person, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+personColumns+` FROM persons ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []*model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func scanPerson(row scannable) (*model.Person, error) {
	p := &model.Person{}
	var createdStr, updatedStr string
	err := row.Scan(&p.ID, &p.Name, &p.BirthDate, &p.ImageFilename, &p.ImageID, &createdStr, &updatedStr)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdStr)
	p.UpdatedAt = parseTime(updatedStr)
	return p, nil
}

func checkDuplicateName(ctx context.Context, tx *sql.Tx, name, exceptID string) error {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM persons WHERE name = ? COLLATE NOCASE AND id != ?`,
		name, exceptID,
	).Scan(&n)
	if err != nil {
		return storeErr("failed to check name", err)
	}
	if n > 0 {
		return apperr.New(apperr.KindDuplicateName, fmt.Sprintf("a person named %q already exists", name))
	}
	return nil
}

// timeLayout has a fixed-width fraction so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func storeErr(msg string, err error) error {
	return apperr.Wrap(apperr.KindStoreIO, msg, err)
}

func checkRowsAffected(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("failed to read result", err)
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, notFoundMsg)
	}
	return nil
}
