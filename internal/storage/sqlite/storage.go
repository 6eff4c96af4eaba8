package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage"
)

// Storage is a SQLite-backed implementation of the store interface,
// using the pure-Go modernc driver.
type Storage struct {
	db *sql.DB

	// proxyMu serializes proxy find-or-create so the scan and insert
	// act as one unit. SQLite has a single writer anyway; this keeps the
	// read half of the operation inside the same critical section.
	proxyMu sync.Mutex
}

// Open opens (creating if needed) a SQLite identity store at path
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Close releases the underlying database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) CreateIdentity(ctx context.Context, id *model.Identity) error {
	return s.insert(ctx, s.db, id)
}

func (s *Storage) GetIdentity(ctx context.Context, publicID model.PublicID) (*model.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM identity WHERE public_id = ?`, string(publicID))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var found *model.Identity
	for rows.Next() {
		if found != nil {
			// More than one row for a UNIQUE column means the schema
			// constraint was bypassed; surface it, do not pick a row
			return nil, model.ErrIdentityConflict
		}
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		id, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		found = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, model.ErrIdentityNotFound
	}
	return found, nil
}

func (s *Storage) SaveIdentity(ctx context.Context, id *model.Identity) error {
	record, err := json.Marshal(id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE identity SET record = ?, email = ?, updated_at = ? WHERE public_id = ?`,
		string(record), emailColumn(id), id.UpdatedAt, string(id.PublicID))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrIdentityNotFound
	}
	return nil
}

func (s *Storage) FindParticipantsByEmail(ctx context.Context, email string) ([]*model.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM identity WHERE kind = ? AND email = ?`,
		string(model.KindParticipant), email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var matches []*model.Identity
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		id, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		matches = append(matches, id)
	}
	return matches, rows.Err()
}

func (s *Storage) FindOrCreateProxy(ctx context.Context, owns func(*model.Identity) bool, create func() (*model.Identity, error)) (*model.Identity, error) {
	s.proxyMu.Lock()
	defer s.proxyMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT record FROM identity WHERE kind = ?`,
		string(model.KindAnonymousProxy))
	if err != nil {
		return nil, err
	}

	var existing *model.Identity
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			_ = rows.Close()
			return nil, err
		}
		id, err := decodeRecord(record)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		if owns(id) {
			existing = id
			break
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if existing != nil {
		return existing, tx.Commit()
	}

	for {
		proxy, err := create()
		if err != nil {
			return nil, err
		}
		err = s.insert(ctx, tx, proxy)
		if err == nil {
			return proxy, tx.Commit()
		}
		if err != model.ErrDuplicateID {
			return nil, err
		}
		// public id collision, draw another
	}
}

// execer covers *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Storage) insert(ctx context.Context, ex execer, id *model.Identity) error {
	record, err := json.Marshal(id)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO identity (ref, public_id, kind, record, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(id.Ref), string(id.PublicID), string(id.Kind), string(record),
		emailColumn(id), id.CreatedAt, id.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.ErrDuplicateID
		}
		return err
	}
	return nil
}

func decodeRecord(record string) (*model.Identity, error) {
	var id model.Identity
	if err := json.Unmarshal([]byte(record), &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// emailColumn extracts the indexed email column value; proxies and
// participants without an email store NULL
func emailColumn(id *model.Identity) any {
	if id.Kind != model.KindParticipant || id.Profile.Email == "" {
		return nil
	}
	return id.Profile.Email
}
