package storage

import (
	"context"

	"github.com/pmorrell/surveyid/internal/model"
)

// Store defines the interface for identity persistence.
//
// The store is the only shared mutable resource in the system, so it
// carries the atomicity the flows rely on: CreateIdentity is
// create-if-absent on public id, and FindOrCreateProxy guarantees at
// most one proxy record is created per owner even under concurrent
// calls.
type Store interface {
	// CreateIdentity inserts a new identity record. It fails with
	// model.ErrDuplicateID if any record of any kind already holds the
	// public id; a losing concurrent registration must observe the
	// failure, never overwrite the winner.
	CreateIdentity(ctx context.Context, id *model.Identity) error

	// GetIdentity resolves a public id to its record. It fails with
	// model.ErrIdentityNotFound on a miss and model.ErrIdentityConflict
	// if the backing storage somehow holds more than one record for the
	// id.
	GetIdentity(ctx context.Context, publicID model.PublicID) (*model.Identity, error)

	// SaveIdentity persists changes to an existing record
	SaveIdentity(ctx context.Context, id *model.Identity) error

	// FindParticipantsByEmail returns every participant record sharing
	// the email address. Email is not unique; an empty result is not an
	// error.
	FindParticipantsByEmail(ctx context.Context, email string) ([]*model.Identity, error)

	// FindOrCreateProxy scans existing anonymous proxy records and
	// returns the first for which owns reports true. If none matches it
	// calls create and inserts the result, retrying create whenever the
	// generated public id collides with an existing record. The scan and
	// insert happen under the store's write exclusion so that two
	// concurrent calls for the same owner yield the same record.
	FindOrCreateProxy(ctx context.Context, owns func(*model.Identity) bool, create func() (*model.Identity, error)) (*model.Identity, error)
}
