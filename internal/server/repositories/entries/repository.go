// Package entries persists yearbook entries in PostgreSQL or SQLite.
package entries

import (
	"context"

	"github.com/dmitrijs2005/yearbook/internal/models"
)

// Repository is the row store behind the entry gateway.
type Repository interface {
	// List returns every entry, newest first.
	List(ctx context.Context) ([]models.Entry, error)
	// Create inserts entry. CreatedAt is filled in by the store.
	Create(ctx context.Context, entry *models.Entry) error
}

// Change is one row of the SQLite change log.
type Change struct {
	Seq   int64
	Op    string
	Entry models.Entry
}

// ChangeLog exposes the trigger-maintained change log used to emulate
// LISTEN/NOTIFY on SQLite.
type ChangeLog interface {
	// LastSeq returns the highest sequence number written so far, 0 if none.
	LastSeq(ctx context.Context) (int64, error)
	// ChangesSince returns up to limit changes with Seq > seq, oldest first.
	ChangesSince(ctx context.Context, seq int64, limit int) ([]Change, error)
}
