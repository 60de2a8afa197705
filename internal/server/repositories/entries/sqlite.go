package entries

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/dbx"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

// TimeLayout is how SQLite stores created_at: fixed width, UTC, so text
// order matches time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var now = time.Now

// SQLiteRepository implements Repository and ChangeLog over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Entry, error) {
	query := `SELECT id, name, quote, image, created_at FROM yearbook_entries
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *SQLiteRepository) Create(ctx context.Context, entry *models.Entry) error {
	createdAt := now().UTC()

	query := `INSERT INTO yearbook_entries (id, name, quote, image, created_at)
		VALUES (?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Name, entry.Quote, entry.Image, createdAt.Format(TimeLayout)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	entry.CreatedAt = createdAt
	return nil
}

func (r *SQLiteRepository) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM entry_changes`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to read change log: %w", err)
	}
	return seq, nil
}

func (r *SQLiteRepository) ChangesSince(ctx context.Context, seq int64, limit int) ([]Change, error) {
	query := `SELECT seq, op, entry_id, name, quote, image, created_at FROM entry_changes
		WHERE seq > ? ORDER BY seq LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, seq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select changes: %w", err)
	}
	defer rows.Close()

	var result []Change
	for rows.Next() {
		var (
			c         Change
			createdAt any
		)
		if err := rows.Scan(&c.Seq, &c.Op, &c.Entry.ID, &c.Entry.Name, &c.Entry.Quote, &c.Entry.Image, &createdAt); err != nil {
			return nil, err
		}
		t, err := dbx.ParseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", c.Seq, err)
		}
		c.Entry.CreatedAt = t
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
