package entries

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/yearbook/internal/dbx"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Entry, error) {
	query := `SELECT id, name, quote, image, created_at FROM yearbook_entries
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Create inserts entry and reads back the database-assigned created_at.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) error {
	query := `INSERT INTO yearbook_entries (id, name, quote, image)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	var createdAt any
	err := r.db.QueryRowContext(ctx, query, entry.ID, entry.Name, entry.Quote, entry.Image).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	t, err := dbx.ParseTime(createdAt)
	if err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	entry.CreatedAt = t
	return nil
}
