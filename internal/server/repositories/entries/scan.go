package entries

import (
	"fmt"

	"github.com/dmitrijs2005/yearbook/internal/dbx"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows rowScanner) ([]models.Entry, error) {
	result := []models.Entry{}
	for rows.Next() {
		var (
			item      models.Entry
			createdAt any
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Quote, &item.Image, &createdAt); err != nil {
			return nil, err
		}
		t, err := dbx.ParseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", item.ID, err)
		}
		item.CreatedAt = t
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
