// Package storage uploads entry photos to object storage and returns the
// public URL that is written into the entry.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/yearbook/internal/filex"
)

// DefaultFilename names camera captures and files that arrive without a name.
const DefaultFilename = "captured-image.jpg"

// BlobStore stores one object and reports where the public can fetch it.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// NewKey returns a unique object key of the form
// entries/YYYY/MM/DD/<uuid>-<filename>.
func NewKey(t time.Time, filename string) string {
	name := filex.SafeName(filename)
	if name == "" {
		name = DefaultFilename
	}
	return fmt.Sprintf("entries/%04d/%02d/%02d/%s-%s", t.Year(), t.Month(), t.Day(), uuid.New(), name)
}
