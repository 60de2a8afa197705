package capture

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/yearbook/internal/models"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// FilePicker reads a photo from disk. Path is usually set from user input
// right before Acquire.
type FilePicker struct {
	Path string
}

func (p *FilePicker) Acquire(ctx context.Context) (*models.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(p.Path)
}

// Open loads the file at path. Only the bytes are checked; the server does
// no image validation beyond presence either.
func Open(path string) (*models.Image, error) {
	path = expandHome(strings.TrimSpace(path))
	if path == "" {
		return nil, fmt.Errorf("no file chosen")
	}

	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	return &models.Image{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
