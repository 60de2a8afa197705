// Package capture turns a picked file or a camera shot into the image a
// submission carries. The two sources are mutually exclusive: choosing one
// discards the other.
package capture

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/yearbook/internal/models"
)

// CapturedFilename names images that come from the camera.
const CapturedFilename = "captured-image.jpg"

// Kind tells where the current selection came from.
type Kind int

const (
	FromNone Kind = iota
	FromFile
	FromCamera
)

func (k Kind) String() string {
	switch k {
	case FromFile:
		return "file"
	case FromCamera:
		return "camera"
	default:
		return "none"
	}
}

// Source produces an image on demand.
type Source interface {
	Acquire(ctx context.Context) (*models.Image, error)
}

// Selection holds at most one image and remembers its origin.
type Selection struct {
	kind  Kind
	image *models.Image
}

// SetFile replaces any previous selection with a picked file.
func (s *Selection) SetFile(img *models.Image) {
	s.set(FromFile, img)
}

// SetCapture replaces any previous selection with a camera shot.
func (s *Selection) SetCapture(img *models.Image) {
	s.set(FromCamera, img)
}

func (s *Selection) set(k Kind, img *models.Image) {
	if img.Empty() {
		s.Clear()
		return
	}
	s.kind, s.image = k, normalize(img, k)
}

func (s *Selection) Clear() {
	s.kind, s.image = FromNone, nil
}

func (s *Selection) Kind() Kind {
	return s.kind
}

// Image returns the selected image or nil.
func (s *Selection) Image() *models.Image {
	return s.image
}

// Describe is a one-line preview such as "me.jpg (image/jpeg, 12 kB)".
func (s *Selection) Describe() string {
	if s.image == nil {
		return "no photo selected"
	}
	return fmt.Sprintf("%s (%s, %s, from %s)",
		s.image.Filename, s.image.ContentType, humanize.Bytes(uint64(len(s.image.Data))), s.kind)
}

func normalize(img *models.Image, k Kind) *models.Image {
	out := *img
	if out.Filename == "" || k == FromCamera {
		out.Filename = CapturedFilename
	}
	if out.ContentType == "" {
		out.ContentType = http.DetectContentType(out.Data)
	}
	return &out
}
