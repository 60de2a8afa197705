// Package models defines the yearbook data shared by the server and the
// terminal client.
package models

import "time"

// Entry is one yearbook submission.
type Entry struct {
	// ID is assigned once at creation and never changes.
	ID string `json:"id"`
	// Name and Quote are displayed as submitted.
	Name  string `json:"name"`
	Quote string `json:"quote"`
	// Image is the public URL of the stored photo.
	Image string `json:"image"`
	// CreatedAt is the only sort key (newest first).
	CreatedAt time.Time `json:"created_at"`
}

// IsPlaceholder reports whether e is an empty filler slot. Placeholders keep
// the grid geometry of a partially filled page and render invisibly.
func (e Entry) IsPlaceholder() bool {
	return e.Image == ""
}

// Image is the normalised photo payload, whether it came from a file picker
// or a camera capture.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Empty reports whether the image carries no bytes.
func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

// Submission is the input of a create call.
type Submission struct {
	Name  string
	Quote string
	Image *Image
}

// Result is the user-facing outcome of a create call.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
