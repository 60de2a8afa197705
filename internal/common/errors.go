// Package common defines sentinel errors shared by the server and client
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors.
	ErrMissingFields = errors.New("missing required fields")

	// Upstream I/O errors.
	ErrUpload      = errors.New("image upload failed")
	ErrInsert      = errors.New("entry insert failed")
	ErrUnavailable = errors.New("server unavailable")

	// Device capability errors.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// Form flow errors.
	ErrSubmitInProgress = errors.New("submission already in progress")

	// Feed errors.
	ErrSubscriptionClosed = errors.New("subscription closed")
)
