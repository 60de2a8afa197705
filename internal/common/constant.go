package common

// Routes shared by the server and the terminal client.
const (
	DisplayRoute = "/"
	UploadRoute  = "/upload"
)

// Names of the backend objects.
const (
	EntriesTable  = "yearbook_entries"
	FeedChannel   = "yearbook_entries"
	DefaultBucket = "yearbook_images"
)

// CameraErrorText is what the user sees when no camera can be used, in the
// browser form and in the terminal client alike.
const CameraErrorText = "Could not access camera. Please ensure you've granted camera permissions."
