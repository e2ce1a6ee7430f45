package domain

import "errors"

var (
	// ErrUnsupportedFormat is returned when an attachment's extension is
	// not in the enabled format set.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMissingFileName is returned for document attachments without a
	// recognizable file name.
	ErrMissingFileName = errors.New("attachment has no file name")

	// ErrSessionFull is returned when a session already holds the maximum
	// number of images.
	ErrSessionFull = errors.New("session image limit reached")

	// ErrNothingToAssemble is returned when every input of an assembly job
	// failed to decode. Distinct from the empty-session case, which is
	// rejected before a job is created.
	ErrNothingToAssemble = errors.New("no images could be decoded")
)
