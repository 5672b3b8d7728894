package services

import "errors"

var (
	// ErrAuthentication rejects a request before any state change.
	ErrAuthentication   = errors.New("authentication failed")
	// ErrValidation marks malformed input or missing identifiers.
	ErrValidation       = errors.New("validation failed")
	// ErrNotFound marks a referenced room, room type, reservation or event
	// that does not exist.
	ErrNotFound         = errors.New("not found")
	// ErrUnsupportedEvent marks a stored event whose type has no handler.
	ErrUnsupportedEvent = errors.New("unsupported event")
)
