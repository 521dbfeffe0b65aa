package service

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	// ErrProviderUnavailable means no translation provider is configured or it
	// could not be constructed.
	ErrProviderUnavailable = errors.New("translation provider unavailable")
	ErrTranslationFailed   = errors.New("translation failed")
)
