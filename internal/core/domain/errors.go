package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionActive indicates the session id is already processing
	ErrSessionActive = errors.New("session already processing")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrRunStopped indicates the run observed its cancellation flag
	ErrRunStopped = errors.New("run stopped")

	// ErrNoDocuments indicates no source yielded any documents
	ErrNoDocuments = errors.New("no documents loaded from any source")

	// ErrLoaderNotFound indicates the source type has no registered loader
	ErrLoaderNotFound = errors.New("loader not found")

	// ErrInvalidProvider indicates an unknown embedding provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an external service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
