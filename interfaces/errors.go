package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned when a provider type is not registered
	// with the connector factory.
	ErrUnknownProvider = errors.New("unknown storage provider")

	// ErrContentNotFound is returned when a requested artifact cannot be
	// found at a storage provider.
	ErrContentNotFound = errors.New("content not found")

	// ErrProviderUnavailable is returned when a storage provider is not
	// accessible. This could be due to network issues, authentication
	// failures, or service outages.
	ErrProviderUnavailable = errors.New("storage provider unavailable")

	// ErrUploadUnsupported is returned by connectors that can be probed
	// but have no upload implementation.
	ErrUploadUnsupported = errors.New("provider does not support uploads")

	// ErrNotFound is returned by registries when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned when a submission status change is
	// not permitted by the workflow transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// UploadError is the typed failure for a primary upload. It carries the
// provider that failed and the underlying cause, including timeouts.
type UploadError struct {
	Provider ProviderType
	Err      error
}

// Error implements the error interface.
func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s failed: %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *UploadError) Unwrap() error {
	return e.Err
}
