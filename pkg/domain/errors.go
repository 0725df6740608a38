package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned when profile, phonetic or schema data is malformed.
// A configuration error is fatal to the load call that produced it, never to the engine.
var ErrConfiguration = errors.New("configuration error")

// ErrNotInitialized is returned when an operation runs before the engine is initialized.
var ErrNotInitialized = errors.New("engine not initialized")

// ErrAlreadyInitialized is returned by a second initialize without a reset.
var ErrAlreadyInitialized = errors.New("engine already initialized")

// ErrProfileNotFound is returned when a profile id is not in the registry.
var ErrProfileNotFound = errors.New("profile not found")

// ErrSchemaNotLoaded is returned when a profile's schema has not been loaded yet.
var ErrSchemaNotLoaded = errors.New("schema not loaded")

// ErrInternal is returned once shared state is poisoned by a panic inside a critical section.
var ErrInternal = errors.New("internal error")

// ConfigurationError describes which input failed to parse and why.
// It matches both ErrConfiguration and the underlying cause with errors.Is.
type ConfigurationError struct {
	Source string // e.g. "profiles", "phonetic table", "schema schema_rus_v1"
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// NewConfigurationError wraps err as a configuration failure of source.
func NewConfigurationError(source string, err error) error {
	return &ConfigurationError{Source: source, Err: err}
}

// ErrDocumentNotFound is returned by pack sources when a requested document
// (profile list, phonetic table or schema) does not exist in the backend.
var ErrDocumentNotFound = errors.New("pack document not found")

// ErrorKind returns a stable label for err, used in metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, ErrDocumentNotFound):
		return "document_not_found"
	case errors.Is(err, ErrSchemaNotLoaded):
		return "schema_not_loaded"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	default:
		return "internal"
	}
}
