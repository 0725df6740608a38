package ports

import (
	"context"

	"github.com/aretw0/cyrkana/pkg/domain"
)

// ProfileSource retrieves the profile list of a pack.
type ProfileSource interface {
	// Profiles returns the raw JSON array of profile records.
	// Returns domain.ErrDocumentNotFound if the backend holds no profile list.
	Profiles(ctx context.Context) ([]byte, error)
}

// PhoneticSource retrieves the global phonetic table of a pack.
type PhoneticSource interface {
	// PhoneticTable returns the raw JSON object mapping phonetic keys to output.
	PhoneticTable(ctx context.Context) ([]byte, error)
}

// SchemaSource retrieves schemas by id.
type SchemaSource interface {
	// Schema returns the raw JSON schema document for id.
	// Returns domain.ErrDocumentNotFound if the schema does not exist.
	Schema(ctx context.Context, id string) ([]byte, error)

	// ListSchemas returns the ids of every schema the backend holds.
	ListSchemas(ctx context.Context) ([]string, error)
}

// PackSource is a backend holding a complete language pack.
type PackSource interface {
	ProfileSource
	PhoneticSource
	SchemaSource
}

// Watchable defines an interface for sources that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the id of every schema whose
	// document changed. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}

// PackPublisher writes a pack into a backend, replacing documents with the same keys.
type PackPublisher interface {
	Publish(ctx context.Context, pack domain.Pack) error
}
