package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventInitialize EventType = "initialize"
	EventSchemaLoad EventType = "schema_load"
	EventKey        EventType = "key"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// InitializeEvent is emitted after the registry is created.
type InitializeEvent struct {
	EventBase
	Profiles       int `json:"profiles"`
	PhoneticLength int `json:"phonetic_entries"`
}

// SchemaEvent is emitted after a schema is stored.
type SchemaEvent struct {
	EventBase
	SchemaID string `json:"schema_id"`
	Entries  int    `json:"entries"`
	Replaced bool   `json:"replaced"`
}

// KeyEvent is emitted for every processed key, successful or not.
type KeyEvent struct {
	EventBase
	ProfileID string  `json:"profile_id"`
	SchemaID  string  `json:"schema_id,omitempty"`
	Key       string  `json:"key"`
	Buffer    string  `json:"buffer"`
	Outcome   Outcome `json:"outcome"`
	// Discarded is true when the single-key fallback dropped a non-empty buffer.
	Discarded bool  `json:"discarded,omitempty"`
	Err       error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run outside the engine lock.
type LifecycleHooks struct {
	OnInitialize func(context.Context, *InitializeEvent)
	OnSchemaLoad func(context.Context, *SchemaEvent)
	OnKey        func(context.Context, *KeyEvent)
}
