package cyrkana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/cyrkana/internal/compiler"
	"github.com/aretw0/cyrkana/internal/runtime"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/cyrkana/pkg/ports"
)

// Engine is the high-level entry point for the cyrkana library.
// It parses raw pack documents, owns the shared runtime state and, when a
// pack source is configured, loads schemas on demand.
type Engine struct {
	runtime *runtime.Engine
	parser  *compiler.Parser
	source  ports.PackSource
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSource sets the pack source used by Boot, Activate, Preload and WatchSchemas.
func WithSource(src ports.PackSource) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// New creates an uninitialized engine.
func New(opts ...Option) *Engine {
	eng := &Engine{parser: compiler.NewParser()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	return eng
}

// Initialize parses the profile list and the phonetic table and creates the
// engine state with an empty schema cache.
func (e *Engine) Initialize(ctx context.Context, profilesJSON, phoneticJSON []byte) error {
	profiles, err := e.parser.ParseProfiles(profilesJSON)
	if err != nil {
		return err
	}
	table, err := e.parser.ParsePhoneticTable(phoneticJSON)
	if err != nil {
		return err
	}
	return e.runtime.Initialize(ctx, profiles, table)
}

// LoadSchema parses a schema document and stores it under schemaID,
// replacing any schema already loaded with that id.
func (e *Engine) LoadSchema(ctx context.Context, schemaID string, schemaJSON []byte) error {
	schema, err := e.parser.ParseSchema(schemaID, schemaJSON)
	if err != nil {
		return err
	}
	return e.runtime.LoadSchema(ctx, schemaID, schema)
}

// ProcessKey converts one keystroke. buffer is the composition the caller
// got back from the previous call ("" to start).
func (e *Engine) ProcessKey(ctx context.Context, key, buffer, profileID string) (domain.Outcome, error) {
	return e.runtime.ProcessKey(ctx, key, buffer, profileID)
}

// Profiles returns a copy of every registered profile.
func (e *Engine) Profiles() ([]domain.Profile, error) {
	return e.runtime.Profiles()
}

// Profile returns the profile registered under id.
func (e *Engine) Profile(id string) (domain.Profile, error) {
	return e.runtime.Profile(id)
}

// SchemaIDs lists the loaded schemas.
func (e *Engine) SchemaIDs() ([]string, error) {
	return e.runtime.SchemaIDs()
}

// Initialized reports whether the engine holds state.
func (e *Engine) Initialized() bool {
	return e.runtime.Initialized()
}

// Reset drops all state so Initialize can be called again.
func (e *Engine) Reset() {
	e.runtime.Reset()
}

// Source returns the configured pack source, or nil.
func (e *Engine) Source() ports.PackSource {
	return e.source
}

// Boot initializes the engine from src and keeps src as the source for
// later schema loads.
func (e *Engine) Boot(ctx context.Context, src ports.PackSource) error {
	if src == nil {
		return fmt.Errorf("boot: pack source is nil")
	}
	e.source = src

	profiles, err := src.Profiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to read profiles: %w", err)
	}
	phonetic, err := src.PhoneticTable(ctx)
	if err != nil {
		return fmt.Errorf("failed to read phonetic table: %w", err)
	}
	return e.Initialize(ctx, profiles, phonetic)
}

// Activate makes profileID ready for typing: its schema is loaded from the
// pack source unless it is already present.
func (e *Engine) Activate(ctx context.Context, profileID string) (domain.Profile, error) {
	prof, err := e.runtime.Profile(profileID)
	if err != nil {
		return domain.Profile{}, err
	}

	loaded, err := e.runtime.HasSchema(prof.InputSchemaID)
	if err != nil {
		return domain.Profile{}, err
	}
	if loaded {
		return prof, nil
	}

	if err := e.reload(ctx, prof.InputSchemaID); err != nil {
		return domain.Profile{}, err
	}
	e.logger.Info("profile activated", "profile_id", prof.ID, "schema_id", prof.InputSchemaID)
	return prof, nil
}

// Preload activates every registered profile. Failures do not stop the
// remaining profiles; they are returned joined.
func (e *Engine) Preload(ctx context.Context) error {
	profiles, err := e.runtime.Profiles()
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range profiles {
		if _, err := e.Activate(ctx, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("profile %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// WatchSchemas reloads loaded schemas whenever the pack source reports a
// change. It blocks until ctx is done or the source closes its channel.
// Schemas that were never loaded stay lazy.
func (e *Engine) WatchSchemas(ctx context.Context) error {
	w, ok := e.source.(ports.Watchable)
	if !ok {
		return fmt.Errorf("current source does not support watching")
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch source: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-changes:
			if !ok {
				return nil
			}
			loaded, err := e.runtime.HasSchema(id)
			if err != nil {
				return err
			}
			if !loaded {
				e.logger.Debug("ignoring change to schema that is not loaded", "schema_id", id)
				continue
			}
			if err := e.reload(ctx, id); err != nil {
				// Keep serving the previous table.
				e.logger.Error("schema reload failed", "schema_id", id, "err", err)
				continue
			}
			e.logger.Info("schema reloaded", "schema_id", id)
		}
	}
}

func (e *Engine) reload(ctx context.Context, schemaID string) error {
	if e.source == nil {
		return fmt.Errorf("%w: %s (no pack source configured)", domain.ErrSchemaNotLoaded, schemaID)
	}
	data, err := e.source.Schema(ctx, schemaID)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaID, err)
	}
	return e.LoadSchema(ctx, schemaID, data)
}
