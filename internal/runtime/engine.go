package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/cyrkana/internal/compiler"
	"github.com/aretw0/cyrkana/pkg/domain"
)

// Engine is the shared state container and the conversion state machine.
// Any number of readers (ProcessKey, Profiles) run together; Initialize,
// LoadSchema and Reset exclude everyone else while they swap state in.
type Engine struct {
	mu       sync.RWMutex
	reg      *registry
	poisoned atomic.Bool

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an uninitialized engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize creates the registry. Calling it twice without Reset fails with
// ErrAlreadyInitialized; that guard is a policy choice so a long-lived host
// cannot silently clobber the profiles every caller relies on.
func (e *Engine) Initialize(ctx context.Context, profiles []domain.Profile, table domain.PhoneticTable) error {
	reg := newRegistry(profiles, table)

	err := e.write(func() error {
		if e.reg != nil {
			return domain.ErrAlreadyInitialized
		}
		e.reg = reg
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("engine initialized", "profiles", len(reg.profiles), "phonetic_entries", len(reg.phonetic))
	if e.hooks.OnInitialize != nil {
		e.hooks.OnInitialize(ctx, &domain.InitializeEvent{
			EventBase:      domain.EventBase{Timestamp: time.Now(), Type: domain.EventInitialize},
			Profiles:       len(reg.profiles),
			PhoneticLength: len(reg.phonetic),
		})
	}
	return nil
}

// LoadSchema stores schema under schemaID, replacing any previous schema
// with that id as a whole. The prefix index is built before the lock is
// taken, so readers never observe a half-built schema.
func (e *Engine) LoadSchema(ctx context.Context, schemaID string, schema domain.Schema) error {
	compiled := compileSchema(schemaID, schema)

	var replaced bool
	err := e.write(func() error {
		if e.reg == nil {
			return domain.ErrNotInitialized
		}
		_, replaced = e.reg.schemas[schemaID]
		e.reg.schemas[schemaID] = compiled
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Debug("schema loaded", "schema_id", schemaID, "entries", len(compiled.entries), "replaced", replaced)
	if e.hooks.OnSchemaLoad != nil {
		e.hooks.OnSchemaLoad(ctx, &domain.SchemaEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSchemaLoad},
			SchemaID:  schemaID,
			Entries:   len(compiled.entries),
			Replaced:  replaced,
		})
	}
	return nil
}

// Profiles returns a copy of the registered profiles in registration order.
func (e *Engine) Profiles() ([]domain.Profile, error) {
	var out []domain.Profile
	err := e.read(func(reg *registry) error {
		out = domain.CloneProfiles(reg.profiles)
		return nil
	})
	return out, err
}

// Profile resolves a single profile by id.
func (e *Engine) Profile(id string) (domain.Profile, error) {
	var out domain.Profile
	err := e.read(func(reg *registry) error {
		p, ok := reg.profile(id)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id)
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

// SchemaIDs lists the loaded schema ids, sorted.
func (e *Engine) SchemaIDs() ([]string, error) {
	var ids []string
	err := e.read(func(reg *registry) error {
		ids = make([]string, 0, len(reg.schemas))
		for id := range reg.schemas {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return nil
	})
	return ids, err
}

// HasSchema reports whether schemaID is loaded.
func (e *Engine) HasSchema(schemaID string) (bool, error) {
	var ok bool
	err := e.read(func(reg *registry) error {
		_, ok = reg.schemas[schemaID]
		return nil
	})
	return ok, err
}

// ProcessKey runs one keystroke through the state machine. The buffer is
// owned by the caller; the engine keeps no per-composition state.
func (e *Engine) ProcessKey(ctx context.Context, key, buffer, profileID string) (domain.Outcome, error) {
	key = compiler.Normalize(key)

	evt := &domain.KeyEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventKey},
		ProfileID: profileID,
		Key:       key,
		Buffer:    buffer,
	}

	var st step
	err := e.read(func(reg *registry) error {
		prof, ok := reg.profile(profileID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profileID)
		}
		evt.SchemaID = prof.InputSchemaID

		schema, ok := reg.schemas[prof.InputSchemaID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSchemaNotLoaded, prof.InputSchemaID)
		}

		st = convert(schema, reg.phonetic, key, buffer)
		return nil
	})

	if err == nil {
		evt.Outcome = st.outcome
		evt.Discarded = st.discarded
		if st.degraded != "" {
			e.logger.Warn("phonetic key missing from table, committing it verbatim",
				"schema_id", evt.SchemaID, "kana_key", st.degraded)
		}
		if st.discarded {
			e.logger.Debug("single-key fallback discarded buffer", "profile_id", profileID, "buffer", buffer, "key", key)
		}
	} else {
		evt.Err = err
	}

	if e.hooks.OnKey != nil {
		e.hooks.OnKey(ctx, evt)
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	return st.outcome, nil
}

// Initialized reports whether Initialize has succeeded since the last Reset.
func (e *Engine) Initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reg != nil
}

// Reset drops all state, including a poisoned flag, so Initialize can run again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg = nil
	e.poisoned.Store(false)
	e.logger.Info("engine reset")
}

// write runs fn under the exclusive lock. A panic inside fn poisons the
// engine: the state may be half-updated, so every later call reports
// ErrInternal until Reset.
func (e *Engine) write(fn func() error) (err error) {
	if e.poisoned.Load() {
		return fmt.Errorf("%w: engine state is poisoned", domain.ErrInternal)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			e.poisoned.Store(true)
			e.logger.Error("panic while holding write lock", "panic", r)
			err = fmt.Errorf("%w: panic while holding write lock: %v", domain.ErrInternal, r)
		}
	}()

	return fn()
}

// read runs fn under the shared lock with the current registry.
func (e *Engine) read(fn func(*registry) error) (err error) {
	if e.poisoned.Load() {
		return fmt.Errorf("%w: engine state is poisoned", domain.ErrInternal)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while holding read lock", "panic", r)
			err = fmt.Errorf("%w: panic while holding read lock: %v", domain.ErrInternal, r)
		}
	}()

	if e.reg == nil {
		return domain.ErrNotInitialized
	}
	return fn(e.reg)
}
