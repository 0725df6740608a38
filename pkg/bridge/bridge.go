// Package bridge adapts the engine to hosts that cannot see Go errors or
// values, such as the C ABI in cmd/libcyrkana.
//
// Every call takes and returns plain strings. Failures collapse to false (or
// an empty result) and leave a message behind that LastError returns. A
// panic inside a call is recovered and reported the same way, so a host
// process is never torn down by the engine.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/cyrkana"
)

// Bridge wraps one engine for a foreign host.
type Bridge struct {
	engine *cyrkana.Engine
	logger *slog.Logger

	mu      sync.Mutex
	lastErr string
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New creates a bridge around engine. A nil engine gets a fresh one.
func New(engine *cyrkana.Engine, opts ...Option) *Bridge {
	b := &Bridge{
		engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.engine == nil {
		b.engine = cyrkana.New(cyrkana.WithLogger(b.logger))
	}
	return b
}

// Engine returns the wrapped engine.
func (b *Bridge) Engine() *cyrkana.Engine {
	return b.engine
}

// Init initializes the engine with profile and phonetic table documents.
func (b *Bridge) Init(profilesJSON, phoneticJSON string) bool {
	return b.guard("init", func() error {
		return b.engine.Initialize(context.Background(), []byte(profilesJSON), []byte(phoneticJSON))
	})
}

// LoadSchema loads or replaces schemaID.
func (b *Bridge) LoadSchema(schemaJSON, schemaID string) bool {
	return b.guard("load_schema", func() error {
		return b.engine.LoadSchema(context.Background(), schemaID, []byte(schemaJSON))
	})
}

// ProcessKey returns the outcome of one keystroke as
// {"output":…,"buffer":…,"action":…}.
func (b *Bridge) ProcessKey(key, buffer, profileID string) (string, bool) {
	var out string
	ok := b.guard("process_key", func() error {
		outcome, err := b.engine.ProcessKey(context.Background(), key, buffer, profileID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(outcome)
		if err != nil {
			return err
		}
		out = string(data)
		return nil
	})
	return out, ok
}

// Profiles returns the registered profiles as a JSON array.
func (b *Bridge) Profiles() (string, bool) {
	var out string
	ok := b.guard("get_profiles", func() error {
		profiles, err := b.engine.Profiles()
		if err != nil {
			return err
		}
		data, err := json.Marshal(profiles)
		if err != nil {
			return err
		}
		out = string(data)
		return nil
	})
	return out, ok
}

// LastError returns the message of the most recent failed call, or "" when
// the most recent call succeeded. The message is shared by every caller of
// the bridge: with concurrent callers it is best-effort, since another
// caller's call may replace or clear it before it is read.
func (b *Bridge) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// guard runs fn, recovering panics, and records its error.
func (b *Bridge) guard(op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.fail(op, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	if err := fn(); err != nil {
		b.fail(op, err)
		return false
	}
	b.setLastError("")
	return true
}

func (b *Bridge) fail(op string, err error) {
	b.logger.Warn("bridge call failed", "op", op, "err", err)
	b.setLastError(fmt.Sprintf("%s: %v", op, err))
}

func (b *Bridge) setLastError(msg string) {
	b.mu.Lock()
	b.lastErr = msg
	b.mu.Unlock()
}
