package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/cyrkana/pkg/domain"
)

// Chain combines hooks; each callback runs in argument order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var inits []func(context.Context, *domain.InitializeEvent)
	var loads []func(context.Context, *domain.SchemaEvent)
	var keys []func(context.Context, *domain.KeyEvent)
	for _, h := range hooks {
		if h.OnInitialize != nil {
			inits = append(inits, h.OnInitialize)
		}
		if h.OnSchemaLoad != nil {
			loads = append(loads, h.OnSchemaLoad)
		}
		if h.OnKey != nil {
			keys = append(keys, h.OnKey)
		}
	}

	if len(inits) > 0 {
		out.OnInitialize = func(ctx context.Context, e *domain.InitializeEvent) {
			for _, fn := range inits {
				fn(ctx, e)
			}
		}
	}
	if len(loads) > 0 {
		out.OnSchemaLoad = func(ctx context.Context, e *domain.SchemaEvent) {
			for _, fn := range loads {
				fn(ctx, e)
			}
		}
	}
	if len(keys) > 0 {
		out.OnKey = func(ctx context.Context, e *domain.KeyEvent) {
			for _, fn := range keys {
				fn(ctx, e)
			}
		}
	}
	return out
}

// AuditHooks logs every lifecycle event. Keys are logged at debug level,
// rejected keys at warn.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInitialize: func(ctx context.Context, e *domain.InitializeEvent) {
			logger.InfoContext(ctx, "initialize",
				"profiles", e.Profiles,
				"phonetic_entries", e.PhoneticLength)
		},
		OnSchemaLoad: func(ctx context.Context, e *domain.SchemaEvent) {
			logger.InfoContext(ctx, "schema_load",
				"schema_id", e.SchemaID,
				"entries", e.Entries,
				"replaced", e.Replaced)
		},
		OnKey: func(ctx context.Context, e *domain.KeyEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "key_rejected",
					"profile_id", e.ProfileID,
					"key", e.Key,
					"err", e.Err)
				return
			}
			logger.DebugContext(ctx, "key",
				"profile_id", e.ProfileID,
				"key", e.Key,
				"buffer", e.Buffer,
				"action", e.Outcome.Action,
				"output", e.Outcome.Output,
				"discarded", e.Discarded)
		},
	}
}

func sinceSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return time.Since(t).Seconds()
}
