package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/internal/config"
	"github.com/aretw0/cyrkana/internal/logging"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/cyrkana/pkg/observability"
	"github.com/aretw0/cyrkana/pkg/ports"
	"github.com/aretw0/cyrkana/pkg/registry"
)

// Options are the persistent flags shared by every command.
// Empty fields fall back to the configuration file.
type Options struct {
	ConfigPath string
	Source     string
	LogLevel   string
	Profile    string
}

// App is a booted engine together with everything it was built from.
type App struct {
	Config  *config.Config
	Engine  *cyrkana.Engine
	Source  ports.PackSource
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// LoadConfig reads the configuration and applies flag overrides.
func LoadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if opts.Source != "" {
		cfg.Source = opts.Source
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Profile != "" {
		cfg.DefaultProfile = opts.Profile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// createLogger builds the application logger; it always writes to stderr.
func createLogger(level string) (*slog.Logger, error) {
	return logging.FromString(level)
}

// Setup opens the pack source and boots an engine with CLI conventions:
// metrics are always collected, every event is logged at debug level and
// schemas are preloaded when the config asks for it.
func Setup(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	src, err := registry.Default(logger).Open(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}

	app, err := newApp(ctx, cfg, src, logger)
	if err != nil {
		_ = registry.Close(src)
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, src ports.PackSource, logger *slog.Logger) (*App, error) {
	metrics := observability.NewMetrics(true)
	engine := cyrkana.New(
		cyrkana.WithLogger(logger),
		cyrkana.WithLifecycleHooks(observability.Chain(
			metrics.Hooks(),
			observability.AuditHooks(logger),
		)),
	)

	if err := engine.Boot(ctx, src); err != nil {
		return nil, fmt.Errorf("error initializing cyrkana from %s: %w", cfg.Source, err)
	}
	if cfg.Preload {
		if err := engine.Preload(ctx); err != nil {
			return nil, fmt.Errorf("error preloading schemas: %w", err)
		}
	}

	return &App{
		Config:  cfg,
		Engine:  engine,
		Source:  src,
		Metrics: metrics,
		Logger:  logger,
	}, nil
}

// Close releases the pack source.
func (a *App) Close() error {
	return registry.Close(a.Source)
}

// Activate resolves profileID (or the configured default) and makes it ready.
func (a *App) Activate(ctx context.Context, profileID string) (domain.Profile, error) {
	if profileID == "" {
		profileID = a.Config.DefaultProfile
	}
	prof, err := a.Engine.Activate(ctx, profileID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		ids := []string{}
		if profiles, perr := a.Engine.Profiles(); perr == nil {
			for _, p := range profiles {
				ids = append(ids, p.ID)
			}
		}
		return domain.Profile{}, fmt.Errorf("%w (available: %v)", err, ids)
	}
	return prof, err
}

// StartWatch reloads changed schemas in the background when the config
// enables it and the source supports it. Cancel ctx to stop.
func (a *App) StartWatch(ctx context.Context) {
	if !a.Config.Watch {
		return
	}
	if _, ok := a.Source.(ports.Watchable); !ok {
		a.Logger.Warn("source does not support watching; hot reload disabled", "source", a.Config.Source)
		return
	}
	go func() {
		if err := a.Engine.WatchSchemas(ctx); err != nil {
			a.Logger.Error("schema watcher stopped", "err", err)
		}
	}()
	a.Logger.Info("watching pack source for schema changes", "source", a.Config.Source)
}
