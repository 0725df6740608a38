package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/cyrkana/internal/validator"
	"github.com/aretw0/cyrkana/pkg/ports"
	"github.com/aretw0/cyrkana/pkg/registry"
)

// Push copies the configured pack into target, which must be a source that
// accepts publishing (redis:// or sqlite://). The pack is validated first and
// nothing is written when it has errors.
func Push(ctx context.Context, opts Options, target string) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	if target == "" {
		target = cfg.RedisURI()
	}

	reg := registry.Default(logger)
	src, err := reg.Open(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer registry.Close(src)

	pack, err := ports.ReadPack(ctx, src)
	if err != nil {
		return fmt.Errorf("error reading pack: %w", err)
	}
	report, err := validator.Validate(pack)
	if err != nil {
		return err
	}
	if err := report.Err(); err != nil {
		return fmt.Errorf("refusing to push invalid pack: %w", err)
	}

	dst, err := reg.Open(ctx, target)
	if err != nil {
		return err
	}
	defer registry.Close(dst)

	pub, ok := dst.(ports.PackPublisher)
	if !ok {
		return fmt.Errorf("target %s does not accept packs", target)
	}
	if err := pub.Publish(ctx, pack); err != nil {
		return fmt.Errorf("error publishing pack: %w", err)
	}

	logger.Info("pack pushed", "from", cfg.Source, "schemas", len(pack.Schemas), "warnings", len(report.Warnings()))
	return nil
}
