package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/cyrkana/internal/presentation/tui"
	"github.com/aretw0/cyrkana/internal/validator"
	"github.com/aretw0/cyrkana/pkg/registry"
)

// ValidateOptions controls how a validation report is printed.
type ValidateOptions struct {
	JSON     bool
	Markdown bool // render through glamour instead of printing plain markdown
}

// Validate checks the configured pack source without booting an engine, so
// broken packs can still be inspected. It returns the report's error summary
// when the pack has errors.
func Validate(ctx context.Context, opts Options, vopts ValidateOptions, w io.Writer) (*validator.Report, error) {
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
	defer registry.Close(src)

	report, err := validator.ValidateSource(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("error reading pack: %w", err)
	}

	if vopts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return report, err
		}
		return report, report.Err()
	}

	md := tui.ReportMarkdown(cfg.Source, report)
	if vopts.Markdown {
		if rendered, rerr := tui.NewRenderer()(md); rerr == nil {
			md = rendered
		}
	}
	fmt.Fprint(w, md)
	return report, report.Err()
}
