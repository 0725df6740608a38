package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/cyrkana"
)

// ConvertOptions controls a one-shot conversion.
type ConvertOptions struct {
	Profile string
	JSON    bool
	Trace   bool
}

// Convert transliterates each line of text and writes the result to w.
// With JSON set every line becomes one Transcript object (JSON Lines).
func Convert(ctx context.Context, app *App, text string, opts ConvertOptions, w io.Writer) error {
	prof, err := app.Activate(ctx, opts.Profile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, line := range strings.Split(strings.TrimRight(text, "\r\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		tr, err := app.Engine.Transliterate(ctx, prof.ID, line)
		if err != nil {
			return fmt.Errorf("transliteration error: %w", err)
		}

		if opts.JSON {
			if err := enc.Encode(tr); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(w, tr.Output)
		if opts.Trace {
			for _, st := range tr.Steps {
				fmt.Fprintln(w, cyrkana.FormatStep(st))
			}
		}
	}
	return nil
}
