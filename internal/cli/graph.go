package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/cyrkana/internal/compiler"
	"github.com/aretw0/cyrkana/internal/presentation/graph"
)

// Graph writes the composition states of a profile's schema as Mermaid.
// A non-empty buffer is highlighted along its path.
func Graph(ctx context.Context, app *App, profileID, buffer string, w io.Writer) error {
	if profileID == "" {
		profileID = app.Config.DefaultProfile
	}
	prof, err := app.Engine.Profile(profileID)
	if err != nil {
		return err
	}

	parser := compiler.NewParser()
	data, err := app.Source.Schema(ctx, prof.InputSchemaID)
	if err != nil {
		return fmt.Errorf("error reading schema %s: %w", prof.InputSchemaID, err)
	}
	schema, err := parser.ParseSchema(prof.InputSchemaID, data)
	if err != nil {
		return err
	}
	phonetic, err := app.Source.PhoneticTable(ctx)
	if err != nil {
		return fmt.Errorf("error reading phonetic table: %w", err)
	}
	table, err := parser.ParsePhoneticTable(phonetic)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if buffer != "" {
		overlay = &graph.Overlay{Buffer: buffer}
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(schema, table, overlay))
	return err
}
