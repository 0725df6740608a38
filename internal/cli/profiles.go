package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/cyrkana/internal/presentation/tui"
)

// ListProfiles prints the registered profiles as a table or as JSON.
func ListProfiles(app *App, asJSON, styled bool, w io.Writer) error {
	profiles, err := app.Engine.Profiles()
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}

	loaded := map[string]bool{}
	if ids, err := app.Engine.SchemaIDs(); err == nil {
		for _, id := range ids {
			loaded[id] = true
		}
	}

	md := tui.ProfilesMarkdown(profiles, loaded)
	if styled {
		if rendered, rerr := tui.NewRenderer()(md); rerr == nil {
			md = rendered
		}
	}
	_, err = fmt.Fprint(w, md)
	return err
}
