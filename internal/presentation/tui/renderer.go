package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/cyrkana/internal/validator"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// Rendering falls back to the raw markdown if the renderer cannot be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// NewKanaRenderer highlights converted text for the interactive prompt.
func NewKanaRenderer(w io.Writer) func(string) (string, error) {
	out := termenv.NewOutput(w)
	color := out.Color("#f472b6")
	return func(s string) (string, error) {
		return out.String(s).Foreground(color).Bold().String(), nil
	}
}

// ProfilesMarkdown renders profiles as a markdown table.
func ProfilesMarkdown(profiles []domain.Profile, loaded map[string]bool) string {
	var b strings.Builder
	b.WriteString("# Profiles\n\n")
	b.WriteString("| ID | Name | 名前 | Schema | Keys | Loaded |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, p := range profiles {
		mark := ""
		if loaded[p.InputSchemaID] {
			mark = "yes"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | `%s` | %d | %s |\n",
			p.ID, p.NameEn, p.NameJa, p.InputSchemaID, len(p.KeyboardLayout), mark)
	}
	return b.String()
}

// ReportMarkdown renders a validation report.
func ReportMarkdown(source string, r *validator.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation of `%s`\n\n", source)

	errs, warns := r.Errors(), r.Warnings()
	if len(errs) == 0 && len(warns) == 0 {
		b.WriteString("Pack is valid.\n")
		return b.String()
	}

	section := func(title string, issues []validator.Issue) {
		if len(issues) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s (%d)\n\n", title, len(issues))
		for _, is := range issues {
			fmt.Fprintf(&b, "- %s\n", is.String())
		}
		b.WriteString("\n")
	}
	section("Errors", errs)
	section("Warnings", warns)
	return b.String()
}
