package cyrkana

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/cyrkana/pkg/domain"
)

// Runner reads text line by line and writes its kana transliteration.
// It backs the interactive "type" command and is easy to drive from tests.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	// Trace prints every keystroke and its outcome after each line.
	Trace    bool
	Renderer ContentRenderer
}

// ContentRenderer transforms a line before it is written.
// This allows for TUI styling without coupling the core package to a terminal.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run transliterates every line with profileID until EOF or "exit"/"quit".
// The composition buffer does not carry across lines.
func (r *Runner) Run(ctx context.Context, engine *Engine, profileID string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)
	writer := r.Output

	if _, err := engine.Profile(profileID); err != nil {
		return err
	}

	if !r.Headless {
		fmt.Fprintf(writer, "--- cyrkana %s (%s) ---\n", Version, profileID)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}

		text, err := lineReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		eof := err == io.EOF

		line := strings.TrimRight(text, "\r\n")
		if line == "exit" || line == "quit" {
			if !r.Headless {
				fmt.Fprintln(writer, "Bye!")
			}
			return nil
		}

		if line != "" || !eof {
			ts, err := engine.Transliterate(ctx, profileID, line)
			if err != nil {
				return fmt.Errorf("transliteration error: %w", err)
			}

			output := ts.Output
			if r.Renderer != nil {
				if rendered, err := r.Renderer(output); err == nil {
					output = rendered
				}
			}
			fmt.Fprintln(writer, output)

			if r.Trace {
				for _, st := range ts.Steps {
					fmt.Fprintln(writer, FormatStep(st))
				}
			}
		}

		if eof {
			return nil
		}
	}
}

// FormatStep renders a step as a single trace line.
func FormatStep(st Step) string {
	if st.Passthrough {
		return fmt.Sprintf("  %q passthrough %q", st.Key, st.Outcome.Output)
	}
	switch st.Outcome.Action {
	case domain.ActionCommit:
		return fmt.Sprintf("  %q + %q -> commit %q", st.Buffer, st.Key, st.Outcome.Output)
	case domain.ActionComposing:
		return fmt.Sprintf("  %q + %q -> composing %q", st.Buffer, st.Key, st.Outcome.Buffer)
	default:
		return fmt.Sprintf("  %q + %q -> %s", st.Buffer, st.Key, st.Outcome.Action)
	}
}
