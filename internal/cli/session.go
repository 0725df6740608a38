package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/internal/presentation/tui"
)

// SessionOptions configures an interactive typing session.
type SessionOptions struct {
	Profile  string
	Headless bool
	Trace    bool
	Input    io.Reader
	Output   io.Writer
}

// RunSession reads lines from the terminal and prints their kana until EOF,
// "exit" or an interrupt. Schemas reload in the background when watching is on.
func RunSession(ctx context.Context, app *App, opts SessionOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	prof, err := app.Activate(ctx, opts.Profile)
	if err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	app.StartWatch(watchCtx)

	r := cyrkana.NewRunner()
	r.Input = NewInterruptibleReader(opts.Input, ctx.Done())
	r.Output = opts.Output
	r.Headless = opts.Headless
	r.Trace = opts.Trace

	if !opts.Headless {
		if f, ok := opts.Output.(*os.File); ok && tui.IsTerminal(f) {
			tui.PrintBanner(opts.Output, cyrkana.Version)
			r.Renderer = tui.NewKanaRenderer(opts.Output)
		}
	}

	err = handleExecutionError(r.Run(ctx, app.Engine, prof.ID))
	if !opts.Headless && ctx.Err() != nil {
		printSystemMessage(opts.Output, "Interrupted.")
	}
	return err
}
