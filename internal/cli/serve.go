package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/cyrkana/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/cyrkana/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// Serve exposes the engine over HTTP until ctx is cancelled.
func Serve(ctx context.Context, app *App, addr string) error {
	if addr == "" {
		addr = app.Config.Listen
	}

	opts := []httpAdapter.Option{httpAdapter.WithLogger(app.Logger)}
	if app.Config.Metrics {
		opts = append(opts, httpAdapter.WithMetricsHandler(app.Metrics.Handler()))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpAdapter.NewHandler(app.Engine, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	app.StartWatch(ctx)

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("starting cyrkana server", "address", addr, "source", app.Config.Source)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		app.Logger.Info("start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		app.Logger.Info("cyrkana server stopped gracefully")
		return nil
	}
}

// ServeMCP exposes the engine as an MCP server on stdio or SSE.
func ServeMCP(ctx context.Context, app *App, transport string, port int) error {
	if transport == "" {
		transport = app.Config.MCP.Transport
	}
	if port == 0 {
		port = app.Config.MCP.Port
	}

	srv := mcpAdapter.NewServer(app.Engine, mcpAdapter.WithLogger(app.Logger))
	app.StartWatch(ctx)

	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "sse":
		return srv.ServeSSE(ctx, port)
	default:
		return fmt.Errorf("unknown transport %q (use stdio or sse)", transport)
	}
}
