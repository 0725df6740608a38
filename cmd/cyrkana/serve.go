package main

import (
	"context"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the engine as a JSON API over HTTP.

Routes: GET /healthz, GET /version, POST /init, GET /profiles,
POST /profiles/{id}/activate, PUT /schemas/{id}, POST /keys and GET /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("listen")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		app, err := cli.Setup(ctx, options(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Serve(ctx, app, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (default from config, :8080)")
}
