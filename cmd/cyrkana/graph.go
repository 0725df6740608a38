package main

import (
	"context"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the composition states of a profile",
	Long: `Outputs a Mermaid diagram (graph LR) of the buffers a profile's schema can
hold while composing. Use --buffer to highlight the path to a buffer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		buffer, _ := cmd.Flags().GetString("buffer")

		opts := options(cmd)
		app, err := cli.Setup(context.Background(), opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Graph(context.Background(), app, opts.Profile, buffer, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("buffer", "", "Composition buffer to highlight")
}
