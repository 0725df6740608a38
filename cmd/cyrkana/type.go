package main

import (
	"context"
	"os"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Interactive typing session",
	Long: `Reads Cyrillic lines from the terminal and prints their kana.
Type "exit" or press Ctrl+C to leave. With watch enabled in the config,
edited schemas are picked up without restarting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")
		trace, _ := cmd.Flags().GetBool("trace")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		opts := options(cmd)
		app, err := cli.Setup(ctx, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunSession(ctx, app, cli.SessionOptions{
			Profile:  opts.Profile,
			Headless: headless,
			Trace:    trace,
			Input:    os.Stdin,
			Output:   os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(typeCmd)
	typeCmd.Flags().Bool("headless", false, "Disable prompts and styling (for pipes)")
	typeCmd.Flags().Bool("trace", false, "Print every keystroke and its outcome")
}
