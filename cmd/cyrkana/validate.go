package main

import (
	"context"
	"os"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/aretw0/cyrkana/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a language pack",
	Long: `Checks every pack document against its JSON Schema and cross-checks
profiles, schemas and the phonetic table. Exits non-zero when errors are found;
warnings are reported but do not fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		_, err := cli.Validate(context.Background(), options(cmd), cli.ValidateOptions{
			JSON:     asJSON,
			Markdown: !asJSON && tui.IsTerminal(os.Stdout),
		}, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
}
