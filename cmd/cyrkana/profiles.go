package main

import (
	"context"
	"os"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/aretw0/cyrkana/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the language profiles of the pack",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := cli.Setup(context.Background(), options(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		styled := !asJSON && tui.IsTerminal(os.Stdout)
		return cli.ListProfiles(app, asJSON, styled, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.Flags().Bool("json", false, "Print profiles as JSON")
}
