package main

import (
	"context"
	"fmt"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/spf13/cobra"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage language packs",
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Copy the pack into Redis or SQLite",
	Long: `Reads the pack from --source, validates it and publishes it to --to.
Without --to the Redis settings from the config are used.`,
	Example: `  cyrkana pack push --source examples/pack --to redis://localhost:6379/0?prefix=cyrkana:pack:
  cyrkana pack push --to sqlite:///var/lib/cyrkana/pack.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("to")
		if err := cli.Push(context.Background(), options(cmd), target); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "pack pushed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.AddCommand(pushCmd)
	pushCmd.Flags().String("to", "", "Target redis:// or sqlite:// URI")
}
