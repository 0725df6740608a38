package main

import (
	"fmt"

	"github.com/aretw0/cyrkana"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cyrkana",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cyrkana version %s\n", cyrkana.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
