package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/aretw0/cyrkana/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cyrkana",
	Short: "Cyrillic to kana input method engine",
	Long: `cyrkana turns Cyrillic keystrokes into Japanese kana.

Language packs (profiles, phonetic table and input schemas) are read from a
directory, a Loam vault, Redis or SQLite. The engine can be used from the
terminal, over HTTP, as an MCP server or through its C ABI.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Configuration file (toml, json or yaml)")
	rootCmd.PersistentFlags().String("source", "", "Pack source: a directory or a file://, loam://, redis:// or sqlite:// URI")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "Language profile id")
}

// options collects the persistent flags. Unset flags defer to the config file.
func options(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	source, _ := cmd.Flags().GetString("source")
	level, _ := cmd.Flags().GetString("log-level")
	profile, _ := cmd.Flags().GetString("profile")
	return cli.Options{
		ConfigPath: configPath,
		Source:     source,
		LogLevel:   level,
		Profile:    profile,
	}
}
