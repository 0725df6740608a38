package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/cyrkana/internal/cli"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [text...]",
	Short: "Transliterate text to kana",
	Long: `Types the given text (or standard input) through a profile and prints
the kana, one output line per input line.`,
	Example: `  cyrkana convert Москва
  echo "кјото" | cyrkana convert -p srb_cyrillic --trace`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		trace, _ := cmd.Flags().GetBool("trace")

		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("error reading stdin: %w", err)
			}
			text = string(data)
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		opts := options(cmd)
		app, err := cli.Setup(ctx, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Convert(ctx, app, text, cli.ConvertOptions{
			Profile: opts.Profile,
			JSON:    asJSON,
			Trace:   trace,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().Bool("json", false, "Print one JSON transcript per line")
	convertCmd.Flags().Bool("trace", false, "Print every keystroke and its outcome")
}
