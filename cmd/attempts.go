package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts <request-id>",
	Short: "List recorded generation attempts for a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sink, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close()

		attempts, err := sink.ListAttempts(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "list attempts")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(attempts), "encode attempts")
	},
}

func init() {
	rootCmd.AddCommand(attemptsCmd)
}
