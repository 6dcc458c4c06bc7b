package main

import (
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragprompt/internal/infrastructure/console"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			console.NewPrinter(cmd.OutOrStdout(), false).History(records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}
