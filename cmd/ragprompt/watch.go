package main

import (
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
	"github.com/0xcro3dile/ragprompt/internal/infrastructure/console"
)

func newWatchCmd(c *cli) *cobra.Command {
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "watch [question]",
		Short: "Answer a question again whenever the documents change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup()
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.Logger.Sync()

			question := questionFrom(args)
			p := console.NewPrinter(cmd.OutOrStdout(), showPrompt)

			return a.Watch(cmd.Context(), question, func(res *entities.AskResult, err error) {
				p.Question(question)
				p.Result(res)
				if err != nil {
					p.Failure(err)
				}
				p.Notice("Waiting for changes...")
			})
		},
	}
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the prompt sent to the model")
	cmd.Flags().Duration("debounce", 0, "Quiet period before re-running after a change")
	if err := c.v.BindPFlag("watch.debounce", cmd.Flags().Lookup("debounce")); err != nil {
		panic(err)
	}
	return cmd
}
