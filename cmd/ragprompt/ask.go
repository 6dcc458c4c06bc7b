package main

import (
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragprompt/internal/infrastructure/console"
)

func newAskCmd(c *cli) *cobra.Command {
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and exit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAsk(cmd, questionFrom(args), showPrompt)
		},
	}
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the prompt sent to the model")
	return cmd
}

func (c *cli) runAsk(cmd *cobra.Command, question string, showPrompt bool) error {
	a, err := c.setup()
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Logger.Sync()

	p := console.NewPrinter(cmd.OutOrStdout(), showPrompt)
	p.Question(question)

	res, err := a.Ask.Ask(cmd.Context(), question)
	p.Result(res)
	return err
}
