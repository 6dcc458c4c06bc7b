package main

import (
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragprompt/internal/app"
	httpserver "github.com/0xcro3dile/ragprompt/internal/infrastructure/http"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ask API and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(app.WithMemoryHistory())
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.Logger.Sync()

			server := httpserver.NewServer(a.Ask, a.History, a.Metrics.Handler(), a.Config.Server.Addr, a.Logger.Named("http"))
			return server.Start(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "Listen address")
	if err := c.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	return cmd
}
