package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/0xcro3dile/ragprompt/internal/app"
	"github.com/0xcro3dile/ragprompt/internal/infrastructure/config"
	"github.com/0xcro3dile/ragprompt/internal/infrastructure/logging"
)

const defaultQuestion = "Wie importiere ich Datenart 001?"

// cli carries state shared by every subcommand.
type cli struct {
	v          *viper.Viper
	configFile string
}

// flagBindings maps persistent flags to configuration keys.
var flagBindings = map[string]string{
	"endpoint":   "ollama.endpoint",
	"model":      "ollama.model",
	"timeout":    "ollama.timeout",
	"data-mode":  "data.mode",
	"data":       "data.folder",
	"manifest":   "data.manifest",
	"base-dir":   "data.base_dir",
	"strategy":   "retrieval.strategy",
	"top-k":      "retrieval.top_k",
	"history":    "history.path",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	var showPrompt bool

	root := &cobra.Command{
		Use:   "ragprompt",
		Short: "Answer questions from local documents with an Ollama model",
		Long: `ragprompt loads a document set (a manifest or a folder), builds a grounded prompt
from it and asks a local Ollama model to answer using only those documents.

Run without a subcommand to ask the default question.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAsk(cmd, defaultQuestion, showPrompt)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "Config file (yaml, json or toml)")
	pf.String("endpoint", "", "Ollama generate endpoint")
	pf.String("model", "", "Model name")
	pf.Duration("timeout", 0, "Inference request timeout (0 disables)")
	pf.String("data-mode", "", "Document source: manifest or directory")
	pf.String("data", "", "Data folder")
	pf.String("manifest", "", "Manifest path (default <data>/manifest.json)")
	pf.String("base-dir", "", "Base directory for relative manifest paths")
	pf.String("strategy", "", "Retrieval strategy")
	pf.Int("top-k", 0, "Documents included in the prompt")
	pf.String("history", "", "SQLite run history path (empty disables)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console or json")

	for flag, key := range flagBindings {
		if err := c.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}

	root.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the prompt sent to the model")

	root.AddCommand(
		newAskCmd(c),
		newWatchCmd(c),
		newServeCmd(c),
		newHistoryCmd(c),
	)
	return root
}

// setup resolves configuration and wires the pipeline.
func (c *cli) setup(opts ...app.Option) (*app.App, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	return app.New(cfg, logger, opts...)
}

func questionFrom(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return defaultQuestion
}
