// Package app wires configuration into the pipeline components.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/ragprompt/internal/adapters/filewatcher"
	"github.com/0xcro3dile/ragprompt/internal/adapters/history"
	"github.com/0xcro3dile/ragprompt/internal/adapters/llm"
	"github.com/0xcro3dile/ragprompt/internal/adapters/loader"
	"github.com/0xcro3dile/ragprompt/internal/adapters/retriever"
	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
	"github.com/0xcro3dile/ragprompt/internal/domain/ports"
	"github.com/0xcro3dile/ragprompt/internal/domain/usecases"
	"github.com/0xcro3dile/ragprompt/internal/infrastructure/config"
	"github.com/0xcro3dile/ragprompt/internal/infrastructure/metrics"
)

// ErrHistoryDisabled is returned when run history is requested but
// history.path is not configured.
var ErrHistoryDisabled = errors.New("run history is disabled, set history.path")

// App holds the wired pipeline.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Ask     *usecases.AskUseCase
	Metrics *metrics.Collector

	// History is nil when history.path is empty, unless WithMemoryHistory
	// was given.
	History ports.RunRecorder

	sqlite *history.SQLiteRecorder
}

// Option adjusts how New wires the pipeline.
type Option func(*options)

type options struct {
	memoryHistory bool
}

// WithMemoryHistory keeps runs in memory when history.path is empty.
func WithMemoryHistory() Option {
	return func(o *options) { o.memoryHistory = true }
}

// New builds every component from cfg.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	source, err := loader.New(loader.Options{
		Mode:       cfg.Data.Mode,
		Folder:     cfg.Data.Folder,
		Manifest:   cfg.Data.Manifest,
		BaseDir:    cfg.Data.BaseDir,
		Extensions: cfg.Data.Extensions,
	}, logger.Named("loader"))
	if err != nil {
		return nil, err
	}

	ranker, err := retriever.New(cfg.Retrieval.Strategy)
	if err != nil {
		return nil, err
	}

	generator := llm.NewOllamaGenerateAdapter(
		cfg.Ollama.Endpoint,
		cfg.Ollama.Model,
		llm.Options{
			Temperature: cfg.Ollama.Options.Temperature,
			TopP:        cfg.Ollama.Options.TopP,
			NumCtx:      cfg.Ollama.Options.NumCtx,
		},
		cfg.Ollama.Timeout,
		logger.Named("ollama"),
	)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}

	askOpts := []usecases.AskOption{
		usecases.WithLogger(logger.Named("ask")),
		usecases.WithModelName(generator.Model()),
		usecases.WithObserver(a.Metrics),
	}

	switch {
	case cfg.History.Path != "":
		store, err := history.NewSQLiteRecorder(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("opening run history: %w", err)
		}
		a.sqlite = store
		a.History = store
	case o.memoryHistory:
		a.History = history.NewMemoryRecorder()
	}
	if a.History != nil {
		askOpts = append(askOpts, usecases.WithRecorder(a.History))
	}

	a.Ask = usecases.NewAskUseCase(source, ranker, generator, cfg.Retrieval.TopK, askOpts...)
	return a, nil
}

// Close releases the history database.
func (a *App) Close() error {
	if a.sqlite != nil {
		return a.sqlite.Close()
	}
	return nil
}

// Recent returns the latest recorded runs.
func (a *App) Recent(ctx context.Context, limit int) ([]entities.RunRecord, error) {
	if a.History == nil {
		return nil, ErrHistoryDisabled
	}
	return a.History.Recent(ctx, limit)
}

// WatchDirs lists the existing directories whose changes affect the
// document set.
func (a *App) WatchDirs() []string {
	var candidates []string
	switch a.Config.Data.Mode {
	case loader.ModeDirectory:
		candidates = []string{a.Config.Data.Folder}
	default:
		candidates = []string{filepath.Dir(a.Config.Data.Manifest), a.Config.Data.Folder}
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, d := range candidates {
		clean := filepath.Clean(d)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		if info, err := os.Stat(clean); err == nil && info.IsDir() {
			dirs = append(dirs, clean)
		}
	}
	return dirs
}

// Watch answers question once, then again after every debounced change
// under WatchDirs, until ctx is done. Each run is passed to onRun.
func (a *App) Watch(ctx context.Context, question string, onRun func(*entities.AskResult, error)) error {
	dirs := a.WatchDirs()
	if len(dirs) == 0 {
		return fmt.Errorf("nothing to watch: %s does not exist", a.Config.Data.Folder)
	}

	var extensions []string
	if a.Config.Data.Mode == loader.ModeDirectory {
		extensions = a.Config.Data.Extensions
	}

	watcher, err := filewatcher.NewFSNotifyWatcher(extensions, a.Logger.Named("watcher"))
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, dirs...)
	if err != nil {
		return fmt.Errorf("watching %v: %w", dirs, err)
	}
	a.Logger.Info("watching for changes", zap.Strings("dirs", dirs))

	onRun(a.Ask.Ask(ctx, question))

	debounce := a.Config.Watch.Debounce
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.Logger.Debug("change detected", zap.String("path", ev.Path), zap.Stringer("op", ev.Operation))
			fire = time.After(debounce)
		case <-fire:
			fire = nil
			onRun(a.Ask.Ask(ctx, question))
		}
	}
}
