package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// DirectoryLoader loads every regular file in a folder.
type DirectoryLoader struct {
	dir        string
	extensions []string
	logger     *zap.Logger
}

// NewDirectoryLoader creates a loader for dir. An empty extensions list
// accepts every file.
func NewDirectoryLoader(dir string, extensions []string, logger *zap.Logger) *DirectoryLoader {
	if dir == "" {
		dir = "data"
	}
	return &DirectoryLoader{
		dir:        dir,
		extensions: extensions,
		logger:     orNop(logger),
	}
}

// Load reads the folder in os.ReadDir order (sorted by file name).
// Subdirectories, symlinks and other non-regular entries are ignored.
func (l *DirectoryLoader) Load(ctx context.Context) (entities.LoadReport, error) {
	var report entities.LoadReport

	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		return report, fmt.Errorf("listing %s: %w", l.dir, err)
	}

	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !de.Type().IsRegular() || !hasExtension(de.Name(), l.extensions) {
			continue
		}

		path := filepath.Join(l.dir, de.Name())
		doc, status, err := readDocument(path)
		le := entities.LoadEntry{Key: de.Name(), Path: path, Status: status}
		if err != nil {
			l.logger.Error("Reading document", zap.String("path", path), zap.Error(err))
			le.Reason = err.Error()
		} else {
			report.Documents = append(report.Documents, doc)
		}
		report.Entries = append(report.Entries, le)
	}

	l.logger.Debug("Directory loaded", zap.String("dir", l.dir), zap.Int("loaded", report.Loaded()))
	return report, nil
}
