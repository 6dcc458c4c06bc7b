// Package loader provides document loading adapters.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/0xcro3dile/ragprompt/internal/adapters/parser"
	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
	"github.com/0xcro3dile/ragprompt/internal/domain/ports"
)

// Loading modes.
const (
	ModeManifest  = "manifest"
	ModeDirectory = "directory"
)

// ErrUnknownMode is returned by New for an unsupported loading mode.
var ErrUnknownMode = errors.New("unknown loader mode")

// Options selects and configures a document source.
type Options struct {
	Mode       string
	Folder     string   // Directory mode: folder to list
	Manifest   string   // Manifest mode: path to manifest.json
	BaseDir    string   // Manifest mode: base for relative src_copy paths
	Extensions []string // Directory mode: allowed extensions, empty means all
}

// New returns the document source for opts.Mode.
func New(opts Options, logger *zap.Logger) (ports.DocumentSource, error) {
	switch opts.Mode {
	case ModeManifest:
		return NewManifestLoader(opts.Manifest, opts.BaseDir, logger), nil
	case ModeDirectory:
		return NewDirectoryLoader(opts.Folder, opts.Extensions, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
}

// readDocument reads and parses one file. Invalid UTF-8 bytes are dropped.
// The returned status is StatusLoaded on success.
func readDocument(path string) (entities.Document, entities.LoadStatus, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entities.Document{}, entities.StatusMissing, err
		}
		return entities.Document{}, entities.StatusUnreadable, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return entities.Document{}, entities.StatusUnreadable, err
	}

	return parser.ParseDocument(strings.ToValidUTF8(string(data), "")), entities.StatusLoaded, nil
}

func hasExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
