package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// ManifestEntry is one key of the manifest object.
type ManifestEntry struct {
	Key     string
	SrcCopy string
	invalid string // Non-empty when the entry cannot name a file
}

// ManifestLoader loads documents listed in a JSON manifest, in key order.
type ManifestLoader struct {
	manifestPath string
	baseDir      string
	logger       *zap.Logger
}

// NewManifestLoader creates a loader for the manifest at manifestPath.
// Relative src_copy paths are resolved against baseDir when it is set.
func NewManifestLoader(manifestPath, baseDir string, logger *zap.Logger) *ManifestLoader {
	if manifestPath == "" {
		manifestPath = filepath.Join("data", "manifest.json")
	}
	return &ManifestLoader{
		manifestPath: manifestPath,
		baseDir:      baseDir,
		logger:       orNop(logger),
	}
}

// ReadManifest parses the manifest and returns its entries in serialized order.
func ReadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	obj, err := root.Object()
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	var entries []ManifestEntry
	obj.Visit(func(key []byte, v *fastjson.Value) {
		entry := ManifestEntry{Key: string(key)}
		switch {
		case v.Type() != fastjson.TypeObject:
			entry.invalid = "entry is not an object"
		case len(v.GetStringBytes("src_copy")) == 0:
			entry.invalid = "missing src_copy"
		default:
			entry.SrcCopy = string(v.GetStringBytes("src_copy"))
		}
		entries = append(entries, entry)
	})
	return entries, nil
}

// Load reads every manifest entry. Entries that cannot be read are skipped
// and reported; only an unreadable manifest is an error.
func (l *ManifestLoader) Load(ctx context.Context) (entities.LoadReport, error) {
	var report entities.LoadReport

	entries, err := ReadManifest(l.manifestPath)
	if err != nil {
		return report, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if entry.invalid != "" {
			l.logger.Warn("Skipping manifest entry", zap.String("key", entry.Key), zap.String("reason", entry.invalid))
			report.Entries = append(report.Entries, entities.LoadEntry{
				Key:    entry.Key,
				Status: entities.StatusInvalid,
				Reason: entry.invalid,
			})
			continue
		}

		path := l.resolve(entry.SrcCopy)
		doc, status, err := readDocument(path)
		le := entities.LoadEntry{Key: entry.Key, Path: path, Status: status}

		switch status {
		case entities.StatusMissing:
			l.logger.Warn("File not found", zap.String("key", entry.Key), zap.String("path", path))
			le.Reason = "file not found"
		case entities.StatusUnreadable:
			l.logger.Error("Reading document", zap.String("key", entry.Key), zap.String("path", path), zap.Error(err))
			le.Reason = err.Error()
		default:
			report.Documents = append(report.Documents, doc)
		}
		report.Entries = append(report.Entries, le)
	}

	l.logger.Debug("Manifest loaded",
		zap.String("manifest", l.manifestPath),
		zap.Int("entries", len(entries)),
		zap.Int("loaded", report.Loaded()),
	)
	return report, nil
}

func (l *ManifestLoader) resolve(path string) string {
	if l.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.baseDir, path)
}
