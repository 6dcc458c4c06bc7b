// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"
	"time"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// DocumentSource produces the ordered document set for one request cycle.
type DocumentSource interface {
	// Load reads every document eagerly. Per-document failures are reported
	// in the LoadReport; only a failure of the source as a whole is an error.
	Load(ctx context.Context) (entities.LoadReport, error)
}

// Ranker selects the documents that go into the prompt.
type Ranker interface {
	// Rank returns at most k documents for the question, preserving the
	// relative order the strategy defines.
	Rank(ctx context.Context, question string, docs []entities.Document, k int) ([]entities.Document, error)
}

// LLMService generates text responses from a language model.
type LLMService interface {
	// Generate sends the system instruction and prompt and returns the answer.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// RunRecorder persists a summary of each pipeline run.
type RunRecorder interface {
	Record(ctx context.Context, rec entities.RunRecord) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]entities.RunRecord, error)
}

// PipelineObserver receives measurements from a pipeline run.
type PipelineObserver interface {
	ObserveLoad(report entities.LoadReport)
	ObserveInference(err error, elapsed time.Duration)
}

// FileWatcher monitors directories for changes.
type FileWatcher interface {
	// Watch starts monitoring the directories and emits events until ctx ends.
	Watch(ctx context.Context, dirs ...string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
