package history

import (
	"context"
	"sync"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// MemoryRecorder is an in-process ports.RunRecorder.
type MemoryRecorder struct {
	mu   sync.RWMutex
	runs []entities.RunRecord
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends a run.
func (m *MemoryRecorder) Record(ctx context.Context, rec entities.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, rec)
	return nil
}

// Recent returns up to limit runs, newest first.
func (m *MemoryRecorder) Recent(ctx context.Context, limit int) ([]entities.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}

	out := make([]entities.RunRecord, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
