// Package retriever provides document ranking strategies.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
	"github.com/0xcro3dile/ragprompt/internal/domain/ports"
)

// StrategyPositional is the name of the PositionalRanker strategy.
const StrategyPositional = "positional"

// ErrUnknownStrategy is returned by New for an unregistered strategy name.
var ErrUnknownStrategy = errors.New("unknown retrieval strategy")

var strategies = map[string]func() ports.Ranker{
	StrategyPositional: func() ports.Ranker { return NewPositionalRanker() },
}

// New returns the ranker registered under name.
func New(name string) (ports.Ranker, error) {
	factory, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return factory(), nil
}

// Strategies lists the registered strategy names.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PositionalRanker keeps the first k documents and ignores the question.
// It stands in until a similarity-ranked strategy exists.
type PositionalRanker struct{}

// NewPositionalRanker creates a PositionalRanker.
func NewPositionalRanker() *PositionalRanker {
	return &PositionalRanker{}
}

// Rank returns a copy of docs[:min(len(docs), k)].
func (r *PositionalRanker) Rank(ctx context.Context, question string, docs []entities.Document, k int) ([]entities.Document, error) {
	if k <= 0 {
		return []entities.Document{}, nil
	}
	if len(docs) > k {
		docs = docs[:k]
	}

	out := make([]entities.Document, len(docs))
	copy(out, docs)
	return out, nil
}
