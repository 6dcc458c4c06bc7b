// Package usecases contains the application rules of the prompt pipeline.
// Usecases orchestrate entities and depend only on port interfaces.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
	"github.com/0xcro3dile/ragprompt/internal/domain/ports"
)

// DefaultTopK is used when a non-positive retrieval count is configured.
const DefaultTopK = 5

// ErrEmptyQuestion is returned when Ask is called with a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// AskUseCase runs load -> rank -> build prompt -> generate for one question.
type AskUseCase struct {
	source   ports.DocumentSource
	ranker   ports.Ranker
	llm      ports.LLMService
	topK     int
	model    string
	recorder ports.RunRecorder
	observer ports.PipelineObserver
	logger   *zap.Logger
}

// AskOption configures optional collaborators of an AskUseCase.
type AskOption func(*AskUseCase)

// WithRecorder persists a RunRecord after every run.
func WithRecorder(r ports.RunRecorder) AskOption {
	return func(uc *AskUseCase) { uc.recorder = r }
}

// WithObserver reports load and inference measurements.
func WithObserver(o ports.PipelineObserver) AskOption {
	return func(uc *AskUseCase) { uc.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AskOption {
	return func(uc *AskUseCase) {
		if l != nil {
			uc.logger = l
		}
	}
}

// WithModelName sets the model identifier written to run records.
func WithModelName(model string) AskOption {
	return func(uc *AskUseCase) { uc.model = model }
}

// NewAskUseCase creates an AskUseCase with injected dependencies.
func NewAskUseCase(
	source ports.DocumentSource,
	ranker ports.Ranker,
	llm ports.LLMService,
	topK int,
	opts ...AskOption,
) *AskUseCase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	uc := &AskUseCase{
		source: source,
		ranker: ranker,
		llm:    llm,
		topK:   topK,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Ask answers a single question. On failure the partially filled result is
// returned together with the error so callers can still report what loaded.
func (uc *AskUseCase) Ask(ctx context.Context, question string) (*entities.AskResult, error) {
	start := time.Now()
	result := &entities.AskResult{
		RunID:    uuid.NewString(),
		Question: question,
	}

	err := uc.run(ctx, result)
	result.Duration = time.Since(start)
	uc.record(ctx, result, err)

	if err != nil {
		uc.logger.Error("run failed", zap.String("run_id", result.RunID), zap.Error(err))
		return result, err
	}

	uc.logger.Info("run complete",
		zap.String("run_id", result.RunID),
		zap.Int("loaded", result.Report.Loaded()),
		zap.Int("selected", len(result.Selected)),
		zap.Duration("elapsed", result.Duration),
	)
	return result, nil
}

func (uc *AskUseCase) run(ctx context.Context, result *entities.AskResult) error {
	if strings.TrimSpace(result.Question) == "" {
		return ErrEmptyQuestion
	}

	// 1. Load every document for this cycle
	report, err := uc.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	result.Report = report
	if uc.observer != nil {
		uc.observer.ObserveLoad(report)
	}

	// 2. Select documents
	selected, err := uc.ranker.Rank(ctx, result.Question, report.Documents, uc.topK)
	if err != nil {
		return fmt.Errorf("ranking documents: %w", err)
	}
	result.Selected = selected

	// 3. Build prompt
	result.Prompt = BuildPrompt(result.Question, selected)

	// 4. Ask the model
	started := time.Now()
	answer, err := uc.llm.Generate(ctx, SystemPrompt, result.Prompt)
	if uc.observer != nil {
		uc.observer.ObserveInference(err, time.Since(started))
	}
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}
	result.Answer = answer
	return nil
}

// record never fails the run; history is best effort.
func (uc *AskUseCase) record(ctx context.Context, result *entities.AskResult, runErr error) {
	if uc.recorder == nil {
		return
	}

	rec := entities.RunRecord{
		ID:        result.RunID,
		Question:  result.Question,
		Model:     uc.model,
		Loaded:    result.Report.Loaded(),
		Skipped:   len(result.Report.Skipped()),
		Selected:  len(result.Selected),
		Answer:    result.Answer,
		CreatedAt: time.Now().UTC(),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	if err := uc.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		uc.logger.Warn("recording run", zap.String("run_id", rec.ID), zap.Error(err))
	}
}
