package biz

import (
	"context"
	"math"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/verdict-x/internal/pipeline/metrics"
	"github.com/kart-io/verdict-x/internal/pipeline/model"
	"github.com/kart-io/verdict-x/internal/pipeline/store"
	"github.com/kart-io/verdict-x/pkg/utils/errors"
)

// Stage tags carried by failures so callers can tell which collaborator broke.
const (
	StageClassification = "classification"
	StageRetrieval      = "retrieval"
	StageGeneration     = "generation"
	StageQualityCheck   = "quality_check"
)

// StageError marks a pipeline failure with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return e.Stage + " stage failed: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Errno maps the stage to its structured error code.
func (e *StageError) Errno() *errors.Errno {
	switch e.Stage {
	case StageClassification:
		return errors.ErrClassificationFailed.WithCause(e.Err)
	case StageRetrieval:
		return errors.ErrRetrievalFailed.WithCause(e.Err)
	case StageGeneration:
		return errors.ErrGenerationFailed.WithCause(e.Err)
	case StageQualityCheck:
		return errors.ErrQualityCheckFailed.WithCause(e.Err)
	default:
		return errors.ErrInternal.WithCause(e.Err)
	}
}

// Service is the pipeline's boundary contract.
type Service interface {
	// Process runs the full classify, retrieve, generate, check, judge chain.
	Process(ctx context.Context, query string) (*model.PipelineResult, error)

	// ClassifyOnly runs just the classification stage.
	ClassifyOnly(ctx context.Context, query string) (*model.Classification, error)

	// RetrieveOnly runs just the retrieval stage.
	RetrieveOnly(ctx context.Context, query string) ([]string, error)

	// Stats reports pipeline counters and knowledge base size.
	Stats(ctx context.Context) (map[string]any, error)
}

// Config holds the orchestrator's tunables.
type Config struct {
	// TopK is the maximum number of documents retrieved per query.
	TopK int

	// Collection is the knowledge collection, used for stats.
	Collection string
}

// PipelineService sequences the pipeline stages. Stages run strictly in
// order; any collaborator failure aborts the rest of the run.
type PipelineService struct {
	classifier Classifier
	retriever  Retriever
	generator  Generator
	checker    QualityChecker
	judge      *Judge
	store      store.VectorStore
	metrics    *metrics.PipelineMetrics
	config     *Config
}

var _ Service = (*PipelineService)(nil)

// NewPipelineService wires the pipeline stages together.
func NewPipelineService(
	classifier Classifier,
	retriever Retriever,
	generator Generator,
	checker QualityChecker,
	judge *Judge,
	vectorStore store.VectorStore,
	config *Config,
) *PipelineService {
	return &PipelineService{
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
		checker:    checker,
		judge:      judge,
		store:      vectorStore,
		metrics:    metrics.Get(),
		config:     config,
	}
}

// Process runs the five stages for one query. Retrieval is skipped entirely
// when classification says no context is needed. Cancellation is honored
// between stages: an expired context aborts before the next collaborator
// call starts.
func (s *PipelineService) Process(ctx context.Context, query string) (result *model.PipelineResult, err error) {
	start := time.Now()
	defer func() {
		decision := ""
		if result != nil {
			decision = result.JudgeDecision.Decision
		}
		s.metrics.RecordProcess(time.Since(start), decision, err)
	}()

	classification, err := s.classifier.Classify(ctx, query)
	if err != nil {
		return nil, s.stageFailure(StageClassification, err)
	}
	logger.Infow("query classified",
		"category", classification.Category,
		"confidence", classification.Confidence,
		"needs_context", classification.NeedsContext,
	)

	docs := []string{}
	if classification.NeedsContext {
		if err := ctx.Err(); err != nil {
			return nil, s.stageFailure(StageRetrieval, err)
		}
		docs, err = s.retriever.Retrieve(ctx, query, s.config.TopK)
		if err != nil {
			return nil, s.stageFailure(StageRetrieval, err)
		}
	} else {
		s.metrics.RecordRetrievalSkip()
	}

	if err := ctx.Err(); err != nil {
		return nil, s.stageFailure(StageGeneration, err)
	}
	generated, err := s.generator.Generate(ctx, query, classification, docs)
	if err != nil {
		return nil, s.stageFailure(StageGeneration, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, s.stageFailure(StageQualityCheck, err)
	}
	quality, err := s.checker.CheckQuality(ctx, query, generated.Answer, docs)
	if err != nil {
		return nil, s.stageFailure(StageQualityCheck, err)
	}

	decision := s.judge.Judge(quality, classification.Confidence)

	elapsed := math.Round(float64(time.Since(start).Microseconds())/1000*100) / 100
	logger.Infow("pipeline complete",
		"decision", decision.Decision,
		"quality_score", quality.OverallScore,
		"elapsed_ms", elapsed,
	)

	return &model.PipelineResult{
		Query:            query,
		Classification:   *classification,
		RetrievedDocs:    docs,
		Answer:           generated.Answer,
		QualityChecks:    *quality,
		JudgeDecision:    *decision,
		ProcessingTimeMS: elapsed,
		Metadata: map[string]any{
			"sources_used":         generated.SourcesUsed,
			"generator_confidence": generated.Confidence,
		},
	}, nil
}

// ClassifyOnly runs the classification stage by itself.
func (s *PipelineService) ClassifyOnly(ctx context.Context, query string) (*model.Classification, error) {
	classification, err := s.classifier.Classify(ctx, query)
	if err != nil {
		return nil, s.stageFailure(StageClassification, err)
	}
	return classification, nil
}

// RetrieveOnly runs the retrieval stage by itself.
func (s *PipelineService) RetrieveOnly(ctx context.Context, query string) ([]string, error) {
	docs, err := s.retriever.Retrieve(ctx, query, s.config.TopK)
	if err != nil {
		return nil, s.stageFailure(StageRetrieval, err)
	}
	return docs, nil
}

// Stats merges the metrics snapshot with the knowledge base row count.
func (s *PipelineService) Stats(ctx context.Context) (map[string]any, error) {
	rows, err := s.store.Count(ctx, s.config.Collection)
	if err != nil {
		return nil, errors.ErrStatsUnavailable.WithCause(err)
	}

	return map[string]any{
		"pipeline":         s.metrics.Snapshot(),
		"collection":       s.config.Collection,
		"knowledge_rows":   rows,
		"quality_criteria": len(DefaultCriteria),
	}, nil
}

func (s *PipelineService) stageFailure(stage string, err error) error {
	s.metrics.RecordStageError(stage)
	logger.Errorw("pipeline stage failed", "stage", stage, "error", err.Error())
	return &StageError{Stage: stage, Err: err}
}
