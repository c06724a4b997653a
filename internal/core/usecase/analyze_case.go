package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/core/ports"
	"github.com/kachastepien/Backoffice/internal/observability/metrics"
)

// ErrRunSuperseded reports that a newer Start call took over the case while
// this run was in flight. The superseded run stops publishing immediately;
// its remaining stage results are discarded.
var ErrRunSuperseded = errors.New("analysis run superseded by a newer start")

// AnalyzeCaseUseCase sequences extraction, legal analysis and confidence
// scoring for one case and owns every write to the analysis state store.
//
// Each Start claims a per-case generation token. State is published only at
// real stage boundaries and only while the token is current, so a stale run
// can never overwrite a newer run's progress.
type AnalyzeCaseUseCase struct {
	store    ports.AnalysisStateStore
	extract  ports.TextExtractor
	analyzer ports.LegalAnalyzer
	scorer   ports.ConfidenceScorer

	logger  *slog.Logger
	metrics *metrics.PipelineMetrics
	service string

	mu   sync.Mutex
	gens map[string]uint64
}

func NewAnalyzeCaseUseCase(
	store ports.AnalysisStateStore,
	extractor ports.TextExtractor,
	analyzer ports.LegalAnalyzer,
	scorer ports.ConfidenceScorer,
	logger *slog.Logger,
	pipelineMetrics *metrics.PipelineMetrics,
) *AnalyzeCaseUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeCaseUseCase{
		store:    store,
		extract:  extractor,
		analyzer: analyzer,
		scorer:   scorer,
		logger:   logger,
		metrics:  pipelineMetrics,
		service:  "backoffice-api",
		gens:     make(map[string]uint64),
	}
}

func (uc *AnalyzeCaseUseCase) Start(ctx context.Context, caseID string, input domain.AnalysisInput) (domain.AnalysisState, error) {
	if strings.TrimSpace(caseID) == "" {
		return domain.AnalysisState{}, domain.WrapError(domain.ErrInvalidInput, "start analysis", errors.New("case id is required"))
	}
	if input.IsZero() {
		return domain.AnalysisState{}, domain.WrapError(domain.ErrEmptyInput, "start analysis", errors.New("nothing to analyze"))
	}

	gen := uc.claimGeneration(caseID)
	docs, _ := input.Documents()
	files := domain.FileMetaFor(docs)

	state := domain.AnalysisState{Step: domain.StepUploading, Progress: 10, Files: files}
	if err := uc.publish(caseID, gen, state); err != nil {
		return state, err
	}

	state.Step, state.Progress = domain.StepOCRProcessing, 30
	if err := uc.publish(caseID, gen, state); err != nil {
		return state, err
	}

	// Extraction runs per document. A timeout or a service-side failure
	// comes back as placeholder text and the run continues; only transport
	// errors abort here.
	ocrStart := time.Now()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		text, err := uc.extract.Extract(ctx, doc)
		if err != nil {
			return uc.fail(caseID, gen, files, fmt.Errorf("extract %q: %w", doc.Name, err))
		}
		texts[i] = text
	}
	uc.metrics.ObserveStage(uc.service, string(domain.StepOCRProcessing), time.Since(ocrStart))

	state.Step, state.Progress = domain.StepLegalAnalysis, 50
	if err := uc.publish(caseID, gen, state); err != nil {
		return state, err
	}

	analysisStart := time.Now()
	analysis, err := uc.analyzer.Analyze(ctx, input, texts)
	if err != nil {
		return uc.fail(caseID, gen, files, fmt.Errorf("legal analysis: %w", err))
	}
	uc.metrics.ObserveStage(uc.service, string(domain.StepLegalAnalysis), time.Since(analysisStart))

	state.Step, state.Progress = domain.StepCalculatingConfidence, 85
	if err := uc.publish(caseID, gen, state); err != nil {
		return state, err
	}

	scoringStart := time.Now()
	calculation, err := uc.scorer.Score(ctx, analysis)
	if err != nil {
		return uc.fail(caseID, gen, files, domain.WrapError(domain.ErrScoring, "confidence scoring", err))
	}
	uc.metrics.ObserveStage(uc.service, string(domain.StepCalculatingConfidence), time.Since(scoringStart))

	analysis.Normalize()
	result := &domain.AnalysisResult{
		LegalAnalysis:       analysis,
		Calculation:         calculation,
		ProcessedFilesCount: len(docs),
	}
	final := domain.AnalysisState{
		Step:     domain.StepComplete,
		Progress: 100,
		Files:    files,
		Result:   result,
	}
	if err := uc.publish(caseID, gen, final); err != nil {
		return final, err
	}

	uc.metrics.RecordRun(uc.service, "complete")
	uc.metrics.ObserveConfidence(uc.service, calculation.ConfidenceScore)
	uc.logger.Info("analysis_complete",
		"case_id", caseID,
		"files", len(docs),
		"confidence", calculation.ConfidenceScore,
		"recommendation", calculation.RecommendationShort,
	)
	return final, nil
}

func (uc *AnalyzeCaseUseCase) State(caseID string) domain.AnalysisState {
	if state, ok := uc.store.Get(caseID); ok {
		return state
	}
	return domain.IdleAnalysisState()
}

// Reset clears the case back to idle. The generation bump guarantees an
// in-flight run for the old generation can no longer resurrect its state.
func (uc *AnalyzeCaseUseCase) Reset(caseID string) {
	uc.claimGeneration(caseID)
	uc.store.Delete(caseID)
}

func (uc *AnalyzeCaseUseCase) claimGeneration(caseID string) uint64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.gens[caseID]++
	return uc.gens[caseID]
}

func (uc *AnalyzeCaseUseCase) publish(caseID string, gen uint64, state domain.AnalysisState) error {
	uc.mu.Lock()
	current := uc.gens[caseID]
	if gen != current {
		uc.mu.Unlock()
		uc.logger.Debug("stale_run_discarded", "case_id", caseID, "generation", gen, "current", current)
		return domain.WrapError(ErrRunSuperseded, "publish analysis state", fmt.Errorf("generation %d superseded by %d", gen, current))
	}
	uc.store.Put(caseID, state)
	uc.mu.Unlock()
	return nil
}

func (uc *AnalyzeCaseUseCase) fail(caseID string, gen uint64, files []domain.FileMeta, cause error) (domain.AnalysisState, error) {
	state := domain.AnalysisState{
		Step:     domain.StepError,
		Progress: 0,
		Files:    files,
		Error:    cause.Error(),
	}
	if err := uc.publish(caseID, gen, state); err != nil {
		return state, err
	}
	uc.metrics.RecordRun(uc.service, "error")
	uc.logger.Error("analysis_failed", "case_id", caseID, "error", cause)
	return state, cause
}
