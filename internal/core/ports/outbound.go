package ports

import (
	"context"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

// TextExtractor turns one uploaded document into plain text. Timeouts and
// service-side failures are recovered locally as placeholder text; only
// transport errors surface to the caller.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.UploadedDocument) (string, error)
}

// LegalAnalyzer runs the multimodal legal-analysis stage. extractedTexts is
// aligned index-for-index with the input's document list and ignored in
// fallback-text mode. A response that fails to parse yields the fixed
// safe-default analysis, not an error.
type LegalAnalyzer interface {
	Analyze(ctx context.Context, input domain.AnalysisInput, extractedTexts []string) (domain.LegalAnalysis, error)
}

// ConfidenceScorer consumes the legal-analysis output and produces the
// confidence calculation. There is no safe default here: failures propagate.
type ConfidenceScorer interface {
	Score(ctx context.Context, analysis domain.LegalAnalysis) (domain.Calculation, error)
}

// MetadataExtractor pre-fills the four registration-form fields from one
// document. ocrText is empty for image documents (vision covers those).
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, doc domain.UploadedDocument, ocrText string) (domain.CasePrefill, error)
}

// MedicalAdviser produces an on-demand medical-consultation opinion.
type MedicalAdviser interface {
	Consult(ctx context.Context, question, caseContext string) (domain.MedicalOpinion, error)
}

// AnalysisStateStore is the injectable per-case pipeline state mapping.
// It is written only by the orchestrator; readers must treat every returned
// state as an immutable snapshot.
type AnalysisStateStore interface {
	Get(caseID string) (domain.AnalysisState, bool)
	Put(caseID string, state domain.AnalysisState)
	Delete(caseID string)
	// Watch delivers state snapshots for one case until ctx is done. The
	// current state, if any, is delivered first.
	Watch(ctx context.Context, caseID string) <-chan domain.AnalysisState
}

// CaseRepository is the case registry boundary. The orchestrator holds a
// read reference only; creation and lifecycle transitions belong to the
// registry's own callers.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context) ([]domain.Case, error)
	UpdateStatus(ctx context.Context, id string, status domain.CaseStatus) error
	UpdateRiskScore(ctx context.Context, id string, score int) error
}
