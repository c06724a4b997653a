package ports

import (
	"context"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

// CaseAnalyzer is the inbound contract for the case-analysis pipeline.
type CaseAnalyzer interface {
	// Start runs one pipeline generation to completion and returns the
	// terminal state. A concurrent Start for the same case supersedes this
	// run; superseded runs stop publishing and return ErrRunSuperseded.
	Start(ctx context.Context, caseID string, input domain.AnalysisInput) (domain.AnalysisState, error)
	State(caseID string) domain.AnalysisState
	Reset(caseID string)
}

// CasePrefiller is the inbound contract for the one-shot form pre-fill.
type CasePrefiller interface {
	Prefill(ctx context.Context, doc domain.UploadedDocument) (domain.CasePrefill, error)
}

// MedicalConsultant is the inbound contract for on-demand consultations.
type MedicalConsultant interface {
	Consult(ctx context.Context, question, caseContext string) (domain.MedicalOpinion, error)
}

// AccidentCardExporter renders a completed analysis into a downloadable
// accident-card workbook.
type AccidentCardExporter interface {
	Export(ctx context.Context, caseID string) (data []byte, filename string, err error)
}
