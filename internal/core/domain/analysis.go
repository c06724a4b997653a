package domain

import (
	"bytes"
	"fmt"
)

// Verdict is the three-valued outcome of one legal criterion check.
// Undetermined means the source material could not be read well enough to
// decide; it is never coerced to false. On the wire it serializes to JSON
// true, false or null to stay compatible with the analysis schema.
type Verdict int

const (
	VerdictUndetermined Verdict = iota
	VerdictFalse
	VerdictTrue
)

func (v Verdict) Known() bool {
	return v == VerdictTrue || v == VerdictFalse
}

func (v Verdict) String() string {
	switch v {
	case VerdictTrue:
		return "true"
	case VerdictFalse:
		return "false"
	default:
		return "undetermined"
	}
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictTrue:
		return []byte("true"), nil
	case VerdictFalse:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("true")):
		*v = VerdictTrue
	case bytes.Equal(data, []byte("false")):
		*v = VerdictFalse
	case bytes.Equal(data, []byte("null")):
		*v = VerdictUndetermined
	default:
		return fmt.Errorf("verdict must be true, false or null, got %s", data)
	}
	return nil
}

// Criteria are the four statutory tests an event must satisfy to qualify as
// a workplace accident. A partially readable case may mix verdicts; the
// pipeline never forces consistency across criteria.
type Criteria struct {
	Suddenness     Verdict `json:"suddenness"`
	ExternalCause  Verdict `json:"externalCause"`
	Injury         Verdict `json:"injury"`
	WorkConnection Verdict `json:"workConnection"`
}

func (c Criteria) AnyUndetermined() bool {
	return !c.Suddenness.Known() || !c.ExternalCause.Known() ||
		!c.Injury.Known() || !c.WorkConnection.Known()
}

func (c Criteria) AnyFalse() bool {
	return c.Suddenness == VerdictFalse || c.ExternalCause == VerdictFalse ||
		c.Injury == VerdictFalse || c.WorkConnection == VerdictFalse
}

func (c Criteria) AllTrue() bool {
	return c.Suddenness == VerdictTrue && c.ExternalCause == VerdictTrue &&
		c.Injury == VerdictTrue && c.WorkConnection == VerdictTrue
}

// AccidentCard holds the structured draft fields for the accident-report
// form. Unreadable fields carry the "DO UZUPEŁNIENIA" sentinel, never a
// guess.
type AccidentCard struct {
	AccidentDate  string `json:"accident_date"`
	AccidentPlace string `json:"accident_place"`
	VictimName    string `json:"victim_name"`
	VictimPESEL   string `json:"victim_pesel"`
	Circumstances string `json:"circumstances"`
	Causes        string `json:"causes"`
	Effects       string `json:"effects"`
}

// LegalAnalysis is the output of the legal-analysis stage: everything in the
// final result except the confidence calculation and the file count.
type LegalAnalysis struct {
	IdentifiedDocuments         []string          `json:"identified_documents"`
	Summary                     string            `json:"summary"`
	Discrepancies               []string          `json:"discrepancies"`
	MissingDocumentsSuggestions []string          `json:"missing_documents_suggestions"`
	MedicalConsultationNeeded   bool              `json:"medical_consultation_needed"`
	Criteria                    Criteria          `json:"criteria"`
	CriteriaExplanation         map[string]string `json:"criteria_explanation"`
	AccidentCard                AccidentCard      `json:"accident_card_data"`
	LegalOpinionDraft           string            `json:"legal_opinion_draft"`
}

// Normalize replaces nil collections with empty ones so the merged result
// serializes to the fixed schema regardless of what the model omitted.
func (a *LegalAnalysis) Normalize() {
	if a.IdentifiedDocuments == nil {
		a.IdentifiedDocuments = []string{}
	}
	if a.Discrepancies == nil {
		a.Discrepancies = []string{}
	}
	if a.MissingDocumentsSuggestions == nil {
		a.MissingDocumentsSuggestions = []string{}
	}
	if a.CriteriaExplanation == nil {
		a.CriteriaExplanation = map[string]string{}
	}
}

type Recommendation string

const (
	RecommendationAccept             Recommendation = "ACCEPT"
	RecommendationReject             Recommendation = "REJECT"
	RecommendationNeedsClarification Recommendation = "NEEDS_CLARIFICATION"
)

// Calculation is the confidence-scoring stage output.
type Calculation struct {
	ConfidenceScore     int            `json:"confidence_score"`
	RecommendationShort Recommendation `json:"recommendation_short"`
	ReasoningShort      string         `json:"reasoning_short"`
}

// AnalysisResult is the merged, immutable output of one pipeline run.
type AnalysisResult struct {
	LegalAnalysis
	Calculation         Calculation `json:"calculation"`
	ProcessedFilesCount int         `json:"processed_files_count"`
}

type AnalysisStep string

const (
	StepIdle                  AnalysisStep = "idle"
	StepUploading             AnalysisStep = "uploading"
	StepOCRProcessing         AnalysisStep = "ocr_processing"
	StepLegalAnalysis         AnalysisStep = "legal_analysis"
	StepCalculatingConfidence AnalysisStep = "calculating_confidence"
	StepComplete              AnalysisStep = "complete"
	StepError                 AnalysisStep = "error"
)

// AnalysisState is the per-case pipeline projection read by observers.
// Invariants: Result is non-nil iff Step == complete; Error is non-empty
// iff Step == error; Progress is non-decreasing within one run and resets
// to 0 only on error.
type AnalysisState struct {
	Step     AnalysisStep    `json:"step"`
	Progress int             `json:"progress"`
	Files    []FileMeta      `json:"files"`
	Result   *AnalysisResult `json:"result"`
	Error    string          `json:"error,omitempty"`
}

func IdleAnalysisState() AnalysisState {
	return AnalysisState{Step: StepIdle, Progress: 0, Files: []FileMeta{}}
}
