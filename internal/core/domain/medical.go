package domain

import "time"

type MedicalConclusion string

const (
	ConclusionInjuryConfirmed  MedicalConclusion = "injury_confirmed"
	ConclusionDiseaseConfirmed MedicalConclusion = "disease_confirmed"
	ConclusionInsufficientData MedicalConclusion = "insufficient_data"
)

// MedicalOpinion is the on-demand consultation sub-result. It is produced
// per request and never merged into an AnalysisResult.
type MedicalOpinion struct {
	Opinion         string            `json:"doctor_opinion"`
	Conclusion      MedicalConclusion `json:"conclusion"`
	ICD10Suggestion string            `json:"icd10_suggestion"`
	IssuedAt        time.Time         `json:"issued_at"`
}
