package domain

type CaseStatus string

const (
	CaseStatusNew          CaseStatus = "new"
	CaseStatusAnalyzing    CaseStatus = "analyzing"
	CaseStatusOpinionDraft CaseStatus = "opinion_draft"
	CaseStatusCardReady    CaseStatus = "card_ready"
	CaseStatusClosed       CaseStatus = "closed"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusNew, CaseStatusAnalyzing, CaseStatusOpinionDraft, CaseStatusCardReady, CaseStatusClosed:
		return true
	default:
		return false
	}
}

// Case is one accident report under review. The registry owns the full
// lifecycle; the analysis pipeline only reads case identity.
type Case struct {
	ID             string     `json:"id"`
	ApplicantName  string     `json:"applicant_name"`
	ApplicantPESEL string     `json:"applicant_pesel"`
	AccidentDate   string     `json:"accident_date"`
	BusinessType   string     `json:"business_type"`
	Description    string     `json:"description,omitempty"`
	Status         CaseStatus `json:"status"`
	SubmissionDate string     `json:"submission_date"`
	ServiceLevel   string     `json:"service_level"`
	RiskScore      int        `json:"risk_score"`
}

// CasePrefill is the four-field form pre-fill extracted from a single
// document during case registration. Undeterminable fields stay empty.
type CasePrefill struct {
	ApplicantName  string `json:"applicantName"`
	ApplicantPESEL string `json:"applicantPesel"`
	AccidentDate   string `json:"accidentDate"`
	Description    string `json:"description"`
}
