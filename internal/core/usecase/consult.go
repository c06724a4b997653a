package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/core/ports"
	"github.com/kachastepien/Backoffice/internal/observability/metrics"
)

// ConsultDoctorUseCase requests an on-demand medical-consultation opinion.
// It is independent of the analysis pipeline and keeps no state.
type ConsultDoctorUseCase struct {
	adviser ports.MedicalAdviser
	now     func() time.Time

	metrics *metrics.PipelineMetrics
	service string
}

func NewConsultDoctorUseCase(adviser ports.MedicalAdviser, pipelineMetrics *metrics.PipelineMetrics) *ConsultDoctorUseCase {
	return &ConsultDoctorUseCase{
		adviser: adviser,
		now:     time.Now,
		metrics: pipelineMetrics,
		service: "backoffice-api",
	}
}

func (uc *ConsultDoctorUseCase) Consult(ctx context.Context, question, caseContext string) (domain.MedicalOpinion, error) {
	if strings.TrimSpace(question) == "" {
		return domain.MedicalOpinion{}, domain.WrapError(domain.ErrInvalidInput, "medical consultation", errors.New("question is required"))
	}

	opinion, err := uc.adviser.Consult(ctx, question, caseContext)
	uc.metrics.RecordConsultation(uc.service, err)
	if err != nil {
		return domain.MedicalOpinion{}, fmt.Errorf("medical consultation: %w", err)
	}

	switch opinion.Conclusion {
	case domain.ConclusionInjuryConfirmed, domain.ConclusionDiseaseConfirmed, domain.ConclusionInsufficientData:
	default:
		opinion.Conclusion = domain.ConclusionInsufficientData
	}
	opinion.IssuedAt = uc.now().UTC()
	return opinion, nil
}
