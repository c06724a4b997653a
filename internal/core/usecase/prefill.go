package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/core/ports"
	"github.com/kachastepien/Backoffice/internal/observability/metrics"
)

// Note passed to the model when OCR fails during pre-fill: infer from the
// filename only, or leave fields empty for manual entry.
const prefillOCRFailureNote = "[UWAGA: OCR nieudany. Spróbuj wywnioskować dane tylko z nazwy pliku lub zwróć puste pola, aby użytkownik uzupełnił ręcznie.]"

// PrefillCaseUseCase is the one-shot form pre-fill pipeline: extraction plus
// a single inference call. It shares the extraction adapter with the main
// pipeline but has no state machine and no progress tracking.
type PrefillCaseUseCase struct {
	extractor ports.TextExtractor
	metadata  ports.MetadataExtractor

	logger  *slog.Logger
	metrics *metrics.PipelineMetrics
	service string
}

func NewPrefillCaseUseCase(
	extractor ports.TextExtractor,
	metadata ports.MetadataExtractor,
	logger *slog.Logger,
	pipelineMetrics *metrics.PipelineMetrics,
) *PrefillCaseUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrefillCaseUseCase{
		extractor: extractor,
		metadata:  metadata,
		logger:    logger,
		metrics:   pipelineMetrics,
		service:   "backoffice-api",
	}
}

func (uc *PrefillCaseUseCase) Prefill(ctx context.Context, doc domain.UploadedDocument) (domain.CasePrefill, error) {
	if len(doc.Content) == 0 {
		return domain.CasePrefill{}, domain.WrapError(domain.ErrInvalidInput, "prefill case", errors.New("document content is empty"))
	}

	// Images go straight to the vision input; everything else needs the OCR
	// text. An OCR failure degrades to a note instead of aborting the
	// pre-fill, matching the main pipeline's fault-isolation posture.
	ocrText := ""
	if !doc.IsImage() {
		text, err := uc.extractor.Extract(ctx, doc)
		if err != nil {
			uc.logger.Warn("prefill_ocr_failed", "filename", doc.Name, "error", err)
			text = prefillOCRFailureNote
		}
		ocrText = text
	}

	prefill, err := uc.metadata.ExtractMetadata(ctx, doc, ocrText)
	uc.metrics.RecordPrefill(uc.service, err)
	if err != nil {
		return domain.CasePrefill{}, fmt.Errorf("extract case metadata: %w", err)
	}
	return prefill, nil
}
