package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/core/ports"
)

const cardSheetName = "Karta wypadku"

// ExportAccidentCardUseCase renders a completed analysis into an XLSX draft
// of the accident-report card. Everything in the workbook is marked as a
// draft for human sign-off.
type ExportAccidentCardUseCase struct {
	cases ports.CaseRepository
	store ports.AnalysisStateStore
}

func NewExportAccidentCardUseCase(cases ports.CaseRepository, store ports.AnalysisStateStore) *ExportAccidentCardUseCase {
	return &ExportAccidentCardUseCase{cases: cases, store: store}
}

func (uc *ExportAccidentCardUseCase) Export(ctx context.Context, caseID string) ([]byte, string, error) {
	c, err := uc.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, "", fmt.Errorf("load case: %w", err)
	}

	state, ok := uc.store.Get(caseID)
	if !ok || state.Step != domain.StepComplete || state.Result == nil {
		return nil, "", domain.WrapError(domain.ErrNotReady, "export accident card", errors.New("analysis has not completed for this case"))
	}
	result := state.Result

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", cardSheetName); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][2]string{
		{"KARTA WYPADKU (PROJEKT — wymaga zatwierdzenia)", ""},
		{"Sprawa", c.ID},
		{"Poszkodowany", orSentinel(result.AccidentCard.VictimName)},
		{"PESEL", orSentinel(result.AccidentCard.VictimPESEL)},
		{"Data wypadku", orSentinel(result.AccidentCard.AccidentDate)},
		{"Miejsce zdarzenia", orSentinel(result.AccidentCard.AccidentPlace)},
		{"Rodzaj działalności", c.BusinessType},
		{"Okoliczności", orSentinel(result.AccidentCard.Circumstances)},
		{"Przyczyny", orSentinel(result.AccidentCard.Causes)},
		{"Skutki", orSentinel(result.AccidentCard.Effects)},
		{"Opis stanu faktycznego", orSentinel(result.Summary)},
		{"", ""},
		{"Przesłanki wypadku", ""},
		{"Nagłość", result.Criteria.Suddenness.String()},
		{"Przyczyna zewnętrzna", result.Criteria.ExternalCause.String()},
		{"Uraz", result.Criteria.Injury.String()},
		{"Związek z pracą", result.Criteria.WorkConnection.String()},
		{"", ""},
		{"Pewność analizy", fmt.Sprintf("%d%%", result.Calculation.ConfidenceScore)},
		{"Rekomendacja", string(result.Calculation.RecommendationShort)},
		{"Uzasadnienie", result.Calculation.ReasoningShort},
	}

	for i, row := range rows {
		cellA, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, "", fmt.Errorf("build cell name: %w", err)
		}
		cellB, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return nil, "", fmt.Errorf("build cell name: %w", err)
		}
		if err := f.SetCellValue(cardSheetName, cellA, row[0]); err != nil {
			return nil, "", fmt.Errorf("write cell %s: %w", cellA, err)
		}
		if err := f.SetCellValue(cardSheetName, cellB, row[1]); err != nil {
			return nil, "", fmt.Errorf("write cell %s: %w", cellB, err)
		}
	}
	if err := f.SetColWidth(cardSheetName, "A", "A", 28); err != nil {
		return nil, "", fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(cardSheetName, "B", "B", 80); err != nil {
		return nil, "", fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("karta-wypadku-%s.xlsx", caseID), nil
}

func orSentinel(value string) string {
	if strings.TrimSpace(value) == "" {
		return domain.SentinelToComplete
	}
	return value
}
