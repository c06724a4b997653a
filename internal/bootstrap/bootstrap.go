package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kachastepien/Backoffice/internal/config"
	"github.com/kachastepien/Backoffice/internal/core/ports"
	"github.com/kachastepien/Backoffice/internal/core/usecase"
	"github.com/kachastepien/Backoffice/internal/infrastructure/extraction/unstructured"
	"github.com/kachastepien/Backoffice/internal/infrastructure/llm/openai"
	registrymem "github.com/kachastepien/Backoffice/internal/infrastructure/registry/memory"
	"github.com/kachastepien/Backoffice/internal/infrastructure/resilience"
	statemem "github.com/kachastepien/Backoffice/internal/infrastructure/state/memory"
	"github.com/kachastepien/Backoffice/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Repo   ports.CaseRepository
	States ports.AnalysisStateStore

	AnalyzeUC ports.CaseAnalyzer
	PrefillUC ports.CasePrefiller
	ConsultUC ports.MedicalConsultant
	ExportUC  ports.AccidentCardExporter
}

// New wires every adapter behind the inbound ports. Missing credentials fail
// here, before the server binds a port.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	serverMetrics := metrics.NewHTTPServerMetrics("backoffice-api")

	executor := resilience.NewExecutor(resilience.Config{
		Enabled:          cfg.BreakerEnabled,
		MinRequests:      uint32(cfg.BreakerMinRequests),
		FailureRatio:     cfg.BreakerFailureRatio,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		HalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
	})

	extractor, err := unstructured.New(cfg.OCRAPIKey, unstructured.Options{
		BaseURL:           cfg.OCRBaseURL,
		Language:          cfg.OCRLanguage,
		Strategy:          cfg.OCRStrategy,
		Timeout:           cfg.OCRTimeout,
		MinTextLayerRunes: cfg.OCRMinPDFText,
		Metrics:           serverMetrics.Pipeline,
	})
	if err != nil {
		return nil, fmt.Errorf("init extraction adapter: %w", err)
	}

	llmClient, err := openai.NewClient(cfg.OpenAIAPIKey, openai.Options{
		BaseURL:  cfg.OpenAIBaseURL,
		Executor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init inference client: %w", err)
	}

	analyst := openai.NewLegalAnalyst(llmClient, cfg.AnalysisModel, cfg.AnalysisMaxTokens, serverMetrics.Pipeline)
	scorer := openai.NewConfidenceScorer(llmClient, cfg.ScoringModel, cfg.ScoringMaxTokens)
	adviser := openai.NewMedicalAdviser(llmClient, cfg.ConsultationModel, cfg.ConsultationMaxTokens)
	metadata := openai.NewMetadataExtractor(llmClient, cfg.MetadataModel, cfg.MetadataMaxTokens)

	states := statemem.NewStore()
	repo := registrymem.NewRepository()
	if cfg.SeedDemoCases {
		if err := repo.SeedDemoCases(ctx); err != nil {
			return nil, fmt.Errorf("seed demo cases: %w", err)
		}
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: serverMetrics,

		Repo:   repo,
		States: states,

		AnalyzeUC: usecase.NewAnalyzeCaseUseCase(states, extractor, analyst, scorer, logger, serverMetrics.Pipeline),
		PrefillUC: usecase.NewPrefillCaseUseCase(extractor, metadata, logger, serverMetrics.Pipeline),
		ConsultUC: usecase.NewConsultDoctorUseCase(adviser, serverMetrics.Pipeline),
		ExportUC:  usecase.NewExportAccidentCardUseCase(repo, states),
	}, nil
}
