// Package httpadapter exposes the case registry, the analysis pipeline and
// the auxiliary agents over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/core/ports"
	"github.com/kachastepien/Backoffice/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

type Options struct {
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxConcurrent   int
	QueueWait       time.Duration
	PipelineTimeout time.Duration
}

type Router struct {
	analyzer   ports.CaseAnalyzer
	prefiller  ports.CasePrefiller
	consultant ports.MedicalConsultant
	exporter   ports.AccidentCardExporter
	states     ports.AnalysisStateStore
	repo       ports.CaseRepository

	metrics *metrics.HTTPServerMetrics
	logger  *slog.Logger
	opts    Options
}

func NewRouter(
	analyzer ports.CaseAnalyzer,
	prefiller ports.CasePrefiller,
	consultant ports.MedicalConsultant,
	exporter ports.AccidentCardExporter,
	states ports.AnalysisStateStore,
	repo ports.CaseRepository,
	serverMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	opts Options,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PipelineTimeout <= 0 {
		opts.PipelineTimeout = 5 * time.Minute
	}
	return &Router{
		analyzer:   analyzer,
		prefiller:  prefiller,
		consultant: consultant,
		exporter:   exporter,
		states:     states,
		repo:       repo,
		metrics:    serverMetrics,
		logger:     logger,
		opts:       opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/cases", rt.listCases)
	mux.HandleFunc("POST /v1/cases", rt.createCase)
	mux.HandleFunc("GET /v1/cases/{case_id}", rt.getCase)
	mux.HandleFunc("PUT /v1/cases/{case_id}/status", rt.updateCaseStatus)

	mux.HandleFunc("POST /v1/cases/{case_id}/analysis", rt.startAnalysis)
	mux.HandleFunc("GET /v1/cases/{case_id}/analysis", rt.getAnalysis)
	mux.HandleFunc("DELETE /v1/cases/{case_id}/analysis", rt.resetAnalysis)
	mux.HandleFunc("GET /v1/cases/{case_id}/analysis/events", rt.streamAnalysisEvents)
	mux.HandleFunc("GET /v1/cases/{case_id}/analysis/card", rt.downloadAccidentCard)

	mux.HandleFunc("POST /v1/consultations", rt.consult)
	mux.HandleFunc("POST /v1/prefill", rt.prefill)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, rt.opts.QueueWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("backoffice-api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listCases(w http.ResponseWriter, r *http.Request) {
	cases, err := rt.repo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (rt *Router) createCase(w http.ResponseWriter, r *http.Request) {
	var c domain.Case
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.repo.Create(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (rt *Router) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := rt.repo.GetByID(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (rt *Router) updateCaseStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.CaseStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.repo.UpdateStatus(r.Context(), r.PathValue("case_id"), req.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startAnalysis accepts either multipart files or a JSON fallback text and
// kicks off the pipeline in the background. Progress is observable through
// the snapshot and SSE endpoints; a second POST for the same case supersedes
// the run in flight.
func (rt *Router) startAnalysis(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	if _, err := rt.repo.GetByID(r.Context(), caseID); err != nil {
		writeError(w, err)
		return
	}

	input, err := rt.readAnalysisInput(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := rt.repo.UpdateStatus(r.Context(), caseID, domain.CaseStatusAnalyzing); err != nil {
		rt.logger.Warn("case_status_update_failed", "case_id", caseID, "error", err)
	}

	go rt.runPipeline(caseID, input)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"case_id": caseID,
		"state":   rt.analyzer.State(caseID),
	})
}

func (rt *Router) runPipeline(caseID string, input domain.AnalysisInput) {
	ctx, cancel := context.WithTimeout(context.Background(), rt.opts.PipelineTimeout)
	defer cancel()

	final, err := rt.analyzer.Start(ctx, caseID, input)
	if err != nil {
		rt.logger.Error("analysis_run_failed", "case_id", caseID, "error", err)
		return
	}
	if final.Result == nil {
		return
	}

	if err := rt.repo.UpdateRiskScore(ctx, caseID, final.Result.Calculation.ConfidenceScore); err != nil {
		rt.logger.Warn("risk_score_update_failed", "case_id", caseID, "error", err)
	}
	if err := rt.repo.UpdateStatus(ctx, caseID, domain.CaseStatusOpinionDraft); err != nil {
		rt.logger.Warn("case_status_update_failed", "case_id", caseID, "error", err)
	}
}

func (rt *Router) readAnalysisInput(r *http.Request) (domain.AnalysisInput, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return domain.AnalysisInput{}, domain.WrapError(domain.ErrInvalidInput, "parse upload", err)
		}
		docs, err := readUploadedFiles(r.MultipartForm.File["files"])
		if err != nil {
			return domain.AnalysisInput{}, err
		}
		return domain.NewAnalysisInput(docs, r.FormValue("fallback_text"))
	}

	var req struct {
		FallbackText string `json:"fallback_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.AnalysisInput{}, domain.WrapError(domain.ErrInvalidInput, "parse request", err)
	}
	return domain.NewAnalysisInput(nil, req.FallbackText)
}

func readUploadedFiles(headers []*multipart.FileHeader) ([]domain.UploadedDocument, error) {
	docs := make([]domain.UploadedDocument, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "open upload", err)
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
		}
		docs = append(docs, domain.UploadedDocument{
			Name:    header.Filename,
			Type:    header.Header.Get("Content-Type"),
			Content: content,
		})
	}
	return docs, nil
}

func (rt *Router) getAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.analyzer.State(r.PathValue("case_id")))
}

func (rt *Router) resetAnalysis(w http.ResponseWriter, r *http.Request) {
	rt.analyzer.Reset(r.PathValue("case_id"))
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) downloadAccidentCard(w http.ResponseWriter, r *http.Request) {
	data, filename, err := rt.exporter.Export(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) consult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question    string `json:"question"`
		CaseContext string `json:"case_context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	opinion, err := rt.consultant.Consult(r.Context(), req.Question, req.CaseContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opinion)
}

func (rt *Router) prefill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart body is required"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload failed"})
		return
	}

	prefill, err := rt.prefiller.Prefill(r.Context(), domain.UploadedDocument{
		Name:    header.Filename,
		Type:    header.Header.Get("Content-Type"),
		Content: content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefill)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
