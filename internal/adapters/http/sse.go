package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

// streamAnalysisEvents pushes analysis-state snapshots for one case as
// server-sent events. The current state is delivered immediately; the stream
// ends after a terminal snapshot or when the client disconnects.
func (rt *Router) streamAnalysisEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported by response writer"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	caseID := r.PathValue("case_id")
	updates := rt.states.Watch(r.Context(), caseID)

	for state := range updates {
		payload, err := json.Marshal(state)
		if err != nil {
			rt.logger.Error("sse_marshal_failed", "case_id", caseID, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()

		if state.Step == domain.StepComplete || state.Step == domain.StepError {
			break
		}
	}

	_, _ = io.WriteString(w, "data: [DONE]\n\n")
	flusher.Flush()
}
