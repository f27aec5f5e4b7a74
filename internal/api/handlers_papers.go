package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type paperSearchPayload struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// handlePaperSearch queries the external paper index directly, without
// going through intent classification.
func (s *Server) handlePaperSearch(w http.ResponseWriter, r *http.Request) {
	var payload paperSearchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	max := payload.MaxResults
	if max <= 0 {
		max = s.cfg.ArxivMaxResults
	}

	papers, err := s.arxiv.Search(r.Context(), payload.Query, max)
	if err != nil {
		jsonError(w, "paper search failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"papers": papers})
}

// handlePaperIngest downloads a paper's PDF by external ID and queues
// it through the normal ingestion pipeline.
func (s *Server) handlePaperIngest(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")

	data, filename, err := s.arxiv.Download(r.Context(), paperID)
	if err != nil {
		jsonError(w, "paper download failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("paper exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := s.newJob(sanitizeFilename(filename), "", data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"paper_id": paperID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}
