package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/paperquery/internal/answer"
	"github.com/dgallion1/paperquery/internal/pipeline"
)

type queryPayload struct {
	Query      string   `json:"query"`
	DocIDs     []string `json:"doc_ids,omitempty"`
	RenderHTML bool     `json:"render_html,omitempty"`
	MaxPapers  int      `json:"max_papers,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var payload queryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	if payload.MaxPapers <= 0 {
		payload.MaxPapers = s.cfg.ArxivMaxResults
	}

	resp, err := s.query.Handle(r.Context(), pipeline.QueryRequest{
		Text:       payload.Query,
		DocIDs:     payload.DocIDs,
		RenderHTML: payload.RenderHTML,
		MaxPapers:  payload.MaxPapers,
	})
	if err != nil {
		var cerr *answer.CollaboratorError
		if errors.As(err, &cerr) {
			jsonError(w, cerr.Error(), collaboratorStatus(cerr))
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// collaboratorStatus maps collaborator failures to HTTP codes.
func collaboratorStatus(e *answer.CollaboratorError) int {
	switch e.Kind {
	case "invalid_key":
		return http.StatusBadGateway
	case "rate_limited":
		return http.StatusTooManyRequests
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"history": s.query.History().Entries()})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.query.History().Clear()
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"cleared":true}`))
}
