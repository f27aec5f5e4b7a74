package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists every document in the corpus.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	entries := s.corpus.List()
	docs := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, map[string]any{
			"doc_id":     e.Doc.ID,
			"title":      e.Doc.Title,
			"filename":   e.Doc.Filename,
			"page_count": e.Doc.PageCount,
			"units":      len(e.Doc.Units),
			"warnings":   len(e.Doc.Warnings),
			"created_at": e.Doc.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleGetDocument returns the full extracted document, units included.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	entry, ok := s.corpus.Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry.Doc)
}

// handleDocumentSummary returns the structural summary (section tree,
// counts) without unit text.
func (s *Server) handleDocumentSummary(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	entry, ok := s.corpus.Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry.Doc.Summarize())
}

// handleDeleteDocument removes a document and its index from the corpus.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.corpus.Remove(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": docID})
}
