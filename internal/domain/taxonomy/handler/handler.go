// Package handler exposes the taxonomy search endpoint.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FACorreiaa/receipt-pipeline/internal/domain/taxonomy"
	"github.com/FACorreiaa/receipt-pipeline/pkg/auth"
)

// TaxonomyHandler serves vocabulary search over the caller's categories and tags.
type TaxonomyHandler struct {
	svc    *taxonomy.Service
	logger *slog.Logger
}

// NewTaxonomyHandler constructs a new handler.
func NewTaxonomyHandler(svc *taxonomy.Service, logger *slog.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{svc: svc, logger: logger}
}

type searchResponse struct {
	Success bool                `json:"success"`
	Query   string              `json:"query"`
	Results []searchResultEntry `json:"results"`
}

type searchResultEntry struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

// Search handles GET /v1/taxonomy/search?q=...&limit=...
func (h *TaxonomyHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results, err := h.svc.Search(r.Context(), userID, query, limit)
	if err != nil {
		h.logger.Error("taxonomy search failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	resp := searchResponse{
		Success: true,
		Query:   query,
		Results: make([]searchResultEntry, 0, len(results)),
	}
	for _, res := range results {
		resp.Results = append(resp.Results, searchResultEntry{
			Name:  res.Name,
			Kind:  res.Kind,
			Score: res.Score,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
