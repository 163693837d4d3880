// Package handler exposes the receipt scan endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/parser"
	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/service"
	"github.com/FACorreiaa/receipt-pipeline/pkg/auth"
	"github.com/FACorreiaa/receipt-pipeline/pkg/metrics"
	"github.com/FACorreiaa/receipt-pipeline/pkg/storage"
)

// allowedContentTypes is the accepted upload set. Anything else is rejected
// before the pipeline runs.
var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// maxBytesSlack is the headroom the body reader keeps above the file limit
// to cover multipart framing around an at-limit file.
const maxBytesSlack = 1024

// ReceiptHandler serves the multipart scan endpoint.
type ReceiptHandler struct {
	svc      *service.Service
	metrics  *metrics.Pipeline
	maxBytes int64
	logger   *slog.Logger
}

// NewReceiptHandler constructs a new handler. maxBytes is the upload size
// ceiling; files above it get a 413.
func NewReceiptHandler(svc *service.Service, pipelineMetrics *metrics.Pipeline, maxBytes int64, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		svc:      svc,
		metrics:  pipelineMetrics,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

type scanResponse struct {
	Success          bool                      `json:"success"`
	Upload           *storage.Reference        `json:"upload"`
	Warning          string                    `json:"warning,omitempty"`
	ExtractedText    string                    `json:"extractedText"`
	ParsedData       *parser.ParsedReceipt     `json:"parsedData"`
	SuggestedExpense *service.SuggestedExpense `json:"suggestedExpense"`
}

// Scan handles POST /v1/receipts/scan. Validation failures are the only
// errors a caller ever sees; everything past validation degrades instead of
// failing.
func (h *ReceiptHandler) Scan(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	// The reader cap leaves slack above the file limit for multipart framing,
	// so at-limit files parse and the size check below reports the observed
	// byte count. Bodies past the cap truncate mid-parse; that surfaces as a
	// MaxBytesError here and gets the 413, not the missing-field 400.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+maxBytesSlack)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.metrics.ValidationRejects.Inc()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, oversizeMessage(r.ContentLength, h.maxBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		h.metrics.ValidationRejects.Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported content type %q; accepted types are JPEG, PNG, GIF, WebP and PDF", contentType))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.metrics.ValidationRejects.Inc()
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	if int64(len(data)) > h.maxBytes {
		h.metrics.ValidationRejects.Inc()
		writeError(w, http.StatusRequestEntityTooLarge, oversizeMessage(int64(len(data)), h.maxBytes))
		return
	}
	if len(data) == 0 {
		h.metrics.ValidationRejects.Inc()
		writeError(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}

	result := h.svc.Scan(r.Context(), userID, header.Filename, contentType, data)

	writeJSON(w, http.StatusOK, scanResponse{
		Success:          true,
		Upload:           result.Upload,
		Warning:          result.Warning,
		ExtractedText:    result.ExtractedText,
		ParsedData:       result.Parsed,
		SuggestedExpense: result.Suggested,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// oversizeMessage names the observed size and the limit. observed is the
// request Content-Length when the body was truncated mid-parse, so it may be
// unknown for chunked uploads.
func oversizeMessage(observed, limit int64) string {
	if observed <= 0 {
		return fmt.Sprintf("file exceeds the %d byte limit", limit)
	}
	return fmt.Sprintf("file is %d bytes, which exceeds the %d byte limit", observed, limit)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
