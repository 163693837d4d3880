// Package extract converts raw receipt documents into text lines or
// structured expense fields via external analysis engines, with local
// fallbacks so a dead engine never fails a scan request.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TextDetector is the external OCR engine contract.
type TextDetector interface {
	DetectText(ctx context.Context, data []byte, contentType string) (string, error)
}

// PlaceholderHeader is the first line of the synthetic document produced when
// OCR is unavailable. The suggestion composer treats a merchant equal to this
// header as "not found".
const PlaceholderHeader = "RECEIPT PROCESSING NOTICE"

// TextExtractor turns document bytes into ordered, trimmed, non-empty text
// lines. It never fails: when the OCR engine errors, it emits a well-formed
// receipt-shaped placeholder document prompting manual entry, so the
// heuristic parser downstream degrades instead of crashing.
type TextExtractor struct {
	detector TextDetector
	logger   *slog.Logger
	now      func() time.Time
}

// NewTextExtractor creates a text extractor over the given OCR engine.
func NewTextExtractor(detector TextDetector, logger *slog.Logger) *TextExtractor {
	return &TextExtractor{
		detector: detector,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the clock used in placeholder documents.
func (e *TextExtractor) WithClock(now func() time.Time) *TextExtractor {
	e.now = now
	return e
}

// Extract returns the document's text lines. Single attempt, no retry; any
// OCR failure yields the placeholder document.
func (e *TextExtractor) Extract(ctx context.Context, data []byte, contentType string) []string {
	if e.detector == nil {
		return e.placeholder(data, contentType, fmt.Errorf("no OCR engine configured"))
	}

	text, err := e.detector.DetectText(ctx, data, contentType)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("OCR unavailable, using placeholder document",
				slog.String("content_type", contentType),
				slog.Int("size", len(data)),
				slog.Any("error", err),
			)
		}
		return e.placeholder(data, contentType, err)
	}

	return splitLines(text)
}

// placeholder builds the fixed-template fallback document.
func (e *TextExtractor) placeholder(data []byte, contentType string, cause error) []string {
	return []string{
		PlaceholderHeader,
		"Automatic text extraction was unavailable for this document.",
		fmt.Sprintf("Content-Type: %s", contentType),
		fmt.Sprintf("Size: %d bytes", len(data)),
		fmt.Sprintf("Processed: %s", e.now().UTC().Format(time.RFC822)),
		"Please enter the receipt details manually:",
		"Merchant: ____________",
		"Date: ____________",
		"Amount: ____________",
		"Tax: ____________",
		fmt.Sprintf("Extraction error: %v", cause),
	}
}

// splitLines normalizes raw OCR output into trimmed non-empty lines.
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
