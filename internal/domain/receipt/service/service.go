// Package service orchestrates the receipt pipeline: storage upload,
// structured extraction with heuristic fallback, taxonomy inference and
// suggestion composition. Every external dependency gets exactly one attempt;
// failures fall forward to the next strategy instead of being retried, so a
// scan always produces a result.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/extract"
	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/parser"
	"github.com/FACorreiaa/receipt-pipeline/internal/domain/taxonomy"
	"github.com/FACorreiaa/receipt-pipeline/pkg/metrics"
	"github.com/FACorreiaa/receipt-pipeline/pkg/storage"
)

// degradedStorageWarning is surfaced to the caller when the upload fell back
// to the embedded data URI.
const degradedStorageWarning = "file storage is temporarily unavailable; the receipt is embedded in the upload URL instead of a remote object"

// ScanResult is everything one scan produced, in the order the stages ran.
type ScanResult struct {
	Upload        *storage.Reference
	Warning       string
	ExtractedText string
	Parsed        *parser.ParsedReceipt
	Suggested     *SuggestedExpense
}

// Service runs the scan pipeline.
type Service struct {
	uploader   *storage.Uploader
	structured *extract.StructuredExtractor
	ocr        *extract.TextExtractor
	taxonomies *taxonomy.Service
	inferencer *taxonomy.Inferencer
	metrics    *metrics.Pipeline
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new receipt scan service.
func NewService(
	uploader *storage.Uploader,
	structured *extract.StructuredExtractor,
	ocr *extract.TextExtractor,
	taxonomies *taxonomy.Service,
	inferencer *taxonomy.Inferencer,
	pipelineMetrics *metrics.Pipeline,
	logger *slog.Logger,
) *Service {
	return &Service{
		uploader:   uploader,
		structured: structured,
		ocr:        ocr,
		taxonomies: taxonomies,
		inferencer: inferencer,
		metrics:    pipelineMetrics,
		tracer:     otel.Tracer("receipt-pipeline"),
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Scan runs the full pipeline over one uploaded document. It never fails:
// each stage's failure is absorbed by its documented fallback, so the caller
// always gets a storage reference and an expense suggestion.
func (s *Service) Scan(ctx context.Context, userID uuid.UUID, filename, contentType string, data []byte) *ScanResult {
	ctx, span := s.tracer.Start(ctx, "receipt.scan", trace.WithAttributes(
		attribute.String("receipt.content_type", contentType),
		attribute.Int("receipt.size_bytes", len(data)),
	))
	defer span.End()

	s.metrics.ScansTotal.Inc()
	timer := s.now()
	defer func() {
		s.metrics.ScanDuration.Observe(s.now().Sub(timer).Seconds())
	}()

	result := &ScanResult{}

	result.Upload = s.uploader.Upload(ctx, userID.String(), filename, contentType, data)
	if result.Upload.Degraded {
		s.metrics.StorageFallbacks.Inc()
		span.SetAttributes(attribute.Bool("receipt.storage_degraded", true))
		result.Warning = degradedStorageWarning
	}

	categories, tags := s.loadVocabularies(ctx, userID)

	result.Parsed = s.extractFields(ctx, data, contentType, categories, result)

	if result.Parsed.Category == "" {
		result.Parsed.Category = s.inferencer.ResolveCategory(result.Parsed.MerchantName, categories)
	}

	merchant := result.Parsed.MerchantName
	if merchant == extract.PlaceholderHeader {
		merchant = ""
	}
	suggestedTags := s.inferencer.SuggestTags(merchant, result.Parsed.Category, tags)

	result.Suggested = composeSuggestion(result.Parsed, result.Upload, suggestedTags, s.now())

	return result
}

// extractFields tries structured extraction first and falls back to OCR plus
// the heuristic parser. Exactly one of the two producers populates the
// returned ParsedReceipt.
func (s *Service) extractFields(ctx context.Context, data []byte, contentType string, categories []string, result *ScanResult) *parser.ParsedReceipt {
	ctx, span := s.tracer.Start(ctx, "receipt.extract")
	defer span.End()

	structuredParsed, err := s.structured.Analyze(ctx, data)
	if err == nil {
		span.SetAttributes(attribute.String("receipt.producer", "structured"))
		return structuredParsed
	}
	s.metrics.ExtractorFallbacks.Inc()
	s.logger.Info("structured extraction unavailable, using heuristic parser", "error", err)

	span.SetAttributes(attribute.String("receipt.producer", "heuristic"))

	lines := s.ocr.Extract(ctx, data, contentType)
	if len(lines) > 0 && lines[0] == extract.PlaceholderHeader {
		s.metrics.OCRFallbacks.Inc()
	}
	result.ExtractedText = strings.Join(lines, "\n")

	parsed := parser.NewParser(s.inferencer).Parse(lines, categories)
	return &parsed
}

// loadVocabularies fetches the caller's categories and tags. A lookup failure
// is absorbed: inference then runs against empty vocabularies and resolves to
// the generic bucket.
func (s *Service) loadVocabularies(ctx context.Context, userID uuid.UUID) (categories, tags []string) {
	categories, tags, err := s.taxonomies.Vocabularies(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load taxonomy, inference will use defaults", "user_id", userID, "error", err)
		return nil, nil
	}
	return categories, tags
}
