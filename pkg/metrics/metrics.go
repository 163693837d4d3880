// Package metrics exposes Prometheus instrumentation for the scan pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the counters the scan pipeline reports against.
type Pipeline struct {
	ScansTotal         prometheus.Counter
	ValidationRejects  prometheus.Counter
	StorageFallbacks   prometheus.Counter
	OCRFallbacks       prometheus.Counter
	ExtractorFallbacks prometheus.Counter
	ScanDuration       prometheus.Histogram
}

// NewPipeline registers pipeline metrics on the given registerer.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)

	return &Pipeline{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_scans_total",
			Help: "Total receipt scan requests accepted past validation.",
		}),
		ValidationRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_scan_validation_rejects_total",
			Help: "Scan requests rejected by upload validation.",
		}),
		StorageFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_scan_storage_fallbacks_total",
			Help: "Uploads that fell back to the degraded data-URI reference.",
		}),
		OCRFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_scan_ocr_fallbacks_total",
			Help: "Scans where OCR failed and the placeholder document was used.",
		}),
		ExtractorFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_scan_extractor_fallbacks_total",
			Help: "Scans where structured extraction failed and the heuristic parser ran.",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "receipt_scan_duration_seconds",
			Help:    "End-to-end scan pipeline duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
