// Package storage provides object storage for receipt artifacts with S3 and
// local filesystem backends, plus a degraded data-URI fallback so the scan
// pipeline never blocks on storage.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ObjectStore is the remote object store contract: one write, one signed read URL.
type ObjectStore interface {
	// Put stores an object under key.
	Put(ctx context.Context, key, contentType string, data []byte) error

	// SignedURL returns a time-limited retrieval URL for key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Wire values for the storageType response field.
const (
	StorageTypeS3            = "s3"
	StorageTypeLocalFallback = "local_fallback"
)

// Reference describes a stored receipt artifact.
// Degraded means URL is a self-contained data URI rather than a remote object;
// the caller surfaces a non-fatal warning but the request still succeeds.
type Reference struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploaded"`
	StorageType string    `json:"storageType"`
	Degraded    bool      `json:"-"`
}

// Config holds storage configuration
type Config struct {
	Type string // "s3" or "local"

	// Local storage config
	LocalPath string
	BaseURL   string // Used to build retrieval URLs for local objects

	// S3 storage config
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string // For S3-compatible services (MinIO, etc.)
}

// New creates an ObjectStore implementation based on configuration
func New(ctx context.Context, cfg *Config) (ObjectStore, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalPath, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(name)
}
