package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore implements ObjectStore using the local filesystem.
// Intended for development; retrieval URLs are served by the hosting app
// under /uploads/.
type LocalStore struct {
	basePath string
	baseURL  string
}

// NewLocalStore creates a new local filesystem store
func NewLocalStore(basePath, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStore{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put stores an object under key, creating intermediate directories.
func (s *LocalStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		os.Remove(path) // Cleanup on partial write
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// SignedURL returns a retrieval URL for an existing local object.
// Local URLs do not expire; ttl is accepted for interface parity.
func (s *LocalStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("object not found: %w", err)
	}

	return fmt.Sprintf("%s/uploads/%s", s.baseURL, key), nil
}

// Purge removes objects older than the retention window and returns how many
// files were deleted. Used by the scheduled janitor.
func (s *LocalStore) Purge(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if rmErr := os.Remove(path); rmErr == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to purge local storage: %w", err)
	}

	return removed, nil
}

// BasePath returns the storage root directory.
func (s *LocalStore) BasePath() string {
	return s.basePath
}
