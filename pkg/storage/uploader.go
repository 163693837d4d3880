package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"
)

// Uploader stores receipt artifacts and never fails: when the backing store
// rejects the write or cannot produce a retrieval URL, it synthesizes a
// self-contained data-URI reference so downstream pipeline stages are never
// blocked on storage. Single attempt per request, no retry.
type Uploader struct {
	store  ObjectStore
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewUploader creates an Uploader over the given store.
func NewUploader(store ObjectStore, signedURLTTL time.Duration, logger *slog.Logger) *Uploader {
	if signedURLTTL <= 0 {
		signedURLTTL = 15 * time.Minute
	}
	return &Uploader{
		store:  store,
		ttl:    signedURLTTL,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the clock used for key generation and timestamps.
func (u *Uploader) WithClock(now func() time.Time) *Uploader {
	u.now = now
	return u
}

// Upload stores the document and returns its reference. It never returns an
// error: any storage failure yields a degraded data-URI reference instead.
func (u *Uploader) Upload(ctx context.Context, ownerID, filename, contentType string, data []byte) *Reference {
	ref := &Reference{
		Key:         u.buildKey(ownerID, filename),
		Size:        int64(len(data)),
		FileName:    filename,
		ContentType: contentType,
		UploadedAt:  u.now().UTC(),
		StorageType: StorageTypeS3,
	}

	if u.store == nil {
		return u.fallback(ref, contentType, data, fmt.Errorf("no object store configured"))
	}

	if err := u.store.Put(ctx, ref.Key, contentType, data); err != nil {
		return u.fallback(ref, contentType, data, err)
	}

	url, err := u.store.SignedURL(ctx, ref.Key, u.ttl)
	if err != nil {
		return u.fallback(ref, contentType, data, err)
	}

	ref.URL = url
	return ref
}

// fallback embeds the bytes directly in the URL so the reference has no
// external dependency.
func (u *Uploader) fallback(ref *Reference, contentType string, data []byte, cause error) *Reference {
	if u.logger != nil {
		u.logger.Warn("object store unavailable, using data-URI fallback",
			slog.String("key", ref.Key),
			slog.Any("error", cause),
		)
	}

	ref.URL = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	ref.Degraded = true
	ref.StorageType = StorageTypeLocalFallback
	return ref
}

// buildKey namespaces objects by owner with a monotonic timestamp so repeated
// uploads of the same filename never collide.
func (u *Uploader) buildKey(ownerID, filename string) string {
	return fmt.Sprintf("receipts/%s/%d-%s", ownerID, u.now().UnixMilli(), sanitizeFilename(filename))
}
