package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	putErr    error
	signErr   error
	putKey    string
	putData   []byte
	signedKey string
}

func (f *fakeStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	f.putKey = key
	f.putData = data
	return f.putErr
}

func (f *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.signedKey = key
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://bucket.example.com/%s?sig=abc", key), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 3, 2, 14, 55, 0, 0, time.UTC) }
}

func TestUpload_HealthyPath(t *testing.T) {
	store := &fakeStore{}
	u := NewUploader(store, 15*time.Minute, testLogger()).WithClock(fixedClock())

	data := []byte("jpeg bytes")
	ref := u.Upload(context.Background(), "user-1", "lunch receipt.jpg", "image/jpeg", data)

	require.NotNil(t, ref)
	assert.False(t, ref.Degraded)
	assert.Equal(t, StorageTypeS3, ref.StorageType)
	assert.Equal(t, int64(len(data)), ref.Size)
	assert.Equal(t, "lunch receipt.jpg", ref.FileName)
	assert.Equal(t, "image/jpeg", ref.ContentType)

	assert.True(t, strings.HasPrefix(ref.Key, "receipts/user-1/"), "key %q should be owner-namespaced", ref.Key)
	assert.True(t, strings.HasSuffix(ref.Key, "-lunch_receipt.jpg"), "key %q should end with sanitized filename", ref.Key)
	assert.Equal(t, ref.Key, store.putKey)
	assert.Equal(t, data, store.putData)
	assert.Contains(t, ref.URL, ref.Key)
}

func TestUpload_FallbackOnPutFailure(t *testing.T) {
	store := &fakeStore{putErr: errors.New("connection refused")}
	u := NewUploader(store, 15*time.Minute, testLogger()).WithClock(fixedClock())

	data := []byte("original receipt bytes")
	ref := u.Upload(context.Background(), "user-1", "receipt.png", "image/png", data)

	require.NotNil(t, ref)
	assert.True(t, ref.Degraded)
	assert.Equal(t, StorageTypeLocalFallback, ref.StorageType)

	require.True(t, strings.HasPrefix(ref.URL, "data:image/png;base64,"), "url %q should be a data URI", ref.URL)
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref.URL, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestUpload_FallbackOnSignFailure(t *testing.T) {
	store := &fakeStore{signErr: errors.New("presign failed")}
	u := NewUploader(store, 15*time.Minute, testLogger())

	ref := u.Upload(context.Background(), "user-1", "r.pdf", "application/pdf", []byte("%PDF"))

	assert.True(t, ref.Degraded)
	assert.Equal(t, StorageTypeLocalFallback, ref.StorageType)
	assert.True(t, strings.HasPrefix(ref.URL, "data:application/pdf;base64,"))
}

func TestUpload_NilStoreNeverFails(t *testing.T) {
	u := NewUploader(nil, 0, testLogger())

	assert.NotPanics(t, func() {
		ref := u.Upload(context.Background(), "user-1", "r.jpg", "image/jpeg", []byte{1, 2, 3})
		assert.True(t, ref.Degraded)
	})
}

func TestLocalStore_PutAndSignedURL(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)

	data := []byte("hello")
	key := "receipts/user-1/123-r.jpg"
	require.NoError(t, store.Put(context.Background(), key, "image/jpeg", data))

	url, err := store.SignedURL(context.Background(), key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/"+key, url)

	_, err = store.SignedURL(context.Background(), "receipts/user-1/missing.jpg", time.Minute)
	assert.Error(t, err)
}

func TestLocalStore_Purge(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "receipts/u/old.jpg", "image/jpeg", []byte("old")))
	require.NoError(t, store.Put(context.Background(), "receipts/u/new.jpg", "image/jpeg", []byte("new")))

	// Everything is younger than an hour, nothing to purge.
	removed, err := store.Purge(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Zero retention purges all stored objects.
	removed, err = store.Purge(-time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.SignedURL(context.Background(), "receipts/u/new.jpg", time.Minute)
	assert.Error(t, err)
}
