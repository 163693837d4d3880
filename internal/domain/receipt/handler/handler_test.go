package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/extract"
	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/service"
	"github.com/FACorreiaa/receipt-pipeline/internal/domain/taxonomy"
	"github.com/FACorreiaa/receipt-pipeline/pkg/auth"
	"github.com/FACorreiaa/receipt-pipeline/pkg/metrics"
	"github.com/FACorreiaa/receipt-pipeline/pkg/storage"
)

type stubStore struct{}

func (stubStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	return nil
}

func (stubStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://bucket.example.com/" + key, nil
}

type stubDetector struct{ text string }

func (s stubDetector) DetectText(ctx context.Context, data []byte, contentType string) (string, error) {
	return s.text, nil
}

type failingExpenseAPI struct{}

func (failingExpenseAPI) AnalyzeExpense(ctx context.Context, data []byte) (*extract.ExpenseDocument, error) {
	return nil, errors.New("unavailable")
}

const testMaxBytes = 4 * 1024 * 1024

func newTestHandler(t *testing.T, userID uuid.UUID) *ReceiptHandler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	// Vocabulary lookups may or may not run depending on how far the request
	// gets; match any number of them.
	for i := 0; i < 4; i++ {
		mock.ExpectQuery(`SELECT name\s+FROM categories`).WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Shopping").AddRow("Other"))
		mock.ExpectQuery(`SELECT name\s+FROM tags`).WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("receipt"))
	}

	inferencer, err := taxonomy.NewInferencer()
	require.NoError(t, err)

	receiptText := "TARGET STORE\n03/02/2026\nTax $6.87\nTotal $90.11"
	pipelineMetrics := metrics.NewPipeline(prometheus.NewRegistry())

	svc := service.NewService(
		storage.NewUploader(stubStore{}, 15*time.Minute, logger),
		extract.NewStructuredExtractor(failingExpenseAPI{}, logger),
		extract.NewTextExtractor(stubDetector{text: receiptText}, logger),
		taxonomy.NewService(taxonomy.NewRepository(mock), logger),
		inferencer,
		pipelineMetrics,
		logger,
	)

	return NewReceiptHandler(svc, pipelineMetrics, testMaxBytes, logger)
}

// multipartBody builds a multipart form with one file part carrying an
// explicit Content-Type.
func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func scanRequest(t *testing.T, userID uuid.UUID, body *bytes.Buffer, contentType string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/receipts/scan", body)
	req.Header.Set("Content-Type", contentType)
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestScan_Success(t *testing.T) {
	userID := uuid.New()
	h := newTestHandler(t, userID)

	body, contentType := multipartBody(t, "file", "receipt.jpg", "image/jpeg", []byte("jpeg bytes"))
	rec := httptest.NewRecorder()

	h.Scan(rec, scanRequest(t, userID, body, contentType))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Upload  struct {
			Key         string `json:"key"`
			URL         string `json:"url"`
			Size        int64  `json:"size"`
			FileName    string `json:"fileName"`
			ContentType string `json:"contentType"`
			StorageType string `json:"storageType"`
		} `json:"upload"`
		Warning          string                    `json:"warning"`
		ExtractedText    string                    `json:"extractedText"`
		SuggestedExpense *service.SuggestedExpense `json:"suggestedExpense"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, "receipt.jpg", resp.Upload.FileName)
	assert.Equal(t, "image/jpeg", resp.Upload.ContentType)
	assert.Equal(t, int64(10), resp.Upload.Size)
	assert.Equal(t, storage.StorageTypeS3, resp.Upload.StorageType)
	assert.Contains(t, resp.ExtractedText, "TARGET STORE")

	require.NotNil(t, resp.SuggestedExpense)
	assert.InDelta(t, 90.11, resp.SuggestedExpense.Amount, 0.001)
	assert.Equal(t, "Shopping", resp.SuggestedExpense.Category)
}

func TestScan_Unauthenticated(t *testing.T) {
	h := newTestHandler(t, uuid.New())

	body, contentType := multipartBody(t, "file", "r.jpg", "image/jpeg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScan_MissingFile(t *testing.T) {
	userID := uuid.New()
	h := newTestHandler(t, userID)

	body, contentType := multipartBody(t, "wrong-field", "r.jpg", "image/jpeg", []byte("x"))
	rec := httptest.NewRecorder()

	h.Scan(rec, scanRequest(t, userID, body, contentType))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file")
}

func TestScan_UnsupportedContentType(t *testing.T) {
	userID := uuid.New()
	h := newTestHandler(t, userID)

	body, contentType := multipartBody(t, "file", "notes.txt", "text/plain", []byte("not a receipt"))
	rec := httptest.NewRecorder()

	h.Scan(rec, scanRequest(t, userID, body, contentType))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "text/plain")
}

func TestScan_AcceptedContentTypes(t *testing.T) {
	userID := uuid.New()

	for _, ct := range []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf"} {
		t.Run(ct, func(t *testing.T) {
			h := newTestHandler(t, userID)
			body, contentType := multipartBody(t, "file", "r.bin", ct, []byte("data"))
			rec := httptest.NewRecorder()

			h.Scan(rec, scanRequest(t, userID, body, contentType))

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestScan_FileTooLarge(t *testing.T) {
	userID := uuid.New()
	h := newTestHandler(t, userID)
	h.maxBytes = 16

	oversize := bytes.Repeat([]byte("a"), 32)
	body, contentType := multipartBody(t, "file", "big.jpg", "image/jpeg", oversize)
	rec := httptest.NewRecorder()

	h.Scan(rec, scanRequest(t, userID, body, contentType))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "32 bytes")
	assert.Contains(t, rec.Body.String(), "16 byte limit")
}

func TestScan_FileFarPastLimit(t *testing.T) {
	// A body large enough to blow through the reader cap truncates during
	// multipart parsing; that must still come back as a 413 naming the
	// limit, not as a missing-field 400.
	userID := uuid.New()
	h := newTestHandler(t, userID)
	h.maxBytes = 16

	oversize := bytes.Repeat([]byte("a"), 100*1024)
	body, contentType := multipartBody(t, "file", "huge.jpg", "image/jpeg", oversize)
	rec := httptest.NewRecorder()

	h.Scan(rec, scanRequest(t, userID, body, contentType))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds the 16 byte limit")
	assert.NotContains(t, rec.Body.String(), "required")
}

func TestScan_EmptyFile(t *testing.T) {
	userID := uuid.New()
	h := newTestHandler(t, userID)

	body, contentType := multipartBody(t, "file", "empty.jpg", "image/jpeg", nil)
	rec := httptest.NewRecorder()

	h.Scan(rec, scanRequest(t, userID, body, contentType))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
