package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)
	userID := uuid.New()

	token, err := tm.Issue(userID)
	require.NoError(t, err)

	got, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Validate("not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager([]byte("other-secret"), time.Hour)
		token, err := other.Issue(uuid.New())
		require.NoError(t, err)

		_, err = tm.Validate(token)
		assert.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)
	userID := uuid.New()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, userID, got)
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(tm)(next)

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := tm.Issue(userID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
