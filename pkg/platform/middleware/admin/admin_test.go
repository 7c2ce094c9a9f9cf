package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdminToken("secret", logger)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/identity", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts matching token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/identity", nil)
		req.Header.Set("X-Admin-Token", "secret")
		rec := httptest.NewRecorder()
		RequireAdminToken("secret", logger)(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("empty expected token disables the check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdminToken("", logger)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/identity", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
