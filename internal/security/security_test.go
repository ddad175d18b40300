package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersSetWhenEnabled(t *testing.T) {
	mw := Headers{Enable: true}
	rec := httptest.NewRecorder()
	mw.Middleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHeadersSkippedWhenDisabled(t *testing.T) {
	mw := Headers{Enable: false}
	rec := httptest.NewRecorder()
	mw.Middleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimitRejectsOversizedPayload(t *testing.T) {
	mw := BodyLimit{Max: 16}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 32)))
	mw.Middleware(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "BODY_TOO_LARGE")
}

func TestBodyLimitPassesSmallPayload(t *testing.T) {
	mw := BodyLimit{Max: 64}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	mw.Middleware(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
