package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

func loginForToken(t *testing.T, svc *Service) (string, string) {
	t.Helper()
	ctx := context.Background()
	user, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)
	return result.AccessToken, user.ID.String()
}

func identityEcho(gotID *string, gotRoles *[]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := common.UserID(r.Context()); ok {
			*gotID = id
		}
		*gotRoles = common.Roles(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	token, userID := loginForToken(t, svc)
	mw := &Middleware{Service: svc}

	var gotID string
	var gotRoles []string
	handler := mw.Authenticate(identityEcho(&gotID, &gotRoles))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, []string{"user"}, gotRoles)
}

func TestAuthenticatePassesAnonymousThrough(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	mw := &Middleware{Service: svc}

	var gotID string
	var gotRoles []string
	handler := mw.Authenticate(identityEcho(&gotID, &gotRoles))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gotID)
	assert.Nil(t, gotRoles)
}

func TestAuthenticateIgnoresGarbageToken(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	mw := &Middleware{Service: svc}

	var gotID string
	var gotRoles []string
	handler := mw.Authenticate(identityEcho(&gotID, &gotRoles))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gotID)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	mw := &Middleware{Service: svc}

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
