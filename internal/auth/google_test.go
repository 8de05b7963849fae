package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-backend/internal/shared/auth"
	"internship-backend/internal/users"
)

func newTestService(t *testing.T) (*GoogleService, *auth.Signer, *users.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer, err := auth.NewSigner("test-secret", time.Hour, false)
	require.NoError(t, err)
	repo := users.NewMemoryRepo()
	svc := NewGoogleService("client", "secret", "http://api.local/api/v1/auth/google/callback", "http://ui.local/login", signer, users.NewService(repo))
	svc.fetchIdentity = func(context.Context, string) (users.ExternalIdentity, error) {
		return users.ExternalIdentity{Email: "new@student.edu", FirstName: "Ada", LastName: "L"}, nil
	}
	return svc, signer, repo
}

func newRouter(svc *GoogleService) *gin.Engine {
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestStartCarriesInstitutionInSignedState(t *testing.T) {
	svc, signer, _ := newTestService(t)
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start?institutionId=42", nil))

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	claims, err := signer.VerifyState(loc.Query().Get("state"))
	require.NoError(t, err)
	require.NotNil(t, claims.InstitutionID)
	assert.Equal(t, int64(42), *claims.InstitutionID)
}

func TestCallbackRegistersStudentAndRedirectsWithToken(t *testing.T) {
	svc, signer, repo := newTestService(t)
	inst := int64(42)
	state, err := signer.SignState(&inst, "nonce", time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=abc&state="+url.QueryEscape(state), nil))
	require.Equal(t, http.StatusFound, w.Code)

	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "http://ui.local/login#token="), loc)
	claims, err := signer.VerifySession(strings.TrimPrefix(loc, "http://ui.local/login#token="))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleStudent, claims.Role)

	profile, err := repo.GetStudentProfile(context.Background(), claims.Subject)
	require.NoError(t, err)
	require.NotNil(t, profile.InstitutionID)
	assert.Equal(t, inst, *profile.InstitutionID)
	assert.Equal(t, users.InitialInternshipStatus, profile.InternshipStatus)
}

func TestCallbackRejectsForgedState(t *testing.T) {
	svc, _, _ := newTestService(t)
	other, err := auth.NewSigner("other-secret", time.Hour, false)
	require.NoError(t, err)
	state, err := other.SignState(nil, "nonce", time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=abc&state="+url.QueryEscape(state), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartRequiresConfiguration(t *testing.T) {
	signer, err := auth.NewSigner("s", time.Hour, true)
	require.NoError(t, err)
	svc := NewGoogleService("", "", "", "", signer, users.NewService(users.NewMemoryRepo()))
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
