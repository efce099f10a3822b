package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cdmworks/golden-keys-api/internal/service"
)

func newAuthHandlerTest(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthHandler(service.NewAuthService(nil, nil, service.AuthConfig{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(hash),
		Secret:            "handler-test-secret",
		TokenExpiry:       time.Hour,
	}))
}

func TestAuthHandlerLogin(t *testing.T) {
	handler := newAuthHandlerTest(t)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewReader([]byte(`{"email":"admin@example.com","password":"s3cret"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access_token")
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	handler := newAuthHandlerTest(t)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewReader([]byte(`{"email":"admin@example.com","password":"wrong"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	handler := newAuthHandlerTest(t)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoadmapHandlerDRRAnalysis(t *testing.T) {
	handler := NewRoadmapHandler()

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/drr-analysis", nil)

	handler.DRRAnalysis(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coming_soon")
	assert.Contains(t, w.Body.String(), "DRR Analysis")
}
