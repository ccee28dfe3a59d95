package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kestiv/internal/auth"
	"kestiv/internal/config"
	"kestiv/internal/membership"
	"kestiv/internal/plan"
	"kestiv/internal/product"
	"kestiv/internal/staff"
	"kestiv/internal/transaction"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, name, subject, body string) error {
	return m.Called(ctx, to, name, subject, body).Error(0)
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: testSecret, RateLimitRPS: 1000, RateLimitBurst: 1000}
}

// testRouter mounts real handlers over nil services; requests that reach a
// service are not made by these tests.
func testRouter(mailer Mailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Handlers{
		Staff:        staff.NewHandler(nil),
		Plans:        plan.NewHandler(nil),
		Members:      membership.NewHandler(nil),
		Products:     product.NewHandler(nil),
		Transactions: transaction.NewHandler(nil),
		Mailer:       mailer,
	}, testConfig())
}

func bearer(t *testing.T, role string) string {
	token, err := auth.GenerateAccessToken(auth.Identity{
		StaffID: uuid.New(), BusinessID: uuid.New(), Email: "dana@example.com", Role: role,
	}, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_RegistersRoutes(t *testing.T) {
	router := testRouter(nil)

	routes := map[string]bool{}
	for _, r := range router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /auth/register", "POST /auth/login", "POST /auth/refresh", "GET /me",
		"GET /plans", "POST /plans", "PUT /plans/:id", "POST /plans/:id/deactivate",
		"POST /members", "GET /members/:id/history", "POST /members/:id/plan", "POST /members/:id/renew",
		"POST /members/:id/sessions/use", "POST /members/:id/sessions", "POST /members/:id/freeze",
		"POST /members/:id/unfreeze", "POST /members/:id/cancel", "POST /members/:id/services",
		"POST /members/:id/debt/repay",
		"GET /products", "POST /products/:id/stock",
		"GET /transactions", "GET /transactions/summary", "GET /transactions/analytics", "POST /sales",
		"GET /staff", "POST /staff",
		"GET /health", "GET /metrics", "GET /swagger/*any",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
	assert.False(t, routes["POST /system/test-email"])
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_RequiresToken(t *testing.T) {
	router := testRouter(nil)

	for _, path := range []string{"/members", "/transactions", "/me"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_OwnerOnlyRoutes(t *testing.T) {
	router := testRouter(nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/plans"},
		{http.MethodPut, "/plans/" + uuid.NewString()},
		{http.MethodPost, "/products"},
		{http.MethodPost, "/products/" + uuid.NewString() + "/stock"},
		{http.MethodPost, "/staff"},
		{http.MethodGet, "/staff"},
		{http.MethodGet, "/transactions/analytics"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(`{}`))
			req.Header.Set("Authorization", bearer(t, staff.RoleCashier))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestRouter_OwnerPassesRoleCheck(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/plans", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, staff.RoleOwner))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestEmail(t *testing.T) {
	mailer := new(MockMailer)
	router := testRouter(mailer)

	mailer.On("Send", mock.Anything, "dana@example.com", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	mailer.On("Send", mock.Anything, "fail@example.com", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	send := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/system/test-email", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, staff.RoleOwner))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(`{"email":"dana@example.com"}`))
	assert.Equal(t, http.StatusInternalServerError, send(`{"email":"fail@example.com"}`))
	assert.Equal(t, http.StatusBadRequest, send(`{"email":"nope"}`))
	mailer.AssertExpectations(t)
}
