package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-gateway/internal/api/http"
	"github.com/spec-kit/storefront-gateway/internal/api/http/handlers"
	"github.com/spec-kit/storefront-gateway/internal/backend"
	"github.com/spec-kit/storefront-gateway/internal/events"
	"github.com/spec-kit/storefront-gateway/internal/observability"
	"github.com/spec-kit/storefront-gateway/internal/service"
	"github.com/spec-kit/storefront-gateway/internal/session"
)

// fakeBackend is an httptest stand-in for the marketplace backend API.
type fakeBackend struct {
	server         *httptest.Server
	loginRole      int
	authorityCalls int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{loginRole: 4} // retailer by default
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":          "access-token",
			"refreshToken":         "refresh-token",
			"accessTokenExpiresAt": 3600,
			"user": map[string]any{
				"id":                 "account-1",
				"role":               fb.loginRole,
				"subscriptionStatus": "active",
				"subscriptionExpiresAt": time.Now().
					Add(30 * 24 * time.Hour).Format(time.RFC3339),
			},
		})
	})
	mux.HandleFunc("/subscriptions/from-authority", func(w http.ResponseWriter, _ *http.Request) {
		fb.authorityCalls++
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"subscriptionId": "sub-1"})
	})
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

type stubCache struct{}

func (stubCache) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (stubCache) Set(context.Context, string, []byte, time.Duration) {}

func newGatewayApp(t *testing.T, backendURL string) *fiber.App {
	t.Helper()

	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()
	api := backend.NewClient(backendURL, time.Second)
	codec := session.NewCodec("router-test-secret", time.Hour)
	cookies := session.NewCookieAdapter(false, time.Hour)

	authService := service.NewAuthService(api, codec, dispatcher, logger)
	refreshService := service.NewRefreshService(api, codec, dispatcher, logger)
	impersonationService := service.NewImpersonationService(api, codec, dispatcher, logger, time.Hour)
	paymentService := service.NewPaymentService(api, dispatcher, logger)
	catalogService := service.NewCatalogService(api, stubCache{}, time.Minute, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler("test", "dev", nil),
		Session:           handlers.NewSessionHandler(authService, refreshService, cookies),
		Impersonation:     handlers.NewImpersonationHandler(impersonationService, cookies),
		Payment:           handlers.NewPaymentHandler(paymentService),
		Catalog:           handlers.NewCatalogHandler(catalogService),
		SessionMiddleware: session.NewMiddleware(codec, cookies, refreshService, logger),
	})
	return app
}

func login(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": "a@example.com", "password": "pw"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "storefront_session" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("login response carries no session cookie")
	return nil
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	fb := newFakeBackend(t)
	app := newGatewayApp(t, fb.server.URL)

	cookie := login(t, app)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		OK      bool `json:"ok"`
		Session struct {
			SubjectID string `json:"subjectId"`
			Role      string `json:"role"`
		} `json:"session"`
	}
	data, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.True(t, payload.OK)
	assert.Equal(t, "account-1", payload.Session.SubjectID)
	assert.Equal(t, "retailer", payload.Session.Role)
}

func TestImpersonationForbiddenForNonAdmin(t *testing.T) {
	fb := newFakeBackend(t)
	app := newGatewayApp(t, fb.server.URL)

	cookie := login(t, app)

	body, _ := json.Marshal(map[string]string{"userId": "someone"})
	req := httptest.NewRequest(http.MethodPost, "/auth/impersonate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var payload struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.False(t, payload.OK)
	assert.Equal(t, "FORBIDDEN", payload.Error)
}

func TestImpersonationRequiresTargetUserID(t *testing.T) {
	fb := newFakeBackend(t)
	fb.loginRole = 2 // super admin
	app := newGatewayApp(t, fb.server.URL)

	cookie := login(t, app)

	req := httptest.NewRequest(http.MethodPost, "/auth/impersonate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentCallbackWithNOKStatusNeverHitsBackend(t *testing.T) {
	fb := newFakeBackend(t)
	app := newGatewayApp(t, fb.server.URL)

	cookie := login(t, app)

	req := httptest.NewRequest(http.MethodGet, "/payment/callback?Status=NOK&Authority=abc", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/payment/failure")
	assert.Zero(t, fb.authorityCalls)
}

func TestPaymentCallbackSuccessRedirects(t *testing.T) {
	fb := newFakeBackend(t)
	app := newGatewayApp(t, fb.server.URL)

	cookie := login(t, app)

	req := httptest.NewRequest(http.MethodGet, "/payment/callback?Status=OK&Authority=auth-1", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/payment/success")
	assert.Equal(t, 1, fb.authorityCalls)
}
