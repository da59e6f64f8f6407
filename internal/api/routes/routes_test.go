package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/infrastructure/config"
	"github.com/stack-service/backoffice/internal/infrastructure/di"
	"github.com/stack-service/backoffice/pkg/logger"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, overrides ...func(*config.Config)) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{AllowedOrigins: []string{"*"}, RateLimitPerMin: 1000},
		Database:    config.DatabaseConfig{Driver: config.DriverMemory},
		JWT:         config.JWTConfig{Secret: "routes-test-secret", AccessTTL: 3600, Issuer: "backoffice"},
		Auth: config.AuthConfig{
			AdminEmails:       []string{"admin@example.com"},
			PasswordMinLength: 8,
			AllowSignup:       true,
		},
		Withdrawal: config.WithdrawalConfig{
			CommissionRate:         "15",
			MinimumAmount:          "100",
			CommissionAtSubmission: true,
			CommissionAtApproval:   true,
		},
		Analytics: config.AnalyticsConfig{TopCountries: 5, TopPerformers: 5},
		Email:     config.EmailConfig{Environment: "development"},
		Widgets: config.WidgetsConfig{
			Theme:  "dark",
			Locale: "en",
			Widgets: map[string]config.WidgetConfig{
				"ticker": {Script: "embed-widget-ticker-tape.js", Symbols: []string{"FX:EURUSD", "BITSTAMP:BTCUSD"}},
			},
		},
	}

	for _, override := range overrides {
		override(cfg)
	}

	container, err := di.NewContainer(context.Background(), cfg, nil, logger.NewLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	return &apiClient{t: t, router: SetupRoutes(container)}
}

func (a *apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *apiClient) signUp(email string) (token, userID string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"password": "Passw0rd123",
		"name":     strings.Split(email, "@")[0],
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(a.t, w)
	user := body["user"].(map[string]interface{})
	return body["accessToken"].(string), user["id"].(string)
}

func TestWithdrawalLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)

	adminToken, _ := api.signUp("admin@example.com")
	investorToken, investorUserID := api.signUp("alice@example.com")

	w := api.do(http.MethodGet, "/api/v1/admin/investors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/v1/admin/investors", investorToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/v1/admin/investors", adminToken, map[string]interface{}{
		"name":           "Alice",
		"email":          "alice@example.com",
		"country":        "Canada",
		"initialDeposit": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	investorID := decode(t, w)["id"].(string)

	w = api.do(http.MethodPatch, "/api/v1/admin/users/"+investorUserID+"/investor", adminToken,
		map[string]string{"investorId": investorID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/me/withdrawals", investorToken, map[string]interface{}{
		"amount": "500",
		"method": "bank",
		"bank":   map[string]string{"bankName": "Northern Trust"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submitted := decode(t, w)
	assert.EqualValues(t, 500, submitted["newBalance"])
	assert.EqualValues(t, 75, submitted["commissionAmount"])
	requestID := submitted["request"].(map[string]interface{})["id"].(string)

	w = api.do(http.MethodPost, "/api/v1/me/withdrawals", investorToken, map[string]interface{}{
		"amount": "50",
		"method": "bank",
		"bank":   map[string]string{"bankName": "Northern Trust"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BELOW_MINIMUM", decode(t, w)["code"])

	w = api.do(http.MethodPost, "/api/v1/admin/withdrawals/"+requestID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Approved", decode(t, w)["status"])

	w = api.do(http.MethodPost, "/api/v1/admin/withdrawals/"+requestID+"/reject", adminToken, map[string]string{"reason": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodGet, "/api/v1/admin/commissions/summary", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.EqualValues(t, 2, summary["count"])
	assert.EqualValues(t, 150, summary["earned"])

	w = api.do(http.MethodGet, "/api/v1/me", investorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 500, decode(t, w)["currentBalance"])

	w = api.do(http.MethodGet, "/api/v1/me/withdrawals", investorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])
}

func TestExportsAndDashboard(t *testing.T) {
	api := newAPI(t)
	adminToken, _ := api.signUp("admin@example.com")

	for _, inv := range []map[string]interface{}{
		{"name": "Bea", "country": "France", "initialDeposit": 2000},
		{"name": "Carl", "country": "France", "initialDeposit": 500},
	} {
		w := api.do(http.MethodPost, "/api/v1/admin/investors", adminToken, inv)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := api.do(http.MethodGet, "/api/v1/admin/analytics/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	totals := decode(t, w)["totals"].(map[string]interface{})
	assert.EqualValues(t, 2, totals["investorCount"])

	w = api.do(http.MethodGet, "/api/v1/admin/exports/transactions.csv", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"transactions-")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Equal(t, "id,investorId,type,amount,status,date,description", lines[0])
	assert.Len(t, lines, 3)

	w = api.do(http.MethodGet, "/api/v1/admin/exports/performance-report", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "performance-report-")
	assert.Len(t, decode(t, w)["investors"], 2)
}

func TestPublicEndpoints(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/version", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "backoffice", decode(t, w)["service"])

	w = api.do(http.MethodGet, "/api/v1/widgets/ticker", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	widget := decode(t, w)
	assert.Equal(t, "dark", widget["colorTheme"])
	assert.Len(t, widget["symbols"], 2)

	w = api.do(http.MethodGet, "/api/v1/widgets/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimits_GlobalByIPAndPerUserAfterAuth(t *testing.T) {
	api := newAPI(t, func(cfg *config.Config) {
		cfg.Server.UserRateLimitPerMin = 2
	})
	aliceToken, _ := api.signUp("alice@example.com")
	bobToken, _ := api.signUp("bob@example.com")

	for i := 0; i < 2; i++ {
		w := api.do(http.MethodGet, "/api/v1/auth/session", aliceToken, nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d: %s", i, w.Body.String())
	}
	w := api.do(http.MethodGet, "/api/v1/auth/session", aliceToken, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Same client IP, different user.
	w = api.do(http.MethodGet, "/api/v1/auth/session", bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimits_GlobalKeyIsClientIP(t *testing.T) {
	api := newAPI(t, func(cfg *config.Config) {
		cfg.Server.RateLimitPerMin = 2
	})

	get := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/live", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, get("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, get("10.0.0.2:1234"))
}
