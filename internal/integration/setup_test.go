// Package integration runs end-to-end flows against the full router backed by
// an isolated in-memory SQLite database per test.
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"finanzas/internal/joblock"
	"finanzas/internal/jobs"
	"finanzas/internal/logger"
	"finanzas/internal/metrics"
	"finanzas/internal/server"
	"finanzas/internal/testutil"
	"finanzas/internal/validator"
)

const pipelineKey = "test-pipeline-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	registry := prometheus.NewRegistry()
	app := server.NewApp(db, metrics.New(registry, registry), joblock.NewLocalLocker(), server.Options{
		PipelineAPIKey: pipelineKey,
		Jobs:           jobs.Options{Concurrency: 1, ReminderDaysAhead: 3},
	})
	if _, err := app.Categories.SeedDefaults(); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	return &testApp{DB: db, Router: app.Router()}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// runJob triggers a job through the pipeline endpoint for the given date.
func (app *testApp) runJob(t *testing.T, name, today string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/pipeline/jobs/"+name, strings.NewReader(fmt.Sprintf(`{"today":%q}`, today)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", pipelineKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("job %s failed: %d %s", name, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["result"].(map[string]interface{})
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// mustStatus fails the test when rec does not carry the expected status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]interface{} {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 || !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		return nil
	}
	return parseJSON(t, rec)
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	result := mustStatus(t, app.request("POST", "/api/v1/auth/register", body, ""), http.StatusCreated)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	result := mustStatus(t, app.request("POST", "/api/v1/auth/login", body, ""), http.StatusOK)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createAccount creates an account and returns its id.
func (app *testApp) createAccount(t *testing.T, token, name string, initialBalance int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":"bank","initial_balance":%d}`, name, initialBalance)
	result := mustStatus(t, app.request("POST", "/api/v1/accounts", body, token), http.StatusCreated)
	return result["account"].(map[string]interface{})["id"].(string)
}

// createCategory creates a user category and returns its id.
func (app *testApp) createCategory(t *testing.T, token, name, categoryType string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q}`, name, categoryType)
	result := mustStatus(t, app.request("POST", "/api/v1/categories", body, token), http.StatusCreated)
	return result["category"].(map[string]interface{})["id"].(string)
}

// balance returns the derived balance of an account.
func (app *testApp) balance(t *testing.T, token, accountID string) int64 {
	t.Helper()
	result := mustStatus(t, app.request("GET", "/api/v1/accounts/"+accountID, "", token), http.StatusOK)
	return int64(result["account"].(map[string]interface{})["balance"].(float64))
}
