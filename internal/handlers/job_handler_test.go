package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/jobs"
	"finanzas/internal/models"
)

// --- mock job runner ---

type mockJobRunner struct {
	runFn        func(ctx context.Context, name string, today time.Time) (*jobs.RunResult, error)
	runAllFn     func(ctx context.Context, today time.Time) ([]jobs.RunResult, error)
	recentRunsFn func(limit int) ([]models.JobRun, error)
}

var _ JobRunner = (*mockJobRunner)(nil)

func (m *mockJobRunner) Run(ctx context.Context, name string, today time.Time) (*jobs.RunResult, error) {
	if m.runFn != nil {
		return m.runFn(ctx, name, today)
	}
	return &jobs.RunResult{Job: name}, nil
}

func (m *mockJobRunner) RunAll(ctx context.Context, today time.Time) ([]jobs.RunResult, error) {
	if m.runAllFn != nil {
		return m.runAllFn(ctx, today)
	}
	return nil, nil
}

func (m *mockJobRunner) RecentRuns(limit int) ([]models.JobRun, error) {
	if m.recentRunsFn != nil {
		return m.recentRunsFn(limit)
	}
	return []models.JobRun{}, nil
}

func setupJobRouter(handler *JobHandler) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/jobs", handler.RunAllJobs)
	r.GET("/pipeline/jobs/runs", handler.GetRecentRuns)
	r.POST("/pipeline/jobs/:name", handler.RunJob)
	return r
}

func TestJobHandler_RunJob(t *testing.T) {
	t.Run("empty body runs for today", func(t *testing.T) {
		pinToday(t, dates.Date(2024, 3, 1))
		var gotName string
		var gotToday time.Time
		runner := &mockJobRunner{
			runFn: func(_ context.Context, name string, today time.Time) (*jobs.RunResult, error) {
				gotName, gotToday = name, today
				return &jobs.RunResult{Job: name, Processed: 4}, nil
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "POST", "/pipeline/jobs/recurring-expenses", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotName != "recurring-expenses" {
			t.Errorf("expected recurring-expenses, got %q", gotName)
		}
		if dates.Format(gotToday) != "2024-03-01" {
			t.Errorf("expected 2024-03-01, got %s", dates.Format(gotToday))
		}
		result := parseJSON(t, rec)["result"].(map[string]interface{})
		if result["processed"] != float64(4) {
			t.Errorf("expected processed 4, got %v", result["processed"])
		}
	})

	t.Run("body overrides the run date", func(t *testing.T) {
		var gotToday time.Time
		runner := &mockJobRunner{
			runFn: func(_ context.Context, name string, today time.Time) (*jobs.RunResult, error) {
				gotToday = today
				return &jobs.RunResult{Job: name}, nil
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "POST", "/pipeline/jobs/reminders", `{"today":"2024-12-31"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if dates.Format(gotToday) != "2024-12-31" {
			t.Errorf("expected 2024-12-31, got %s", dates.Format(gotToday))
		}
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		r := setupJobRouter(NewJobHandler(&mockJobRunner{}))

		rec := doRequest(r, "POST", "/pipeline/jobs/reminders", `{"today":"31/12/2024"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for unknown job", func(t *testing.T) {
		runner := &mockJobRunner{
			runFn: func(_ context.Context, name string, _ time.Time) (*jobs.RunResult, error) {
				return nil, apperrors.WithMessage(apperrors.ErrUnknownJob, "unknown job "+name)
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "POST", "/pipeline/jobs/backup", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNKNOWN_JOB")
	})

	t.Run("returns 409 when locked", func(t *testing.T) {
		runner := &mockJobRunner{
			runFn: func(context.Context, string, time.Time) (*jobs.RunResult, error) {
				return nil, apperrors.ErrJobLocked
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "POST", "/pipeline/jobs/budget-alerts", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "JOB_ALREADY_RUNNING")
	})

	t.Run("failed run returns 500 with its result", func(t *testing.T) {
		runner := &mockJobRunner{
			runFn: func(_ context.Context, name string, _ time.Time) (*jobs.RunResult, error) {
				return &jobs.RunResult{Job: name, Error: "database is closed"},
					apperrors.Wrap(apperrors.ErrJobRunFailure, errors.New("database is closed"))
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "POST", "/pipeline/jobs/goal-check", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		result, ok := parseJSON(t, rec)["result"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected result body, got %s", rec.Body.String())
		}
		if result["error"] != "database is closed" {
			t.Errorf("unexpected error %v", result["error"])
		}
	})
}

func TestJobHandler_RunAllJobs(t *testing.T) {
	t.Run("returns every result", func(t *testing.T) {
		runner := &mockJobRunner{
			runAllFn: func(context.Context, time.Time) ([]jobs.RunResult, error) {
				return []jobs.RunResult{{Job: "recurring-expenses"}, {Job: "reminders"}}, nil
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "POST", "/pipeline/jobs", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if results := parseJSON(t, rec)["results"].([]interface{}); len(results) != 2 {
			t.Errorf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("returns 500 when a job failed", func(t *testing.T) {
		runner := &mockJobRunner{
			runAllFn: func(context.Context, time.Time) ([]jobs.RunResult, error) {
				return []jobs.RunResult{{Job: "recurring-expenses", Error: "boom"}}, apperrors.ErrJobRunFailure
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "POST", "/pipeline/jobs", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if parseJSON(t, rec)["results"] == nil {
			t.Error("expected results in failure body")
		}
	})
}

func TestJobHandler_GetRecentRuns(t *testing.T) {
	t.Run("passes the limit", func(t *testing.T) {
		gotLimit := -1
		runner := &mockJobRunner{
			recentRunsFn: func(limit int) ([]models.JobRun, error) {
				gotLimit = limit
				return []models.JobRun{{Job: "reminders", Status: models.JobRunSucceeded}}, nil
			},
		}
		r := setupJobRouter(NewJobHandler(runner))

		rec := doRequest(r, "GET", "/pipeline/jobs/runs?limit=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotLimit != 5 {
			t.Errorf("expected limit 5, got %d", gotLimit)
		}
	})

	t.Run("returns 400 on bad limit", func(t *testing.T) {
		r := setupJobRouter(NewJobHandler(&mockJobRunner{}))

		rec := doRequest(r, "GET", "/pipeline/jobs/runs?limit=0", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
