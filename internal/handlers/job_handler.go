package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/jobs"
	"finanzas/internal/models"
)

// JobRunner runs scheduled jobs on demand.
type JobRunner interface {
	Run(ctx context.Context, name string, today time.Time) (*jobs.RunResult, error)
	RunAll(ctx context.Context, today time.Time) ([]jobs.RunResult, error)
	RecentRuns(limit int) ([]models.JobRun, error)
}

// JobHandler exposes the scheduled jobs to an external scheduler. Routes are
// protected by the pipeline API key, not by user tokens.
type JobHandler struct {
	runner JobRunner
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(runner JobRunner) *JobHandler {
	return &JobHandler{runner: runner}
}

// RunJobRequest optionally pins the date a job runs for.
type RunJobRequest struct {
	Today string `json:"today" binding:"omitempty,date"`
}

func (h *JobHandler) runDate(c *gin.Context) (time.Time, error) {
	var req RunJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return time.Time{}, invalidInput(err)
	}
	if req.Today == "" {
		return today(), nil
	}
	return parseDate("today", req.Today)
}

// RunJob runs a single job.
// @Summary     Run a job
// @Description Runs one of recurring-expenses, budget-alerts, goal-check, reminders, trip-status. A failed run still returns its result.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string        true  "Pipeline API key"
// @Param       name      path   string        true  "Job name"
// @Param       request   body   RunJobRequest false "Run date override"
// @Success     200 {object} jobs.RunResult
// @Failure     404 {object} ErrorResponse "Unknown job"
// @Failure     409 {object} ErrorResponse "Job already running"
// @Failure     500 {object} jobs.RunResult "Job failed"
// @Router      /pipeline/jobs/{name} [post]
func (h *JobHandler) RunJob(c *gin.Context) {
	date, err := h.runDate(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.runner.Run(c.Request.Context(), c.Param("name"), date)
	if err != nil {
		if result != nil && errors.Is(err, apperrors.ErrJobRunFailure) {
			c.JSON(http.StatusInternalServerError, gin.H{"result": result})
			return
		}
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RunAllJobs runs every job, fixed expenses first.
// @Summary     Run all jobs
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string        true  "Pipeline API key"
// @Param       request   body   RunJobRequest false "Run date override"
// @Success     200 {object} map[string][]jobs.RunResult
// @Failure     500 {object} map[string][]jobs.RunResult "At least one job failed"
// @Router      /pipeline/jobs [post]
func (h *JobHandler) RunAllJobs(c *gin.Context) {
	date, err := h.runDate(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	results, err := h.runner.RunAll(c.Request.Context(), date)
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"results": results})
}

// GetRecentRuns lists the latest job runs.
// @Summary     Recent job runs
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header string true  "Pipeline API key"
// @Param       limit     query  int    false "Number of runs (default 20, max 100)"
// @Success     200 {object} map[string][]models.JobRun
// @Router      /pipeline/jobs/runs [get]
func (h *JobHandler) GetRecentRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid limit"))
			return
		}
		limit = n
	}

	runs, err := h.runner.RecentRuns(limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
