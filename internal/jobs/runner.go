// Package jobs runs the scheduled background work: posting fixed expenses,
// budget and goal checks, reminders and trip status updates. Jobs run with
// the full database connection and work across all users.
package jobs

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/joblock"
	"finanzas/internal/logger"
	"finanzas/internal/metrics"
	"finanzas/internal/models"
	"finanzas/internal/services"
	"finanzas/internal/uuid"
)

// Job names.
const (
	RecurringExpenses = "recurring-expenses"
	BudgetAlerts      = "budget-alerts"
	GoalCheck         = "goal-check"
	Reminders         = "reminders"
	TripStatus        = "trip-status"
)

// maxRecordedErrors bounds the item errors kept on a result.
const maxRecordedErrors = 50

// ItemError is the failure of one item within a run.
type ItemError struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

// RunResult summarizes one job run. Item failures never abort a run.
type RunResult struct {
	RunID     string        `json:"run_id,omitempty"`
	Job       string        `json:"job"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Errors    []ItemError   `json:"errors,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
}

func (r *RunResult) fail(itemID string, err error) {
	r.Failed++
	if len(r.Errors) < maxRecordedErrors {
		r.Errors = append(r.Errors, ItemError{ItemID: itemID, Error: err.Error()})
	}
}

type jobFunc func(ctx context.Context, today time.Time, res *RunResult) error

// Options tunes the runner.
type Options struct {
	LockTTL              time.Duration
	ReminderDaysAhead    int
	BudgetWarningPercent int
	// Concurrency caps how many jobs RunAll runs at once.
	Concurrency int
}

// Runner executes jobs by name.
type Runner struct {
	db            *gorm.DB
	fixedExpenses services.FixedExpenseServicer
	budgets       services.BudgetServicer
	notifications services.NotificationServicer
	locker        joblock.Locker
	metrics       *metrics.Metrics
	opts          Options
	jobs          map[string]jobFunc
}

// NewRunner creates a Runner with every job registered. m may be nil.
func NewRunner(
	db *gorm.DB,
	fixedExpenses services.FixedExpenseServicer,
	budgets services.BudgetServicer,
	notifications services.NotificationServicer,
	locker joblock.Locker,
	m *metrics.Metrics,
	opts Options,
) *Runner {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.ReminderDaysAhead < 0 {
		opts.ReminderDaysAhead = 0
	}
	if opts.BudgetWarningPercent <= 0 || opts.BudgetWarningPercent > 100 {
		opts.BudgetWarningPercent = 80
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	r := &Runner{
		db:            db,
		fixedExpenses: fixedExpenses,
		budgets:       budgets,
		notifications: notifications,
		locker:        locker,
		metrics:       m,
		opts:          opts,
	}
	r.jobs = map[string]jobFunc{
		RecurringExpenses: r.postRecurringExpenses,
		BudgetAlerts:      r.checkBudgets,
		GoalCheck:         r.checkGoals,
		Reminders:         r.sendReminders,
		TripStatus:        r.advanceTrips,
	}
	return r
}

// Names lists the registered jobs in a stable order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one job for today. It returns ErrUnknownJob for an unknown
// name, ErrJobLocked when another run of the job is in progress and
// ErrJobRunFailure when the job could not complete; the result is returned
// alongside the failure.
func (r *Runner) Run(ctx context.Context, name string, today time.Time) (*RunResult, error) {
	job, ok := r.jobs[name]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrUnknownJob, "unknown job: "+name)
	}
	today = dates.Truncate(today)
	log := logger.Named("jobs").With("job", name, "run_date", dates.Format(today))

	lock, err := r.locker.Acquire(ctx, name, r.opts.LockTTL)
	if errors.Is(err, joblock.ErrLocked) {
		r.metrics.IncrementLockContention(name)
		log.Warnw("job already running, skipping")
		return nil, apperrors.ErrJobLocked
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Warnw("failed to release job lock", "error", err)
		}
	}()

	run := &models.JobRun{
		ID:        uuid.New(),
		Job:       name,
		Status:    models.JobRunRunning,
		RunDate:   today,
		StartedAt: time.Now(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	res := &RunResult{RunID: run.ID, Job: name}
	jobErr := job(ctx, today, res)
	res.Duration = time.Since(run.StartedAt)

	status := models.JobRunSucceeded
	if jobErr != nil {
		status = models.JobRunFailed
		res.Error = jobErr.Error()
	}
	finished := time.Now()
	if err := r.db.Model(&models.JobRun{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
		"status":      status,
		"finished_at": finished,
		"processed":   res.Processed,
		"failed":      res.Failed,
		"error":       summarizeErrors(jobErr, res.Errors),
	}).Error; err != nil {
		log.Errorw("failed to record job run", "run_id", run.ID, "error", err)
	}
	r.metrics.ObserveJob(name, string(status), res.Failed, res.Duration)

	if jobErr != nil {
		log.Errorw("job failed", "run_id", run.ID, "processed", res.Processed, "failed", res.Failed, "error", jobErr)
		return res, apperrors.Wrap(apperrors.ErrJobRunFailure, jobErr)
	}
	log.Infow("job finished", "run_id", run.ID, "processed", res.Processed, "failed", res.Failed, "duration", res.Duration)
	return res, nil
}

// RunAll posts due fixed expenses first, so alerts see this run's spending,
// then runs the remaining jobs concurrently. Every job runs even when
// another fails; the returned error joins the job-level failures.
func (r *Runner) RunAll(ctx context.Context, today time.Time) ([]RunResult, error) {
	var (
		mu      sync.Mutex
		results []RunResult
		errs    []error
	)
	record := func(name string, res *RunResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if res == nil {
			res = &RunResult{Job: name}
		}
		if err != nil {
			if res.Error == "" {
				res.Error = err.Error()
			}
			errs = append(errs, err)
		}
		results = append(results, *res)
	}

	res, err := r.Run(ctx, RecurringExpenses, today)
	record(RecurringExpenses, res, err)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for _, name := range r.Names() {
		if name == RecurringExpenses {
			continue
		}
		name := name
		g.Go(func() error {
			res, err := r.Run(gctx, name, today)
			record(name, res, err)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Job < results[j].Job })
	return results, errors.Join(errs...)
}

// RecentRuns lists the latest job runs, newest first.
func (r *Runner) RecentRuns(limit int) ([]models.JobRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.JobRun
	if err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return runs, nil
}

func summarizeErrors(jobErr error, items []ItemError) string {
	var parts []string
	if jobErr != nil {
		parts = append(parts, jobErr.Error())
	}
	for _, e := range items {
		parts = append(parts, e.ItemID+": "+e.Error)
	}
	return strings.Join(parts, "; ")
}

// notify writes n unless an equivalent notification exists.
func (r *Runner) notify(n *models.Notification) error {
	created, err := r.notifications.CreateOnce(n)
	if err != nil {
		return err
	}
	if created {
		r.metrics.IncrementNotification(n.Type)
	}
	return nil
}
