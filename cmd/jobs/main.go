package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"finanzas/internal/config"
	"finanzas/internal/database"
	"finanzas/internal/dates"
	"finanzas/internal/joblock"
	"finanzas/internal/jobs"
	"finanzas/internal/logger"
	"finanzas/internal/metrics"
	"finanzas/internal/server"
)

// Exit codes.
const (
	exitOK          = 0
	exitJobFailed   = 1
	exitItemsFailed = 2
	exitUsage       = 64
)

const usage = "usage: jobs <all|list|JOB> [YYYY-MM-DD]"

func main() {
	logger.Init(os.Getenv("ENV"))

	code, err := run(os.Args[1:])
	if err != nil {
		logger.Get().Errorf("Job error: %v", err)
	}
	logger.Sync()
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) < 1 {
		return exitUsage, errors.New(usage)
	}
	name := args[0]

	cfg, err := config.Load()
	if err != nil {
		return exitJobFailed, fmt.Errorf("failed to load config: %w", err)
	}

	today := cfg.Today()
	if len(args) > 1 {
		today, err = dates.Parse(args[1])
		if err != nil {
			return exitUsage, fmt.Errorf("invalid date %q: %w", args[1], err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return exitJobFailed, fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	locker, err := joblock.New(ctx, cfg.RedisURL)
	if err != nil {
		return exitJobFailed, fmt.Errorf("failed to create job locker: %w", err)
	}

	app := server.NewApp(dbManager.DB(), metrics.NewDefault(), locker, server.Options{
		Jobs: jobs.Options{
			LockTTL:              cfg.JobLockTTL,
			ReminderDaysAhead:    cfg.ReminderDaysAhead,
			BudgetWarningPercent: cfg.BudgetWarningPercent,
		},
	})

	var results []jobs.RunResult
	switch name {
	case "list":
		fmt.Println(strings.Join(app.Runner.Names(), "\n"))
		return exitOK, nil
	case "all":
		results, err = app.Runner.RunAll(ctx, today)
	default:
		var res *jobs.RunResult
		res, err = app.Runner.Run(ctx, name, today)
		if res != nil {
			results = append(results, *res)
		}
	}

	return report(results, err, today)
}

// report logs one line per job and maps the outcome to an exit code.
func report(results []jobs.RunResult, runErr error, today time.Time) (int, error) {
	log := logger.Get()
	failedItems := 0
	for _, res := range results {
		log.Infow("job finished",
			"job", res.Job,
			"date", dates.Format(today),
			"processed", res.Processed,
			"failed", res.Failed,
			"duration", res.Duration,
			"error", res.Error,
		)
		for _, itemErr := range res.Errors {
			log.Warnw("job item failed", "job", res.Job, "item", itemErr.ItemID, "error", itemErr.Error)
		}
		failedItems += res.Failed
	}

	if runErr != nil {
		return exitJobFailed, runErr
	}
	if failedItems > 0 {
		return exitItemsFailed, fmt.Errorf("%d item(s) failed", failedItems)
	}
	return exitOK, nil
}
