package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"finanzas/internal/config"
	"finanzas/internal/database"
	"finanzas/internal/joblock"
	"finanzas/internal/jobs"
	"finanzas/internal/logger"
	"finanzas/internal/metrics"
	"finanzas/internal/server"
	"finanzas/internal/validator"

	_ "finanzas/internal/docs" // Import swagger docs
)

// @title           Finanzas API
// @version         1.0
// @description     Personal finance API: accounts, categorized transactions, monthly budgets, fixed expenses, trips, debts, goals and in-app notifications.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey PipelineKey
// @in header
// @name X-API-Key

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	locker, err := joblock.New(context.Background(), appConfig.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create job locker: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry, registry)

	app := server.NewApp(dbManager.DB(), m, locker, server.Options{
		PipelineAPIKey: appConfig.PipelineAPIKey,
		Swagger:        appConfig.Env != "production",
		Jobs: jobs.Options{
			LockTTL:              appConfig.JobLockTTL,
			ReminderDaysAhead:    appConfig.ReminderDaysAhead,
			BudgetWarningPercent: appConfig.BudgetWarningPercent,
		},
	})

	seeded, err := app.Categories.SeedDefaults()
	if err != nil {
		return fmt.Errorf("failed to seed default categories: %w", err)
	}
	if seeded > 0 {
		log.Infof("Seeded %d default categories", seeded)
	}

	if appConfig.PipelineAPIKey == "" {
		log.Warn("PIPELINE_API_KEY is not set; job endpoints will answer 503")
	}

	router := app.Router()

	log.Infof("Starting Finanzas backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
