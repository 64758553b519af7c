// Package server wires services, handlers and the job runner into a gin router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"finanzas/internal/handlers"
	"finanzas/internal/joblock"
	"finanzas/internal/jobs"
	"finanzas/internal/metrics"
	"finanzas/internal/middleware"
	"finanzas/internal/services"
)

// Options configures the assembled application.
type Options struct {
	// PipelineAPIKey protects the job routes. When empty they answer 503.
	PipelineAPIKey string
	Jobs           jobs.Options
	Swagger        bool
}

// App holds the services shared by the HTTP API and the job runner.
type App struct {
	DB         *gorm.DB
	Metrics    *metrics.Metrics
	Runner     *jobs.Runner
	Categories services.CategoryServicer

	opts Options

	users         services.UserServicer
	accounts      services.AccountServicer
	transactions  services.TransactionServicer
	budgets       services.BudgetServicer
	fixedExpenses services.FixedExpenseServicer
	trips         services.TripServicer
	debts         services.DebtServicer
	goals         services.GoalServicer
	notifications services.NotificationServicer
	exports       services.ExportServicer
	dashboard     services.DashboardServicer
	audit         services.AuditServicer
}

// NewApp builds every service over db. m may be nil.
func NewApp(db *gorm.DB, m *metrics.Metrics, locker joblock.Locker, opts Options) *App {
	a := &App{
		DB:         db,
		Metrics:    m,
		Categories: services.NewCategoryService(db),
		opts:       opts,

		users:         services.NewUserService(db),
		accounts:      services.NewAccountService(db),
		transactions:  services.NewTransactionService(db),
		budgets:       services.NewBudgetService(db),
		fixedExpenses: services.NewFixedExpenseService(db, m),
		trips:         services.NewTripService(db),
		debts:         services.NewDebtService(db),
		goals:         services.NewGoalService(db),
		notifications: services.NewNotificationService(db),
		exports:       services.NewExportService(db),
		audit:         services.NewAuditService(db),
	}
	a.dashboard = services.NewDashboardService(a.accounts, a.transactions, a.budgets, a.fixedExpenses, a.notifications)
	a.Runner = jobs.NewRunner(db, a.fixedExpenses, a.budgets, a.notifications, locker, m, opts.Jobs)
	return a
}

// Router returns the HTTP API.
func (a *App) Router() *gin.Engine {
	authHandler := handlers.NewAuthHandler(a.users, a.audit)
	accountHandler := handlers.NewAccountHandler(a.accounts, a.transactions, a.audit)
	categoryHandler := handlers.NewCategoryHandler(a.Categories, a.audit)
	transactionHandler := handlers.NewTransactionHandler(a.transactions, a.audit)
	budgetHandler := handlers.NewBudgetHandler(a.budgets, a.audit)
	fixedExpenseHandler := handlers.NewFixedExpenseHandler(a.fixedExpenses, a.audit)
	tripHandler := handlers.NewTripHandler(a.trips, a.audit)
	debtHandler := handlers.NewDebtHandler(a.debts, a.audit)
	goalHandler := handlers.NewGoalHandler(a.goals)
	notificationHandler := handlers.NewNotificationHandler(a.notifications)
	dashboardHandler := handlers.NewDashboardHandler(a.dashboard, a.exports, a.audit)
	jobHandler := handlers.NewJobHandler(a.Runner)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(a.Metrics))
	router.Use(middleware.ErrorHandler())
	router.Use(cors)

	if a.opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	router.GET("/metrics", a.Metrics.Handler())
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(a.opts.PipelineAPIKey))
	pipeline.POST("/jobs", jobHandler.RunAllJobs)
	pipeline.GET("/jobs/runs", jobHandler.GetRecentRuns)
	pipeline.POST("/jobs/:name", jobHandler.RunJob)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.DELETE("/profile", authHandler.DeleteProfile)

	protected.GET("/dashboard", dashboardHandler.GetDashboard)
	protected.GET("/export/transactions.csv", dashboardHandler.ExportTransactions)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.POST("/:id/archive", accountHandler.ArchiveAccount)
	accounts.POST("/:id/unarchive", accountHandler.UnarchiveAccount)
	accounts.GET("/:id/transactions", accountHandler.GetAccountTransactions)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	transfers := protected.Group("/transfers")
	transfers.POST("", transactionHandler.CreateTransfer)
	transfers.GET("/:id", transactionHandler.GetTransfer)
	transfers.PUT("/:id", transactionHandler.UpdateTransfer)
	transfers.DELETE("/:id", transactionHandler.DeleteTransfer)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetUserBudgets)
	budgets.GET("/progress", budgetHandler.GetMonthProgress)
	budgets.POST("/copy", budgetHandler.CopyFromPreviousMonth)
	budgets.GET("/:id", budgetHandler.GetBudgetByID)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	fixedExpenses := protected.Group("/fixed-expenses")
	fixedExpenses.POST("", fixedExpenseHandler.CreateFixedExpense)
	fixedExpenses.GET("", fixedExpenseHandler.GetUserFixedExpenses)
	fixedExpenses.GET("/:id", fixedExpenseHandler.GetFixedExpenseByID)
	fixedExpenses.PUT("/:id", fixedExpenseHandler.UpdateFixedExpense)
	fixedExpenses.DELETE("/:id", fixedExpenseHandler.DeleteFixedExpense)
	fixedExpenses.POST("/:id/pause", fixedExpenseHandler.PauseFixedExpense)
	fixedExpenses.POST("/:id/resume", fixedExpenseHandler.ResumeFixedExpense)
	fixedExpenses.GET("/:id/preview", fixedExpenseHandler.PreviewFixedExpense)
	fixedExpenses.POST("/:id/post", fixedExpenseHandler.PostFixedExpense)

	trips := protected.Group("/trips")
	trips.POST("", tripHandler.CreateTrip)
	trips.GET("", tripHandler.GetUserTrips)
	trips.GET("/:id", tripHandler.GetTripByID)
	trips.PUT("/:id", tripHandler.UpdateTrip)
	trips.DELETE("/:id", tripHandler.DeleteTrip)
	trips.POST("/:id/archive", tripHandler.ArchiveTrip)
	trips.POST("/:id/unarchive", tripHandler.UnarchiveTrip)
	trips.POST("/:id/savings", tripHandler.AddSavings)
	trips.GET("/:id/summary", tripHandler.GetSummary)
	trips.POST("/:id/expenses", tripHandler.AddExpense)
	trips.GET("/:id/expenses", tripHandler.GetExpenses)
	trips.DELETE("/:id/expenses/:expenseId", tripHandler.DeleteExpense)

	debts := protected.Group("/debts")
	debts.POST("", debtHandler.CreateDebt)
	debts.GET("", debtHandler.GetUserDebts)
	debts.GET("/:id", debtHandler.GetDebtByID)
	debts.PUT("/:id", debtHandler.UpdateDebt)
	debts.DELETE("/:id", debtHandler.DeleteDebt)
	debts.POST("/:id/payments", debtHandler.RegisterPayment)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetUserGoals)
	goals.GET("/:id", goalHandler.GetGoalByID)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/contribute", goalHandler.Contribute)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("/:id", notificationHandler.DeleteNotification)

	return router
}

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}
