package services

import (
	"io"
	"time"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/recurrence"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdateProfile(userID, firstName, lastName, defaultCurrency string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	DeleteAccount(userID, password string) error
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, description, currency string, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, includeArchived bool, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, name, description, color, icon *string) (*models.Account, error)
	SetArchived(userID, accountID string, archived bool) (*models.Account, error)
	TotalBalance(userID string) (int64, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, icon, color string, parentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
	SeedDefaults() (int, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	TripID     *string
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionInput carries the fields of an income or expense. Amount is the
// positive magnitude; the stored amount is signed by Type.
type TransactionInput struct {
	AccountID   string
	CategoryID  *string
	Type        models.TransactionType
	Amount      int64
	Description string
	Notes       string
	Date        time.Time
	TripID      *string
}

// TransactionUpdate holds optional changes to an income or expense.
type TransactionUpdate struct {
	AccountID   *string
	CategoryID  *string
	Type        *models.TransactionType
	Amount      *int64
	Description *string
	Notes       *string
	Date        *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	CreateTransfer(userID, fromAccountID, toAccountID string, amount int64, description string, date time.Time) (*models.Transfer, error)
	GetTransfer(userID, transferID string) (*models.Transfer, error)
	UpdateTransfer(userID, transferID string, amount *int64, description *string, date *time.Time) (*models.Transfer, error)
	DeleteTransfer(userID, transferID string) error
	MonthTotals(userID string, month time.Time) (income, expense int64, err error)
}

// BudgetProgress contains spending vs budget data for one budget month.
type BudgetProgress struct {
	BudgetID    string    `json:"budget_id"`
	UserID      string    `json:"-"`
	CategoryID  string    `json:"category_id"`
	PeriodStart time.Time `json:"period_start"`
	Budgeted    int64     `json:"budgeted"`
	Carryover   int64     `json:"carryover"`
	Available   int64     `json:"available"`
	Spent       int64     `json:"spent"`
	Remaining   int64     `json:"remaining"`
	Percentage  float64   `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, categoryID string, amount int64, month time.Time, rollover bool) (*models.Budget, error)
	GetUserBudgets(userID string, month *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, amount *int64, rollover *bool) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
	GetMonthProgress(userID string, month time.Time) ([]BudgetProgress, error)
	Progress(budget *models.Budget) (*BudgetProgress, error)
	CopyFromPreviousMonth(userID string, month time.Time) ([]models.Budget, error)
}

// FixedExpenseInput carries the editable fields of a fixed expense.
type FixedExpenseInput struct {
	AccountID   string
	CategoryID  *string
	Description string
	Amount      int64
	Frequency   recurrence.Frequency
	NextDueDate time.Time
	DayOfMonth  *int
	Notify      bool
}

// FixedExpenseServicer defines the contract for scheduled fixed expenses.
type FixedExpenseServicer interface {
	CreateFixedExpense(userID string, in FixedExpenseInput) (*models.FixedExpense, error)
	GetUserFixedExpenses(userID string, activeOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.FixedExpense], error)
	GetFixedExpenseByID(userID, fixedExpenseID string) (*models.FixedExpense, error)
	UpdateFixedExpense(userID, fixedExpenseID string, in FixedExpenseInput) (*models.FixedExpense, error)
	DeleteFixedExpense(userID, fixedExpenseID string) error
	SetActive(userID, fixedExpenseID string, active bool, today time.Time) (*models.FixedExpense, error)
	Preview(userID, fixedExpenseID string, n int) ([]time.Time, error)
	PostNow(userID, fixedExpenseID string, today time.Time) (*models.Transaction, error)
	Upcoming(userID string, from, to time.Time) ([]models.FixedExpense, error)
	ListDue(today time.Time) ([]models.FixedExpense, error)
	PostDue(schedule *models.FixedExpense, today time.Time) ([]models.Transaction, error)
}

// TripInput carries the editable fields of a trip.
type TripInput struct {
	Name        string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Budget      int64
	Currency    string
	Status      *models.TripStatus
}

// TripExpenseInput carries a new trip expense.
type TripExpenseInput struct {
	AccountID   string
	CategoryID  *string
	Amount      int64
	Description string
	Date        time.Time
}

// TripSummary aggregates spending and savings progress for a trip.
type TripSummary struct {
	TripID          string  `json:"trip_id"`
	Budget          int64   `json:"budget"`
	Spent           int64   `json:"spent"`
	Remaining       int64   `json:"remaining"`
	Saved           int64   `json:"saved"`
	ToSave          int64   `json:"to_save"`
	PercentSaved    float64 `json:"percent_saved"`
	MonthsLeft      int     `json:"months_left"`
	WeeksLeft       int     `json:"weeks_left"`
	MonthlySavings  int64   `json:"monthly_savings"`
	WeeklySavings   int64   `json:"weekly_savings"`
	DaysUntilStart  int     `json:"days_until_start"`
	ExpensesCounted int     `json:"expenses_counted"`
}

// TripServicer defines the contract for trips and their expenses.
type TripServicer interface {
	CreateTrip(userID string, in TripInput, today time.Time) (*models.Trip, error)
	GetUserTrips(userID string, includeArchived bool, page pagination.PageRequest) (*pagination.PageResponse[models.Trip], error)
	GetTripByID(userID, tripID string) (*models.Trip, error)
	UpdateTrip(userID, tripID string, in TripInput) (*models.Trip, error)
	DeleteTrip(userID, tripID string) error
	SetArchived(userID, tripID string, archived bool) (*models.Trip, error)
	AddSavings(userID, tripID string, amount int64) (*models.Trip, error)
	GetSummary(userID, tripID string, today time.Time) (*TripSummary, error)
	AddExpense(userID, tripID string, in TripExpenseInput) (*models.TripExpense, error)
	GetExpenses(userID, tripID string, page pagination.PageRequest) (*pagination.PageResponse[models.TripExpense], error)
	DeleteExpense(userID, tripID, expenseID string) error
}

// DebtInput carries the fields of a debt or loan.
type DebtInput struct {
	Kind          models.DebtKind
	Counterparty  string
	Description   string
	InitialAmount int64
	Currency      string
	DueDate       *time.Time
	Reminder      bool
}

// DebtServicer defines the contract for debts owed by and to the user.
type DebtServicer interface {
	CreateDebt(userID string, in DebtInput) (*models.Debt, error)
	GetUserDebts(userID string, kind *models.DebtKind, status *models.DebtStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Debt], error)
	GetDebtByID(userID, debtID string) (*models.Debt, error)
	UpdateDebt(userID, debtID string, counterparty, description *string, dueDate *time.Time, reminder *bool) (*models.Debt, error)
	DeleteDebt(userID, debtID string) error
	RegisterPayment(userID, debtID string, amount int64, date time.Time, accountID *string, notes string) (*models.DebtPayment, error)
}

// GoalServicer defines the contract for savings goals.
type GoalServicer interface {
	CreateGoal(userID, name string, targetAmount int64, targetDate *time.Time) (*models.Goal, error)
	GetUserGoals(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(userID, goalID string) (*models.Goal, error)
	UpdateGoal(userID, goalID string, name *string, targetAmount *int64, targetDate *time.Time) (*models.Goal, error)
	DeleteGoal(userID, goalID string) error
	Contribute(userID, goalID string, amount int64) (*models.Goal, error)
}

// NotificationServicer defines the contract for the in-app notification mailbox.
type NotificationServicer interface {
	GetUserNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	UnreadCount(userID string) (int64, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID string) (int64, error)
	DeleteNotification(userID, notificationID string) error
	CreateOnce(n *models.Notification) (bool, error)
}

// ExportServicer writes a user's data in portable formats.
type ExportServicer interface {
	ExportTransactionsCSV(userID string, from, to *time.Time, w io.Writer) (int, error)
}

// DashboardSummary is the landing page overview for a user.
type DashboardSummary struct {
	TotalBalance  int64                 `json:"total_balance"`
	MonthIncome   int64                 `json:"month_income"`
	MonthExpense  int64                 `json:"month_expense"`
	UnreadCount   int64                 `json:"unread_notifications"`
	UpcomingFixed []models.FixedExpense `json:"upcoming_fixed_expenses"`
	Budgets       []BudgetProgress      `json:"budgets"`
}

// DashboardServicer assembles the dashboard overview.
type DashboardServicer interface {
	GetSummary(userID string, today time.Time) (*DashboardSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
