package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finanzas/internal/dates"
	"finanzas/internal/models"
	"finanzas/internal/recurrence"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:           email,
		Password:        string(hash),
		DefaultCurrency: "EUR",
		IsActive:        true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a bank account with zero initial balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, 0)
}

// CreateTestAccountWithBalance creates a bank account with the given initial balance (in cents).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, initialBalance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Type:           models.AccountTypeBank,
		InitialBalance: initialBalance,
		Currency:       "EUR",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a user category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: &userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestDefaultCategory creates a shared default category.
func CreateTestDefaultCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		IsDefault: true,
		Name:      fmt.Sprintf("Default Category %d", nextID()),
		Type:      categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create default category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction with a signed amount (in cents) dated date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, categoryID *string, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        txType,
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        dates.Truncate(date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget of amount for the category in month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string, amount int64, month time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      amount,
		PeriodStart: dates.MonthStart(month),
		PeriodEnd:   dates.MonthEnd(month),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestFixedExpense creates an active schedule due on nextDue.
func CreateTestFixedExpense(t *testing.T, db *gorm.DB, userID, accountID string, freq recurrence.Frequency, amount int64, nextDue time.Time, dayOfMonth *int) *models.FixedExpense {
	t.Helper()

	fe := &models.FixedExpense{
		UserID:      userID,
		AccountID:   accountID,
		Description: fmt.Sprintf("Test Fixed Expense %d", nextID()),
		Amount:      amount,
		Frequency:   freq,
		NextDueDate: dates.Truncate(nextDue),
		DayOfMonth:  dayOfMonth,
		IsActive:    true,
	}
	if err := db.Create(fe).Error; err != nil {
		t.Fatalf("failed to create test fixed expense: %v", err)
	}
	return fe
}

// CreateTestTrip creates a trip spanning start..end with the given budget.
func CreateTestTrip(t *testing.T, db *gorm.DB, userID string, start, end time.Time, budget int64) *models.Trip {
	t.Helper()

	trip := &models.Trip{
		UserID:    userID,
		Name:      fmt.Sprintf("Test Trip %d", nextID()),
		StartDate: dates.Truncate(start),
		EndDate:   dates.Truncate(end),
		Budget:    budget,
		Currency:  "EUR",
		Status:    models.TripStatusPlanned,
	}
	if err := db.Create(trip).Error; err != nil {
		t.Fatalf("failed to create test trip: %v", err)
	}
	return trip
}

// CreateTestDebt creates a pending debt or loan of amount.
func CreateTestDebt(t *testing.T, db *gorm.DB, userID string, kind models.DebtKind, amount int64, dueDate *time.Time) *models.Debt {
	t.Helper()

	debt := &models.Debt{
		UserID:         userID,
		Kind:           kind,
		Counterparty:   fmt.Sprintf("Counterparty %d", nextID()),
		InitialAmount:  amount,
		CurrentBalance: amount,
		Currency:       "EUR",
		Status:         models.DebtStatusPending,
		DueDate:        dueDate,
	}
	if err := db.Create(debt).Error; err != nil {
		t.Fatalf("failed to create test debt: %v", err)
	}
	return debt
}

// CreateTestGoal creates a goal with the given target and current amounts.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID string, target, current int64) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:  target,
		CurrentAmount: current,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }
