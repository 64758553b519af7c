package testutil_test

import (
	"testing"
	"time"

	"finanzas/internal/dates"
	"finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/recurrence"
	"finanzas/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{
		"users", "accounts", "categories", "transactions", "transfers", "budgets",
		"fixed_expenses", "trips", "trip_expenses", "debts", "debt_payments",
		"goals", "notifications", "job_runs", "audit_logs",
	} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_IsolatedPerCall(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected an empty second database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 5000)
	if account.InitialBalance != 5000 {
		t.Errorf("expected initial balance 5000, got %d", account.InitialBalance)
	}

	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, &category.ID, models.TransactionTypeExpense, -1000, time.Now())
	if tx.Amount != -1000 {
		t.Errorf("expected amount -1000, got %d", tx.Amount)
	}

	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, 10000, dates.Date(2024, 2, 10))
	if dates.Format(budget.PeriodStart) != "2024-02-01" || dates.Format(budget.PeriodEnd) != "2024-02-29" {
		t.Errorf("unexpected budget period %s..%s", dates.Format(budget.PeriodStart), dates.Format(budget.PeriodEnd))
	}

	fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 5000, dates.Date(2024, 1, 31), testutil.IntPtr(31))
	if !fe.IsActive || fe.Anchor() != 31 {
		t.Errorf("expected an active schedule anchored on 31, got active=%v anchor=%d", fe.IsActive, fe.Anchor())
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
