package services

import (
	"testing"

	"finanzas/internal/dates"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/testutil"
)

func TestCreateTrip(t *testing.T) {
	tests := []struct {
		name  string
		start int
		end   int
		want  models.TripStatus
	}{
		{"future_is_planned", 20, 25, models.TripStatusPlanned},
		{"started_today_is_in_progress", 10, 15, models.TripStatusInProgress},
		{"ends_today_is_in_progress", 1, 10, models.TripStatusInProgress},
		{"past_is_finished", 1, 9, models.TripStatusFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc := NewTripService(db)
			user := testutil.CreateTestUser(t, db)

			trip, err := svc.CreateTrip(user.ID, TripInput{
				Name:      "Lisboa",
				StartDate: dates.Date(2024, 6, tt.start),
				EndDate:   dates.Date(2024, 6, tt.end),
				Budget:    100000,
			}, dates.Date(2024, 6, 10))
			testutil.AssertNoError(t, err)
			if trip.Status != tt.want {
				t.Errorf("expected status %q, got %q", tt.want, trip.Status)
			}
		})
	}

	t.Run("end_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTripService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrip(user.ID, TripInput{
			Name:      "Lisboa",
			StartDate: dates.Date(2024, 6, 10),
			EndDate:   dates.Date(2024, 6, 9),
		}, dates.Date(2024, 6, 1))
		testutil.AssertAppError(t, err, "INVALID_TRIP_DATES")
	})
}

func TestTripSummary(t *testing.T) {
	t.Run("savings_plan_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTripService(db)
		user := testutil.CreateTestUser(t, db)
		trip := testutil.CreateTestTrip(t, db, user.ID, dates.Date(2024, 4, 15), dates.Date(2024, 4, 22), 120000)

		_, err := svc.AddSavings(user.ID, trip.ID, 30000)
		testutil.AssertNoError(t, err)

		summary, err := svc.GetSummary(user.ID, trip.ID, dates.Date(2024, 1, 15))
		testutil.AssertNoError(t, err)

		if summary.ToSave != 90000 {
			t.Errorf("expected to save 90000, got %d", summary.ToSave)
		}
		if summary.PercentSaved != 25 {
			t.Errorf("expected 25%% saved, got %v", summary.PercentSaved)
		}
		if summary.DaysUntilStart != 91 {
			t.Errorf("expected 91 days until start, got %d", summary.DaysUntilStart)
		}
		if summary.MonthsLeft != 3 || summary.MonthlySavings != 30000 {
			t.Errorf("expected 3 months of 30000, got %d of %d", summary.MonthsLeft, summary.MonthlySavings)
		}
		if summary.WeeksLeft != 13 || summary.WeeklySavings != 6924 {
			t.Errorf("expected 13 weeks of 6924, got %d of %d", summary.WeeksLeft, summary.WeeklySavings)
		}
	})

	t.Run("spent_from_trip_expenses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTripService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		trip := testutil.CreateTestTrip(t, db, user.ID, dates.Date(2024, 4, 15), dates.Date(2024, 4, 22), 100000)

		_, err := svc.AddExpense(user.ID, trip.ID, TripExpenseInput{AccountID: account.ID, Amount: 15000, Date: dates.Date(2024, 4, 16)})
		testutil.AssertNoError(t, err)
		_, err = svc.AddExpense(user.ID, trip.ID, TripExpenseInput{AccountID: account.ID, Amount: 5000, Description: "Museo", Date: dates.Date(2024, 4, 17)})
		testutil.AssertNoError(t, err)

		summary, err := svc.GetSummary(user.ID, trip.ID, dates.Date(2024, 4, 18))
		testutil.AssertNoError(t, err)
		if summary.Spent != 20000 || summary.Remaining != 80000 {
			t.Errorf("expected spent 20000 remaining 80000, got %d and %d", summary.Spent, summary.Remaining)
		}
		if summary.ExpensesCounted != 2 {
			t.Errorf("expected 2 expenses, got %d", summary.ExpensesCounted)
		}
		if summary.DaysUntilStart != 0 {
			t.Errorf("expected no countdown once started, got %d", summary.DaysUntilStart)
		}
	})
}

func TestTripExpenses(t *testing.T) {
	t.Run("mirrors_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTripService(db)
		accounts := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 50000)
		trip := testutil.CreateTestTrip(t, db, user.ID, dates.Date(2024, 4, 15), dates.Date(2024, 4, 22), 100000)

		expense, err := svc.AddExpense(user.ID, trip.ID, TripExpenseInput{AccountID: account.ID, Amount: 12000, Date: dates.Date(2024, 4, 16)})
		testutil.AssertNoError(t, err)
		if expense.TransactionID == nil {
			t.Fatal("expected mirrored transaction")
		}
		if expense.Description != trip.Name {
			t.Errorf("expected description to default to trip name, got %q", expense.Description)
		}
		if got := balanceOf(t, accounts, user.ID, account.ID); got != 38000 {
			t.Errorf("expected balance 38000, got %d", got)
		}

		testutil.AssertNoError(t, svc.DeleteExpense(user.ID, trip.ID, expense.ID))
		testutil.AssertRowCount(t, db, &models.Transaction{}, 0, "id = ?", *expense.TransactionID)
		if got := balanceOf(t, accounts, user.ID, account.ID); got != 50000 {
			t.Errorf("expected balance restored to 50000, got %d", got)
		}
	})

	t.Run("deleting_transaction_removes_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTripService(db)
		transactions := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		trip := testutil.CreateTestTrip(t, db, user.ID, dates.Date(2024, 4, 15), dates.Date(2024, 4, 22), 100000)

		expense, err := svc.AddExpense(user.ID, trip.ID, TripExpenseInput{AccountID: account.ID, Amount: 12000, Date: dates.Date(2024, 4, 16)})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, transactions.DeleteTransaction(user.ID, *expense.TransactionID))

		result, err := svc.GetExpenses(user.ID, trip.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 0 {
			t.Errorf("expected no trip expenses, got %d", result.TotalItems)
		}
	})

	t.Run("delete_trip_keeps_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTripService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		trip := testutil.CreateTestTrip(t, db, user.ID, dates.Date(2024, 4, 15), dates.Date(2024, 4, 22), 100000)

		expense, err := svc.AddExpense(user.ID, trip.ID, TripExpenseInput{AccountID: account.ID, Amount: 12000, Date: dates.Date(2024, 4, 16)})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteTrip(user.ID, trip.ID))
		testutil.AssertRowCount(t, db, &models.Transaction{}, 1, "id = ? AND trip_id IS NULL", *expense.TransactionID)
	})
}

func TestAddSavings_CannotGoNegative(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTripService(db)
	user := testutil.CreateTestUser(t, db)
	trip := testutil.CreateTestTrip(t, db, user.ID, dates.Date(2024, 4, 15), dates.Date(2024, 4, 22), 100000)

	_, err := svc.AddSavings(user.ID, trip.ID, 1000)
	testutil.AssertNoError(t, err)
	_, err = svc.AddSavings(user.ID, trip.ID, -2000)
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	updated, err := svc.AddSavings(user.ID, trip.ID, -1000)
	testutil.AssertNoError(t, err)
	if updated.Saved != 0 {
		t.Errorf("expected saved 0, got %d", updated.Saved)
	}
}
