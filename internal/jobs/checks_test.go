package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/dates"
	"finanzas/internal/models"
	"finanzas/internal/recurrence"
	"finanzas/internal/testutil"
)

func TestBudgetAlerts(t *testing.T) {
	t.Run("warning_is_sent_once_per_month", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		account := testutil.CreateTestAccount(t, f.db, user.ID)
		category := testutil.CreateTestCategory(t, f.db, user.ID, models.CategoryTypeExpense)
		today := dates.Date(2024, 1, 20)
		testutil.CreateTestBudget(t, f.db, user.ID, category.ID, 10000, today)
		testutil.CreateTestTransaction(t, f.db, user.ID, account.ID, &category.ID, models.TransactionTypeExpense, -8500, dates.Date(2024, 1, 10))

		for i := 0; i < 2; i++ {
			res, err := f.runner.Run(context.Background(), BudgetAlerts, today)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Processed)
		}

		assert.Equal(t, int64(1), countNotifications(t, f.db, user.ID, models.NotificationBudgetWarning))
		assert.Zero(t, countNotifications(t, f.db, user.ID, models.NotificationBudgetExceeded))
	})

	t.Run("exceeded_after_warning", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		account := testutil.CreateTestAccount(t, f.db, user.ID)
		category := testutil.CreateTestCategory(t, f.db, user.ID, models.CategoryTypeExpense)
		today := dates.Date(2024, 1, 20)
		testutil.CreateTestBudget(t, f.db, user.ID, category.ID, 10000, today)
		testutil.CreateTestTransaction(t, f.db, user.ID, account.ID, &category.ID, models.TransactionTypeExpense, -8500, dates.Date(2024, 1, 10))

		_, err := f.runner.Run(context.Background(), BudgetAlerts, today)
		require.NoError(t, err)

		testutil.CreateTestTransaction(t, f.db, user.ID, account.ID, &category.ID, models.TransactionTypeExpense, -2000, dates.Date(2024, 1, 19))
		_, err = f.runner.Run(context.Background(), BudgetAlerts, today)
		require.NoError(t, err)

		assert.Equal(t, int64(1), countNotifications(t, f.db, user.ID, models.NotificationBudgetWarning))
		assert.Equal(t, int64(1), countNotifications(t, f.db, user.ID, models.NotificationBudgetExceeded))
	})

	t.Run("under_threshold_and_other_months_are_quiet", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		account := testutil.CreateTestAccount(t, f.db, user.ID)
		category := testutil.CreateTestCategory(t, f.db, user.ID, models.CategoryTypeExpense)
		today := dates.Date(2024, 1, 20)
		testutil.CreateTestBudget(t, f.db, user.ID, category.ID, 10000, today)
		testutil.CreateTestBudget(t, f.db, user.ID, category.ID, 100, dates.Date(2023, 12, 1))
		testutil.CreateTestTransaction(t, f.db, user.ID, account.ID, &category.ID, models.TransactionTypeExpense, -5000, dates.Date(2024, 1, 10))
		testutil.CreateTestTransaction(t, f.db, user.ID, account.ID, &category.ID, models.TransactionTypeExpense, -5000, dates.Date(2023, 12, 10))

		res, err := f.runner.Run(context.Background(), BudgetAlerts, today)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Processed)

		var n int64
		require.NoError(t, f.db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&n).Error)
		assert.Zero(t, n)
	})
}

func TestGoalCheck(t *testing.T) {
	t.Run("completes_reached_goal_once", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		goal := testutil.CreateTestGoal(t, f.db, user.ID, 10000, 10000)
		testutil.CreateTestGoal(t, f.db, user.ID, 10000, 500)

		for i := 0; i < 2; i++ {
			_, err := f.runner.Run(context.Background(), GoalCheck, dates.Date(2024, 3, 1))
			require.NoError(t, err)
		}

		var stored models.Goal
		require.NoError(t, f.db.First(&stored, "id = ?", goal.ID).Error)
		assert.NotNil(t, stored.CompletedAt)
		assert.Equal(t, int64(1), countNotifications(t, f.db, user.ID, models.NotificationGoalReached))
	})

	t.Run("deadline_within_window", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		today := dates.Date(2024, 3, 1)

		soon := testutil.CreateTestGoal(t, f.db, user.ID, 10000, 500)
		require.NoError(t, f.db.Model(soon).Update("target_date", today.AddDate(0, 0, 2)).Error)
		later := testutil.CreateTestGoal(t, f.db, user.ID, 10000, 500)
		require.NoError(t, f.db.Model(later).Update("target_date", today.AddDate(0, 1, 0)).Error)

		res, err := f.runner.Run(context.Background(), GoalCheck, today)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Processed)
		testutil.AssertRowCount(t, f.db, &models.Notification{}, 1, "type = ? AND related_entity_id = ?", models.NotificationGoalDeadline, soon.ID)
	})
}

func TestReminders(t *testing.T) {
	t.Run("fixed_expense_due_soon", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		account := testutil.CreateTestAccount(t, f.db, user.ID)
		today := dates.Date(2024, 1, 10)

		notified := testutil.CreateTestFixedExpense(t, f.db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 1, 12), nil)
		require.NoError(t, f.db.Model(notified).Update("notify", true).Error)
		silent := testutil.CreateTestFixedExpense(t, f.db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 1, 12), nil)
		far := testutil.CreateTestFixedExpense(t, f.db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 1, 25), nil)
		require.NoError(t, f.db.Model(far).Update("notify", true).Error)

		for i := 0; i < 2; i++ {
			_, err := f.runner.Run(context.Background(), Reminders, today)
			require.NoError(t, err)
		}

		testutil.AssertRowCount(t, f.db, &models.Notification{}, 1, "related_entity_id = ?", notified.ID)
		testutil.AssertRowCount(t, f.db, &models.Notification{}, 0, "related_entity_id IN ?", []string{silent.ID, far.ID})
	})

	t.Run("overdue_debt_becomes_vencida", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		today := dates.Date(2024, 1, 10)
		past := dates.Date(2024, 1, 5)
		future := dates.Date(2024, 2, 5)

		overdue := testutil.CreateTestDebt(t, f.db, user.ID, models.DebtKindDebt, 5000, &past)
		current := testutil.CreateTestDebt(t, f.db, user.ID, models.DebtKindLoan, 5000, &future)
		paid := testutil.CreateTestDebt(t, f.db, user.ID, models.DebtKindDebt, 5000, &past)
		require.NoError(t, f.db.Model(paid).Update("status", models.DebtStatusPaid).Error)

		for i := 0; i < 2; i++ {
			_, err := f.runner.Run(context.Background(), Reminders, today)
			require.NoError(t, err)
		}

		statusOf := func(id string) models.DebtStatus {
			var d models.Debt
			require.NoError(t, f.db.First(&d, "id = ?", id).Error)
			return d.Status
		}
		assert.Equal(t, models.DebtStatusOverdue, statusOf(overdue.ID))
		assert.Equal(t, models.DebtStatusPending, statusOf(current.ID))
		assert.Equal(t, models.DebtStatusPaid, statusOf(paid.ID))
		assert.Equal(t, int64(1), countNotifications(t, f.db, user.ID, models.NotificationDebtOverdue))
	})

	t.Run("debt_reminder_requires_opt_in", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		today := dates.Date(2024, 1, 10)
		soon := dates.Date(2024, 1, 11)

		withReminder := testutil.CreateTestDebt(t, f.db, user.ID, models.DebtKindDebt, 5000, &soon)
		require.NoError(t, f.db.Model(withReminder).Update("reminder", true).Error)
		testutil.CreateTestDebt(t, f.db, user.ID, models.DebtKindDebt, 5000, &soon)

		_, err := f.runner.Run(context.Background(), Reminders, today)
		require.NoError(t, err)

		testutil.AssertRowCount(t, f.db, &models.Notification{}, 1, "type = ?", models.NotificationDebtReminder)
		testutil.AssertRowCount(t, f.db, &models.Notification{}, 1, "related_entity_id = ?", withReminder.ID)
	})
}

func TestTripStatus(t *testing.T) {
	tripStatus := func(t *testing.T, f *fixture, id string) models.TripStatus {
		t.Helper()
		var trip models.Trip
		require.NoError(t, f.db.First(&trip, "id = ?", id).Error)
		return trip.Status
	}

	t.Run("advances_with_the_calendar", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		trip := testutil.CreateTestTrip(t, f.db, user.ID, dates.Date(2024, 4, 1), dates.Date(2024, 4, 10), 100000)

		_, err := f.runner.Run(context.Background(), TripStatus, dates.Date(2024, 3, 31))
		require.NoError(t, err)
		assert.Equal(t, models.TripStatusPlanned, tripStatus(t, f, trip.ID))

		_, err = f.runner.Run(context.Background(), TripStatus, dates.Date(2024, 4, 1))
		require.NoError(t, err)
		assert.Equal(t, models.TripStatusInProgress, tripStatus(t, f, trip.ID))

		_, err = f.runner.Run(context.Background(), TripStatus, dates.Date(2024, 4, 11))
		require.NoError(t, err)
		assert.Equal(t, models.TripStatusFinished, tripStatus(t, f, trip.ID))

		assert.Equal(t, int64(2), countNotifications(t, f.db, user.ID, models.NotificationTripStatus))
	})

	t.Run("never_moves_backwards", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		trip := testutil.CreateTestTrip(t, f.db, user.ID, dates.Date(2024, 4, 1), dates.Date(2024, 4, 10), 100000)
		require.NoError(t, f.db.Model(trip).Update("status", models.TripStatusInProgress).Error)

		res, err := f.runner.Run(context.Background(), TripStatus, dates.Date(2024, 3, 1))
		require.NoError(t, err)
		assert.Zero(t, res.Processed)
		assert.Equal(t, models.TripStatusInProgress, tripStatus(t, f, trip.ID))
	})

	t.Run("archived_trips_are_skipped", func(t *testing.T) {
		f := newFixture(t)
		user := testutil.CreateTestUser(t, f.db)
		trip := testutil.CreateTestTrip(t, f.db, user.ID, dates.Date(2024, 4, 1), dates.Date(2024, 4, 10), 100000)
		require.NoError(t, f.db.Model(trip).Update("is_archived", true).Error)

		_, err := f.runner.Run(context.Background(), TripStatus, dates.Date(2024, 5, 1))
		require.NoError(t, err)
		assert.Equal(t, models.TripStatusPlanned, tripStatus(t, f, trip.ID))
	})
}

func TestRunResultCapsRecordedErrors(t *testing.T) {
	res := &RunResult{}
	for i := 0; i < maxRecordedErrors+5; i++ {
		res.fail("item", context.DeadlineExceeded)
	}
	assert.Equal(t, maxRecordedErrors+5, res.Failed)
	assert.Len(t, res.Errors, maxRecordedErrors)
}
