package services

import (
	"testing"
	"time"

	"finanzas/internal/dates"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/recurrence"
	"finanzas/internal/testutil"
)

func reloadFixedExpense(t *testing.T, svc FixedExpenseServicer, userID, id string) *models.FixedExpense {
	t.Helper()
	fe, err := svc.GetFixedExpenseByID(userID, id)
	testutil.AssertNoError(t, err)
	return fe
}

func TestPostDue(t *testing.T) {
	t.Run("posts_one_expense_and_advances_one_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 85000, dates.Date(2024, 1, 31), testutil.IntPtr(31))
		db.Model(fe).Update("category_id", category.ID)
		fe.CategoryID = &category.ID

		posted, err := svc.PostDue(fe, dates.Date(2024, 1, 31))
		testutil.AssertNoError(t, err)

		if len(posted) != 1 {
			t.Fatalf("expected 1 posted transaction, got %d", len(posted))
		}
		txn := posted[0]
		if txn.Amount != -85000 {
			t.Errorf("expected amount -85000, got %d", txn.Amount)
		}
		if txn.Type != models.TransactionTypeExpense {
			t.Errorf("expected expense, got %s", txn.Type)
		}
		if got := dates.Format(txn.Date); got != "2024-01-31" {
			t.Errorf("expected transaction dated 2024-01-31, got %s", got)
		}
		if txn.FixedExpenseID == nil || *txn.FixedExpenseID != fe.ID {
			t.Errorf("expected fixed_expense_id %s, got %v", fe.ID, txn.FixedExpenseID)
		}
		if txn.CategoryID == nil || *txn.CategoryID != category.ID {
			t.Errorf("expected category %s, got %v", category.ID, txn.CategoryID)
		}

		stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
		if got := dates.Format(stored.NextDueDate); got != "2024-02-29" {
			t.Errorf("expected next due 2024-02-29, got %s", got)
		}
		if stored.LastPaymentProcessedOn == nil || dates.Format(*stored.LastPaymentProcessedOn) != "2024-01-31" {
			t.Errorf("expected last processed 2024-01-31, got %v", stored.LastPaymentProcessedOn)
		}
		if !stored.NextDueDate.After(*stored.LastPaymentProcessedOn) {
			t.Error("next due date must be after the last processed date")
		}
		testutil.AssertRowCount(t, db, &models.Transaction{}, 1, "fixed_expense_id = ?", fe.ID)
	})

	t.Run("duplicate_run_posts_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1999, dates.Date(2024, 5, 15), testutil.IntPtr(15))

		// Both runs read the schedule before either posts.
		first := *fe
		second := *fe

		posted, err := svc.PostDue(&first, dates.Date(2024, 5, 15))
		testutil.AssertNoError(t, err)
		if len(posted) != 1 {
			t.Fatalf("expected first run to post once, got %d", len(posted))
		}

		posted, err = svc.PostDue(&second, dates.Date(2024, 5, 15))
		testutil.AssertNoError(t, err)
		if len(posted) != 0 {
			t.Fatalf("expected second run to post nothing, got %d", len(posted))
		}

		testutil.AssertRowCount(t, db, &models.Transaction{}, 1, "fixed_expense_id = ?", fe.ID)
		stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
		if got := dates.Format(stored.NextDueDate); got != "2024-06-15" {
			t.Errorf("expected next due 2024-06-15, got %s", got)
		}
	})

	t.Run("one_time_deactivates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Unico, 30000, dates.Date(2024, 3, 10), nil)

		posted, err := svc.PostDue(fe, dates.Date(2024, 4, 1))
		testutil.AssertNoError(t, err)
		if len(posted) != 1 {
			t.Fatalf("expected 1 posting, got %d", len(posted))
		}

		stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
		if stored.IsActive {
			t.Error("expected one-time schedule to be deactivated")
		}
		if got := dates.Format(stored.NextDueDate); got != "2024-03-10" {
			t.Errorf("expected next due date unchanged, got %s", got)
		}

		posted, err = svc.PostDue(stored, dates.Date(2024, 5, 1))
		testutil.AssertNoError(t, err)
		if len(posted) != 0 {
			t.Errorf("expected inactive schedule to post nothing, got %d", len(posted))
		}
	})

	t.Run("catches_up_missed_weeks", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Semanal, 1000, dates.Date(2024, 1, 1), nil)

		posted, err := svc.PostDue(fe, dates.Date(2024, 1, 22))
		testutil.AssertNoError(t, err)

		want := []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}
		if len(posted) != len(want) {
			t.Fatalf("expected %d postings, got %d", len(want), len(posted))
		}
		for i, d := range want {
			if got := dates.Format(posted[i].Date); got != d {
				t.Errorf("posting %d: expected %s, got %s", i, d, got)
			}
		}
		stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
		if got := dates.Format(stored.NextDueDate); got != "2024-01-29" {
			t.Errorf("expected next due 2024-01-29, got %s", got)
		}
	})

	t.Run("catch_up_is_bounded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Semanal, 1000, dates.Date(2020, 1, 6), nil)

		posted, err := svc.PostDue(fe, dates.Date(2024, 1, 1))
		testutil.AssertNoError(t, err)
		if len(posted) != MaxCatchUp {
			t.Errorf("expected %d postings, got %d", MaxCatchUp, len(posted))
		}
	})

	t.Run("not_yet_due_posts_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 6, 1), nil)

		posted, err := svc.PostDue(fe, dates.Date(2024, 5, 31))
		testutil.AssertNoError(t, err)
		if len(posted) != 0 {
			t.Errorf("expected nothing posted, got %d", len(posted))
		}
	})

	t.Run("failed_insert_does_not_advance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 6, 1), nil)

		if err := db.Migrator().DropTable(&models.Transaction{}); err != nil {
			t.Fatalf("drop table: %v", err)
		}

		_, err := svc.PostDue(fe, dates.Date(2024, 6, 1))
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")

		stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
		if got := dates.Format(stored.NextDueDate); got != "2024-06-01" {
			t.Errorf("expected next due date to stay 2024-06-01, got %s", got)
		}
		if stored.LastPaymentProcessedOn != nil {
			t.Error("expected last processed date to stay empty")
		}
	})

	t.Run("notify_writes_notification", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 6, 1), nil)
		db.Model(fe).Update("notify", true)
		fe.Notify = true

		_, err := svc.PostDue(fe, dates.Date(2024, 6, 1))
		testutil.AssertNoError(t, err)

		testutil.AssertRowCount(t, db, &models.Notification{}, 1,
			"user_id = ? AND type = ? AND related_entity_id = ?", user.ID, models.NotificationFixedExpensePosted, fe.ID)
	})
}

func TestListDue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewFixedExpenseService(db, nil)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)
	otherAccount := testutil.CreateTestAccount(t, db, other.ID)

	testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 6, 1), nil)
	testutil.CreateTestFixedExpense(t, db, other.ID, otherAccount.ID, recurrence.Mensual, 1000, dates.Date(2024, 6, 10), nil)
	testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 6, 11), nil)
	paused := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 6, 1), nil)
	db.Model(paused).Update("is_active", false)

	due, err := svc.ListDue(dates.Date(2024, 6, 10))
	testutil.AssertNoError(t, err)
	if len(due) != 2 {
		t.Fatalf("expected 2 due schedules across users, got %d", len(due))
	}
}

func TestCreateFixedExpense(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		fe, err := svc.CreateFixedExpense(user.ID, FixedExpenseInput{
			AccountID:   account.ID,
			Description: "Gimnasio",
			Amount:      3500,
			Frequency:   recurrence.Mensual,
			NextDueDate: dates.Date(2024, 7, 5),
			DayOfMonth:  testutil.IntPtr(5),
		})
		testutil.AssertNoError(t, err)
		if !fe.IsActive {
			t.Error("expected a new schedule to be active")
		}
	})

	t.Run("invalid_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateFixedExpense(user.ID, FixedExpenseInput{
			AccountID:   account.ID,
			Description: "x",
			Amount:      100,
			Frequency:   recurrence.Frequency("diario"),
			NextDueDate: dates.Date(2024, 7, 5),
		})
		testutil.AssertAppError(t, err, "INVALID_FREQUENCY")
	})

	t.Run("anchor_out_of_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateFixedExpense(user.ID, FixedExpenseInput{
			AccountID:   account.ID,
			Description: "x",
			Amount:      100,
			Frequency:   recurrence.Mensual,
			NextDueDate: dates.Date(2024, 7, 5),
			DayOfMonth:  testutil.IntPtr(32),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("other_users_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, other.ID)

		_, err := svc.CreateFixedExpense(user.ID, FixedExpenseInput{
			AccountID:   account.ID,
			Description: "x",
			Amount:      100,
			Frequency:   recurrence.Mensual,
			NextDueDate: dates.Date(2024, 7, 5),
		})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestFixedExpenseLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewFixedExpenseService(db, nil)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)
	fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 1, 31), testutil.IntPtr(31))

	t.Run("preview", func(t *testing.T) {
		got, err := svc.Preview(user.ID, fe.ID, 3)
		testutil.AssertNoError(t, err)
		want := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
		if len(got) != len(want) {
			t.Fatalf("expected %d dates, got %d", len(want), len(got))
		}
		for i := range want {
			if dates.Format(got[i]) != want[i] {
				t.Errorf("date %d: expected %s, got %s", i, want[i], dates.Format(got[i]))
			}
		}
	})

	t.Run("pause_and_resume", func(t *testing.T) {
		_, err := svc.SetActive(user.ID, fe.ID, false, dates.Date(2024, 1, 20))
		testutil.AssertNoError(t, err)

		_, err = svc.PostNow(user.ID, fe.ID, dates.Date(2024, 1, 31))
		testutil.AssertAppError(t, err, "FIXED_EXPENSE_INACTIVE")

		active, err := svc.GetUserFixedExpenses(user.ID, true, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if active.TotalItems != 0 {
			t.Errorf("expected no active schedules, got %d", active.TotalItems)
		}

		_, err = svc.SetActive(user.ID, fe.ID, true, dates.Date(2024, 1, 20))
		testutil.AssertNoError(t, err)
	})

	t.Run("post_now_ahead_of_due_date", func(t *testing.T) {
		txn, err := svc.PostNow(user.ID, fe.ID, dates.Date(2024, 1, 20))
		testutil.AssertNoError(t, err)
		if got := dates.Format(txn.Date); got != "2024-01-20" {
			t.Errorf("expected early payment dated 2024-01-20, got %s", got)
		}
		stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
		if got := dates.Format(stored.NextDueDate); got != "2024-02-29" {
			t.Errorf("expected next due 2024-02-29, got %s", got)
		}
	})

	t.Run("delete_keeps_transactions", func(t *testing.T) {
		testutil.AssertNoError(t, svc.DeleteFixedExpense(user.ID, fe.ID))
		_, err := svc.GetFixedExpenseByID(user.ID, fe.ID)
		testutil.AssertAppError(t, err, "FIXED_EXPENSE_NOT_FOUND")
		testutil.AssertRowCount(t, db, &models.Transaction{}, 1, "fixed_expense_id = ?", fe.ID)
	})
}

func TestSetActive(t *testing.T) {
	t.Run("resume_posted_one_time_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Unico, 30000, dates.Date(2024, 3, 10), nil)

		_, err := svc.PostDue(fe, dates.Date(2024, 3, 10))
		testutil.AssertNoError(t, err)

		_, err = svc.SetActive(user.ID, fe.ID, true, dates.Date(2024, 3, 15))
		testutil.AssertAppError(t, err, "FIXED_EXPENSE_COMPLETED")

		stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
		if stored.IsActive {
			t.Fatal("expected posted one-time schedule to stay inactive")
		}
		posted, err := svc.PostDue(stored, dates.Date(2024, 3, 20))
		testutil.AssertNoError(t, err)
		if len(posted) != 0 {
			t.Errorf("expected nothing posted, got %d", len(posted))
		}
		testutil.AssertRowCount(t, db, &models.Transaction{}, 1, "fixed_expense_id = ?", fe.ID)
	})

	t.Run("resume_unposted_one_time_keeps_due_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Unico, 30000, dates.Date(2024, 3, 10), nil)

		_, err := svc.SetActive(user.ID, fe.ID, false, dates.Date(2024, 3, 1))
		testutil.AssertNoError(t, err)
		resumed, err := svc.SetActive(user.ID, fe.ID, true, dates.Date(2024, 3, 20))
		testutil.AssertNoError(t, err)
		if !resumed.IsActive || dates.Format(resumed.NextDueDate) != "2024-03-10" {
			t.Errorf("expected active schedule due 2024-03-10, got active=%v due=%s", resumed.IsActive, dates.Format(resumed.NextDueDate))
		}
	})

	t.Run("resume_skips_occurrences_missed_while_paused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Semanal, 3000, dates.Date(2024, 5, 6), nil)

		_, err := svc.SetActive(user.ID, fe.ID, false, dates.Date(2024, 5, 1))
		testutil.AssertNoError(t, err)
		resumed, err := svc.SetActive(user.ID, fe.ID, true, dates.Date(2024, 6, 5))
		testutil.AssertNoError(t, err)
		if got := dates.Format(resumed.NextDueDate); got != "2024-06-10" {
			t.Errorf("expected next due 2024-06-10, got %s", got)
		}

		posted, err := svc.PostDue(resumed, dates.Date(2024, 6, 5))
		testutil.AssertNoError(t, err)
		if len(posted) != 0 {
			t.Errorf("expected missed weeks skipped, got %d postings", len(posted))
		}
	})

	t.Run("resume_keeps_due_date_today", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFixedExpenseService(db, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 1, 31), testutil.IntPtr(31))

		_, err := svc.SetActive(user.ID, fe.ID, false, dates.Date(2024, 1, 2))
		testutil.AssertNoError(t, err)
		resumed, err := svc.SetActive(user.ID, fe.ID, true, dates.Date(2024, 1, 31))
		testutil.AssertNoError(t, err)
		if got := dates.Format(resumed.NextDueDate); got != "2024-01-31" {
			t.Errorf("expected due date kept at 2024-01-31, got %s", got)
		}
	})
}

func TestUpdateFixedExpense_NextDueAfterLastProcessed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewFixedExpenseService(db, nil)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)
	fe := testutil.CreateTestFixedExpense(t, db, user.ID, account.ID, recurrence.Mensual, 1000, dates.Date(2024, 3, 10), testutil.IntPtr(10))

	_, err := svc.PostDue(fe, dates.Date(2024, 3, 10))
	testutil.AssertNoError(t, err)

	input := func(next time.Time) FixedExpenseInput {
		return FixedExpenseInput{
			AccountID:   account.ID,
			Description: "Alquiler",
			Amount:      1000,
			Frequency:   recurrence.Mensual,
			NextDueDate: next,
			DayOfMonth:  testutil.IntPtr(10),
		}
	}

	for _, next := range []time.Time{dates.Date(2024, 1, 1), dates.Date(2024, 3, 10)} {
		_, err := svc.UpdateFixedExpense(user.ID, fe.ID, input(next))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	}
	stored := reloadFixedExpense(t, svc, user.ID, fe.ID)
	if got := dates.Format(stored.NextDueDate); got != "2024-04-10" {
		t.Errorf("expected next due unchanged at 2024-04-10, got %s", got)
	}

	updated, err := svc.UpdateFixedExpense(user.ID, fe.ID, input(dates.Date(2024, 3, 11)))
	testutil.AssertNoError(t, err)
	if got := dates.Format(updated.NextDueDate); got != "2024-03-11" {
		t.Errorf("expected next due 2024-03-11, got %s", got)
	}
}
