package services

import (
	"testing"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/testutil"
)

func TestContribute(t *testing.T) {
	t.Run("reaching_target_completes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 10000, 6000)

		updated, err := svc.Contribute(user.ID, goal.ID, 4000)
		testutil.AssertNoError(t, err)
		if updated.CurrentAmount != 10000 || updated.CompletedAt == nil {
			t.Errorf("expected completed goal, got %+v", updated)
		}

		updated, err = svc.Contribute(user.ID, goal.ID, -1)
		testutil.AssertNoError(t, err)
		if updated.CompletedAt != nil {
			t.Error("expected withdrawal below target to reopen the goal")
		}
	})

	t.Run("cannot_withdraw_below_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 10000, 500)

		_, err := svc.Contribute(user.ID, goal.ID, -501)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("other_users_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, other.ID, 10000, 0)

		_, err := svc.Contribute(user.ID, goal.ID, 100)
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
	})
}

func TestUpdateGoal_LoweringTargetCompletes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)
	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, 10000, 6000)

	target := int64(5000)
	updated, err := svc.UpdateGoal(user.ID, goal.ID, nil, &target, nil)
	testutil.AssertNoError(t, err)
	if updated.CompletedAt == nil {
		t.Error("expected goal to complete when target drops below saved amount")
	}
}

func TestGetUserGoals_OpenFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)
	user := testutil.CreateTestUser(t, db)
	done := testutil.CreateTestGoal(t, db, user.ID, 100, 0)
	_, err := svc.Contribute(user.ID, done.ID, 100)
	testutil.AssertNoError(t, err)
	open := testutil.CreateTestGoal(t, db, user.ID, 100, 0)

	result, err := svc.GetUserGoals(user.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if len(result.Data) != 2 || result.Data[0].ID != open.ID {
		t.Errorf("expected open goal first, got %+v", result.Data)
	}
}

func TestContribute_NotifiesOnceWhenReached(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)
	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, 1000, 0)

	_, err := svc.Contribute(user.ID, goal.ID, 1000)
	testutil.AssertNoError(t, err)
	_, err = svc.Contribute(user.ID, goal.ID, -500)
	testutil.AssertNoError(t, err)
	_, err = svc.Contribute(user.ID, goal.ID, 500)
	testutil.AssertNoError(t, err)

	testutil.AssertRowCount(t, db, &models.Notification{}, 1,
		"type = ? AND related_entity_id = ?", models.NotificationGoalReached, goal.ID)
}
