package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
)

// goalService manages savings goals.
type goalService struct {
	db *gorm.DB
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB) GoalServicer {
	return &goalService{db: db}
}

// CreateGoal creates a savings goal.
func (s *goalService) CreateGoal(userID, name string, targetAmount int64, targetDate *time.Time) (*models.Goal, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if targetAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	goal := &models.Goal{
		UserID:       userID,
		Name:         name,
		TargetAmount: targetAmount,
	}
	if targetDate != nil {
		d := dates.Truncate(*targetDate)
		goal.TargetDate = &d
	}
	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals lists goals, open ones first.
func (s *goalService) GetUserGoals(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
	base := s.db.Model(&models.Goal{}).Where("user_id = ?", userID)
	result, err := pagination.Find[models.Goal](base, page, "completed_at IS NOT NULL, created_at ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetGoalByID retrieves a goal owned by the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal applies the non-nil fields and re-evaluates completion.
func (s *goalService) UpdateGoal(userID, goalID string, name *string, targetAmount *int64, targetDate *time.Time) (*models.Goal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil && *name != "" {
		updates["name"] = *name
		goal.Name = *name
	}
	if targetAmount != nil {
		if *targetAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
		}
		updates["target_amount"] = *targetAmount
		goal.TargetAmount = *targetAmount
	}
	if targetDate != nil {
		updates["target_date"] = dates.Truncate(*targetDate)
	}
	if len(updates) > 0 {
		if err := s.save(goal, updates); err != nil {
			return nil, err
		}
	}
	return s.GetGoalByID(userID, goalID)
}

// save writes updates after re-evaluating completion. A goal that becomes
// reached gets its notification in the same transaction.
func (s *goalService) save(goal *models.Goal, updates map[string]interface{}) error {
	completed := applyCompletion(goal, updates)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Goal{}).Where("id = ?", goal.ID).Updates(updates).Error; err != nil {
			return err
		}
		if completed {
			if _, err := createNotificationOnce(tx, GoalReachedNotification(goal)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GoalReachedNotification is the one-time notice for a completed goal.
func GoalReachedNotification(goal *models.Goal) *models.Notification {
	return &models.Notification{
		UserID:            goal.UserID,
		Type:              models.NotificationGoalReached,
		Message:           fmt.Sprintf("¡Has alcanzado la meta %s!", goal.Name),
		RelatedEntityType: "goal",
		RelatedEntityID:   goal.ID,
	}
}

// applyCompletion sets or clears completed_at when the goal's reached state
// changed. It reports whether the goal just completed.
func applyCompletion(goal *models.Goal, updates map[string]interface{}) bool {
	switch {
	case goal.Reached() && goal.CompletedAt == nil:
		updates["completed_at"] = time.Now()
		return true
	case !goal.Reached() && goal.CompletedAt != nil:
		updates["completed_at"] = nil
	}
	return false
}

// DeleteGoal removes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Contribute adds amount to the goal. A negative amount withdraws, never
// below zero. Reaching the target stamps completed_at.
func (s *goalService) Contribute(userID, goalID string, amount int64) (*models.Goal, error) {
	if amount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.CurrentAmount+amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot withdraw more than saved")
	}

	goal.CurrentAmount += amount
	if err := s.save(goal, map[string]interface{}{"current_amount": goal.CurrentAmount}); err != nil {
		return nil, err
	}
	return s.GetGoalByID(userID, goalID)
}
