package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates the budget of a category for the month containing month.
// At most one budget exists per user, category and month.
func (s *budgetService) CreateBudget(userID, categoryID string, amount int64, month time.Time, rollover bool) (*models.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := checkCategory(s.db, userID, &categoryID); err != nil {
		return nil, err
	}

	start := dates.MonthStart(month)
	exists, err := s.exists(userID, categoryID, start)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      amount,
		PeriodStart: start,
		PeriodEnd:   dates.MonthEnd(start),
		Rollover:    rollover,
	}
	if err := s.db.Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

func (s *budgetService) exists(userID, categoryID string, start time.Time) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND period_start = ?", userID, categoryID, start).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// GetUserBudgets returns a paginated list of budgets, optionally for one month.
func (s *budgetService) GetUserBudgets(userID string, month *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if month != nil {
		base = base.Where("period_start = ?", dates.MonthStart(*month))
	}

	result, err := pagination.Find[models.Budget](base, page, "period_start DESC, created_at ASC", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Category")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetBudgetByID retrieves a budget owned by the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget changes the amount or rollover flag.
func (s *budgetService) UpdateBudget(userID, budgetID string, amount *int64, rollover *bool) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if rollover != nil {
		updates["rollover"] = *rollover
	}
	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return budget, nil
}

// DeleteBudget removes a budget. The row is hard-deleted so the month can be
// budgeted again under the unique index.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Unscoped().Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress calculates spending vs budget for the budget's month.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.Progress(budget)
}

// GetMonthProgress returns the progress of every budget the user has for month.
func (s *budgetService) GetMonthProgress(userID string, month time.Time) ([]BudgetProgress, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND period_start = ?", userID, dates.MonthStart(month)).
		Order("created_at ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := make([]BudgetProgress, 0, len(budgets))
	for i := range budgets {
		p, err := s.Progress(&budgets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// Progress computes spent and available amounts for budget. With rollover on,
// the previous month's surplus (or deficit) for the same category is carried
// into the available amount. Only one month is carried.
func (s *budgetService) Progress(budget *models.Budget) (*BudgetProgress, error) {
	spent, err := s.spent(budget.UserID, budget.CategoryID, budget.PeriodStart, budget.PeriodEnd)
	if err != nil {
		return nil, err
	}

	var carryover int64
	if budget.Rollover {
		prevStart := dates.AddMonthsClamped(budget.PeriodStart, -1, 1)
		var prev models.Budget
		err := s.db.Where("user_id = ? AND category_id = ? AND period_start = ?",
			budget.UserID, budget.CategoryID, prevStart).First(&prev).Error
		switch {
		case err == nil:
			prevSpent, err := s.spent(budget.UserID, budget.CategoryID, prev.PeriodStart, prev.PeriodEnd)
			if err != nil {
				return nil, err
			}
			carryover = prev.Amount - prevSpent
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	available := budget.Amount + carryover
	return &BudgetProgress{
		BudgetID:    budget.ID,
		UserID:      budget.UserID,
		CategoryID:  budget.CategoryID,
		PeriodStart: budget.PeriodStart,
		Budgeted:    budget.Amount,
		Carryover:   carryover,
		Available:   available,
		Spent:       spent,
		Remaining:   available - spent,
		Percentage:  percentOf(spent, available),
	}, nil
}

// spent sums expense magnitudes booked on the category and its subcategories.
func (s *budgetService) spent(userID, categoryID string, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, models.TransactionTypeExpense, from, to).
		Where("(category_id = ? OR category_id IN (?))", categoryID,
			s.db.Model(&models.Category{}).Select("id").Where("parent_id = ?", categoryID)).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return -total, nil
}

// CopyFromPreviousMonth creates budgets for month from the previous month's,
// skipping categories that already have a budget. It returns the created budgets.
func (s *budgetService) CopyFromPreviousMonth(userID string, month time.Time) ([]models.Budget, error) {
	start := dates.MonthStart(month)
	prevStart := dates.AddMonthsClamped(start, -1, 1)

	var previous []models.Budget
	if err := s.db.Where("user_id = ? AND period_start = ?", userID, prevStart).Find(&previous).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := make([]models.Budget, 0, len(previous))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range previous {
			var count int64
			if err := tx.Model(&models.Budget{}).
				Where("user_id = ? AND category_id = ? AND period_start = ?", userID, p.CategoryID, start).
				Count(&count).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				continue
			}
			budget := models.Budget{
				UserID:      userID,
				CategoryID:  p.CategoryID,
				Amount:      p.Amount,
				PeriodStart: start,
				PeriodEnd:   dates.MonthEnd(start),
				Rollover:    p.Rollover,
			}
			if err := tx.Create(&budget).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created = append(created, budget)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
