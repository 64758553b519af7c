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

// debtService manages money the user owes (debts) and is owed (loans).
type debtService struct {
	db *gorm.DB
}

// NewDebtService creates a new DebtServicer.
func NewDebtService(db *gorm.DB) DebtServicer {
	return &debtService{db: db}
}

// CreateDebt records a new debt or loan with its full amount outstanding.
func (s *debtService) CreateDebt(userID string, in DebtInput) (*models.Debt, error) {
	if in.Kind != models.DebtKindDebt && in.Kind != models.DebtKindLoan {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "kind must be debt or loan")
	}
	if in.Counterparty == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "counterparty is required")
	}
	if in.InitialAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	currency := in.Currency
	if currency == "" {
		currency = "EUR"
	}

	debt := &models.Debt{
		UserID:         userID,
		Kind:           in.Kind,
		Counterparty:   in.Counterparty,
		Description:    in.Description,
		InitialAmount:  in.InitialAmount,
		CurrentBalance: in.InitialAmount,
		Currency:       currency,
		Status:         models.DebtStatusPending,
		Reminder:       in.Reminder,
	}
	if in.DueDate != nil {
		due := dates.Truncate(*in.DueDate)
		debt.DueDate = &due
	}
	if err := s.db.Create(debt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return debt, nil
}

// GetUserDebts lists debts and loans with optional kind and status filters.
func (s *debtService) GetUserDebts(userID string, kind *models.DebtKind, status *models.DebtStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Debt], error) {
	base := s.db.Model(&models.Debt{}).Where("user_id = ?", userID)
	if kind != nil {
		base = base.Where("kind = ?", *kind)
	}
	if status != nil {
		base = base.Where("status = ?", *status)
	}
	result, err := pagination.Find[models.Debt](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetDebtByID retrieves a debt with its payments.
func (s *debtService) GetDebtByID(userID, debtID string) (*models.Debt, error) {
	var debt models.Debt
	if err := s.db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, created_at ASC")
	}).Where("id = ? AND user_id = ?", debtID, userID).First(&debt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDebtNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &debt, nil
}

// UpdateDebt applies the non-nil descriptive fields. Amounts change only through payments.
func (s *debtService) UpdateDebt(userID, debtID string, counterparty, description *string, dueDate *time.Time, reminder *bool) (*models.Debt, error) {
	debt, err := s.GetDebtByID(userID, debtID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if counterparty != nil && *counterparty != "" {
		updates["counterparty"] = *counterparty
	}
	if description != nil {
		updates["description"] = *description
	}
	if dueDate != nil {
		updates["due_date"] = dates.Truncate(*dueDate)
		// A new due date in the future lifts the overdue state.
		if debt.Status == models.DebtStatusOverdue {
			updates["status"] = models.DebtStatusPending
		}
	}
	if reminder != nil {
		updates["reminder"] = *reminder
	}
	if len(updates) > 0 {
		if err := s.db.Model(&models.Debt{}).Where("id = ?", debt.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetDebtByID(userID, debtID)
}

// DeleteDebt removes a debt and its payment history.
func (s *debtService) DeleteDebt(userID, debtID string) error {
	debt, err := s.GetDebtByID(userID, debtID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("debt_id = ?", debt.ID).Delete(&models.DebtPayment{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", debt.ID).Delete(&models.Debt{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RegisterPayment records a repayment, reducing the outstanding balance. With
// an account, the money movement is booked too: an expense when paying a
// debt, income when collecting a loan. The debt becomes paid at zero.
func (s *debtService) RegisterPayment(userID, debtID string, amount int64, date time.Time, accountID *string, notes string) (*models.DebtPayment, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	debt, err := s.GetDebtByID(userID, debtID)
	if err != nil {
		return nil, err
	}
	if debt.Status == models.DebtStatusPaid {
		return nil, apperrors.ErrDebtAlreadyPaid
	}
	if amount > debt.CurrentBalance {
		return nil, apperrors.ErrPaymentExceedsDebt
	}
	if date.IsZero() {
		date = time.Now()
	}
	date = dates.Truncate(date)

	payment := &models.DebtPayment{
		UserID: userID,
		DebtID: debt.ID,
		Amount: amount,
		Date:   date,
		Notes:  notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Debt{}).
			Where("id = ? AND current_balance >= ?", debt.ID, amount).
			Update("current_balance", gorm.Expr("current_balance - ?", amount))
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrPaymentExceedsDebt
		}
		if err := tx.Model(&models.Debt{}).Where("id = ? AND current_balance = 0", debt.ID).
			Update("status", models.DebtStatusPaid).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if accountID != nil && *accountID != "" {
			if _, err := findWritableAccount(tx, userID, *accountID); err != nil {
				return err
			}
			txn := &models.Transaction{
				UserID:    userID,
				AccountID: *accountID,
				Date:      date,
			}
			if debt.Kind == models.DebtKindDebt {
				txn.Type = models.TransactionTypeExpense
				txn.Amount = -amount
				txn.Description = fmt.Sprintf("Pago a %s", debt.Counterparty)
			} else {
				txn.Type = models.TransactionTypeIncome
				txn.Amount = amount
				txn.Description = fmt.Sprintf("Cobro de %s", debt.Counterparty)
			}
			if err := tx.Create(txn).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			payment.TransactionID = &txn.ID
		}

		if err := tx.Create(payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
