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

const defaultTransferDescription = "Transferencia"

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// signedAmount applies the sign convention: expenses are stored negative,
// income positive.
func signedAmount(transactionType models.TransactionType, magnitude int64) (int64, error) {
	switch transactionType {
	case models.TransactionTypeExpense:
		return -magnitude, nil
	case models.TransactionTypeIncome:
		return magnitude, nil
	}
	return 0, apperrors.ErrInvalidTransactionType
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// CreateTransaction creates a new income or expense on one of the user's accounts
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}
	amount, err := signedAmount(in.Type, in.Amount)
	if err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Type:        in.Type,
		Amount:      amount,
		Description: in.Description,
		Notes:       in.Notes,
		Date:        dates.Truncate(date),
		TripID:      in.TripID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findWritableAccount(tx, userID, in.AccountID); err != nil {
			return err
		}
		if err := checkCategory(tx, userID, in.CategoryID); err != nil {
			return err
		}
		if in.TripID != nil {
			if _, err := findTrip(tx, userID, *in.TripID); err != nil {
				return err
			}
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// checkCategory verifies an optional category is visible to the user.
func checkCategory(db *gorm.DB, userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := db.Model(&models.Category{}).
		Scopes(visibleTo(userID)).
		Where("id = ?", *categoryID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	result, err := pagination.Find[models.Transaction](base, page, "date DESC, created_at DESC", preloadCategory)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of transactions for a specific account.
func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := findAccount(s.db, userID, accountID); err != nil {
		return nil, err
	}
	filter.AccountID = &accountID
	return s.GetUserTransactions(userID, page, filter)
}

func preloadCategory(db *gorm.DB) *gorm.DB {
	return db.Preload("Category")
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", dates.Truncate(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", dates.Truncate(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.TripID != nil {
		q = q.Where("trip_id = ?", *f.TripID)
	}
	// Amount filters compare magnitudes so they read the same for income and expense.
	if f.MinAmount != nil {
		q = q.Where("ABS(amount) >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("ABS(amount) <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return findTransaction(s.db, userID, transactionID)
}

func findTransaction(db *gorm.DB, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction edits an income or expense. Transfer legs are edited
// through their transfer. A type change re-signs the amount.
func (s *transactionService) UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error) {
	transaction, err := findTransaction(s.db, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.TransferID != nil || transaction.Type == models.TransactionTypeTransfer {
		return nil, apperrors.ErrTransactionNotEditable
	}

	newType := transaction.Type
	if in.Type != nil {
		if *in.Type != models.TransactionTypeIncome && *in.Type != models.TransactionTypeExpense {
			return nil, apperrors.ErrInvalidTypeChange
		}
		newType = *in.Type
	}
	magnitude := abs(transaction.Amount)
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		magnitude = *in.Amount
	}
	amount, err := signedAmount(newType, magnitude)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"type":   newType,
		"amount": amount,
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Date != nil {
		updates["date"] = dates.Truncate(*in.Date)
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			updates["category_id"] = *in.CategoryID
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if in.AccountID != nil && *in.AccountID != transaction.AccountID {
			if _, err := findWritableAccount(tx, userID, *in.AccountID); err != nil {
				return err
			}
			updates["account_id"] = *in.AccountID
		}
		if in.CategoryID != nil && *in.CategoryID != "" {
			if err := checkCategory(tx, userID, in.CategoryID); err != nil {
				return err
			}
		}
		if err := tx.Model(transaction).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// Keep a mirrored trip expense in step with its transaction.
		mirror := map[string]interface{}{"amount": magnitude}
		if d, ok := updates["date"]; ok {
			mirror["date"] = d
		}
		if d, ok := updates["description"]; ok {
			mirror["description"] = d
		}
		if a, ok := updates["account_id"]; ok {
			mirror["account_id"] = a
		}
		if err := tx.Model(&models.TripExpense{}).
			Where("transaction_id = ? AND user_id = ?", transaction.ID, userID).
			Updates(mirror).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return findTransaction(s.db, userID, transactionID)
}

// DeleteTransaction deletes a transaction. Deleting a transfer leg deletes the
// whole transfer; a mirrored trip expense goes with its transaction.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := findTransaction(s.db, userID, transactionID)
	if err != nil {
		return err
	}
	if transaction.TransferID != nil {
		return s.DeleteTransfer(userID, *transaction.TransferID)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ? AND user_id = ?", transaction.ID, userID).Delete(&models.TripExpense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.DebtPayment{}).
			Where("transaction_id = ? AND user_id = ?", transaction.ID, userID).
			Update("transaction_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// CreateTransfer moves amount between two of the user's accounts as a
// transfer with a debit leg and a credit leg.
func (s *transactionService) CreateTransfer(userID, fromAccountID, toAccountID string, amount int64, description string, date time.Time) (*models.Transfer, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if description == "" {
		description = defaultTransferDescription
	}
	if date.IsZero() {
		date = time.Now()
	}
	date = dates.Truncate(date)

	transfer := &models.Transfer{
		UserID:        userID,
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
		Description:   description,
		Date:          date,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findWritableAccount(tx, userID, fromAccountID); err != nil {
			return err
		}
		if _, err := findWritableAccount(tx, userID, toAccountID); err != nil {
			return err
		}
		if err := tx.Omit("Legs").Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		legs := []models.Transaction{
			transferLeg(transfer, fromAccountID, -amount),
			transferLeg(transfer, toAccountID, amount),
		}
		if err := tx.Create(&legs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transfer.Legs = legs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func transferLeg(transfer *models.Transfer, accountID string, amount int64) models.Transaction {
	return models.Transaction{
		UserID:      transfer.UserID,
		AccountID:   accountID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Description: transfer.Description,
		Date:        transfer.Date,
		TransferID:  &transfer.ID,
	}
}

// GetTransfer retrieves a transfer with its legs.
func (s *transactionService) GetTransfer(userID, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := s.db.Preload("Legs").Where("id = ? AND user_id = ?", transferID, userID).First(&transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transfer, nil
}

// UpdateTransfer changes a transfer and rewrites both legs together.
func (s *transactionService) UpdateTransfer(userID, transferID string, amount *int64, description *string, date *time.Time) (*models.Transfer, error) {
	transfer, err := s.GetTransfer(userID, transferID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
		transfer.Amount = *amount
	}
	if description != nil && *description != "" {
		updates["description"] = *description
		transfer.Description = *description
	}
	if date != nil {
		updates["date"] = dates.Truncate(*date)
		transfer.Date = dates.Truncate(*date)
	}
	if len(updates) == 0 {
		return transfer, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transfer{}).Where("id = ?", transfer.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, leg := range transfer.Legs {
			signed := transfer.Amount
			if leg.AccountID == transfer.FromAccountID {
				signed = -transfer.Amount
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", leg.ID).Updates(map[string]interface{}{
				"amount":      signed,
				"description": transfer.Description,
				"date":        transfer.Date,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransfer(userID, transferID)
}

// DeleteTransfer removes a transfer and both of its legs.
func (s *transactionService) DeleteTransfer(userID, transferID string) error {
	transfer, err := s.GetTransfer(userID, transferID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transfer_id = ?", transfer.ID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", transfer.ID).Delete(&models.Transfer{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// MonthTotals returns the income and the expense magnitude booked in month.
// Transfers are excluded.
func (s *transactionService) MonthTotals(userID string, month time.Time) (income, expense int64, err error) {
	type total struct {
		Type  models.TransactionType
		Total int64
	}
	var totals []total
	if err := s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND date >= ? AND date <= ? AND type IN ?", userID,
			dates.MonthStart(month), dates.MonthEnd(month),
			[]models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense}).
		Group("type").
		Scan(&totals).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, t := range totals {
		switch t.Type {
		case models.TransactionTypeIncome:
			income = t.Total
		case models.TransactionTypeExpense:
			expense = -t.Total
		}
	}
	return income, expense, nil
}
