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

// tripService manages trips, their savings and their expenses.
type tripService struct {
	db *gorm.DB
}

// NewTripService creates a new TripServicer.
func NewTripService(db *gorm.DB) TripServicer {
	return &tripService{db: db}
}

func validateTrip(in TripInput) error {
	if in.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "trip name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end dates are required")
	}
	if dates.Truncate(in.EndDate).Before(dates.Truncate(in.StartDate)) {
		return apperrors.ErrInvalidTripDates
	}
	if in.Budget < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget must not be negative")
	}
	return nil
}

// CreateTrip creates a trip. Without an explicit status, the status follows
// the trip dates relative to today.
func (s *tripService) CreateTrip(userID string, in TripInput, today time.Time) (*models.Trip, error) {
	if err := validateTrip(in); err != nil {
		return nil, err
	}
	start, end := dates.Truncate(in.StartDate), dates.Truncate(in.EndDate)

	status := models.TripStatusOn(start, end, dates.Truncate(today))
	if in.Status != nil {
		status = *in.Status
	}
	currency := in.Currency
	if currency == "" {
		currency = "EUR"
	}

	trip := &models.Trip{
		UserID:      userID,
		Name:        in.Name,
		Destination: in.Destination,
		StartDate:   start,
		EndDate:     end,
		Budget:      in.Budget,
		Currency:    currency,
		Status:      status,
	}
	if err := s.db.Create(trip).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return trip, nil
}

// GetUserTrips lists trips, soonest first.
func (s *tripService) GetUserTrips(userID string, includeArchived bool, page pagination.PageRequest) (*pagination.PageResponse[models.Trip], error) {
	base := s.db.Model(&models.Trip{}).Where("user_id = ?", userID)
	if !includeArchived {
		base = base.Where("is_archived = ?", false)
	}
	result, err := pagination.Find[models.Trip](base, page, "start_date ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetTripByID retrieves a trip owned by the user.
func (s *tripService) GetTripByID(userID, tripID string) (*models.Trip, error) {
	return findTrip(s.db, userID, tripID)
}

func findTrip(db *gorm.DB, userID, tripID string) (*models.Trip, error) {
	var trip models.Trip
	if err := db.Where("id = ? AND user_id = ?", tripID, userID).First(&trip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTripNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &trip, nil
}

// UpdateTrip replaces the editable fields. A manual status overrides the
// date-driven one.
func (s *tripService) UpdateTrip(userID, tripID string, in TripInput) (*models.Trip, error) {
	trip, err := findTrip(s.db, userID, tripID)
	if err != nil {
		return nil, err
	}
	if err := validateTrip(in); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        in.Name,
		"destination": in.Destination,
		"start_date":  dates.Truncate(in.StartDate),
		"end_date":    dates.Truncate(in.EndDate),
		"budget":      in.Budget,
	}
	if in.Currency != "" {
		updates["currency"] = in.Currency
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if err := s.db.Model(trip).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return findTrip(s.db, userID, tripID)
}

// DeleteTrip removes a trip and its expenses. Mirrored transactions are kept
// but detached from the trip.
func (s *tripService) DeleteTrip(userID, tripID string) error {
	trip, err := findTrip(s.db, userID, tripID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.TripExpense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Transaction{}).Where("trip_id = ?", trip.ID).Update("trip_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(trip).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// SetArchived archives or restores a trip.
func (s *tripService) SetArchived(userID, tripID string, archived bool) (*models.Trip, error) {
	trip, err := findTrip(s.db, userID, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(trip).Update("is_archived", archived).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return findTrip(s.db, userID, tripID)
}

// AddSavings adds amount to what has been put aside for the trip. A negative
// amount withdraws, never below zero.
func (s *tripService) AddSavings(userID, tripID string, amount int64) (*models.Trip, error) {
	if amount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}
	trip, err := findTrip(s.db, userID, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Saved+amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot withdraw more than saved")
	}
	if err := s.db.Model(&models.Trip{}).
		Where("id = ?", trip.ID).
		Update("saved", gorm.Expr("saved + ?", amount)).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return findTrip(s.db, userID, tripID)
}

// GetSummary reports spending against the trip budget and how much must be
// saved per month and per week to reach the budget before the trip starts.
func (s *tripService) GetSummary(userID, tripID string, today time.Time) (*TripSummary, error) {
	trip, err := findTrip(s.db, userID, tripID)
	if err != nil {
		return nil, err
	}

	var spent int64
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND trip_id = ? AND type = ?", userID, trip.ID, models.TransactionTypeExpense).
		Scan(&spent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	spent = -spent

	var expenseCount int64
	if err := s.db.Model(&models.TripExpense{}).Where("trip_id = ?", trip.ID).Count(&expenseCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &TripSummary{
		TripID:          trip.ID,
		Budget:          trip.Budget,
		Spent:           spent,
		Remaining:       trip.Budget - spent,
		Saved:           trip.Saved,
		PercentSaved:    percentOf(trip.Saved, trip.Budget),
		ExpensesCounted: int(expenseCount),
	}
	if toSave := trip.Budget - trip.Saved; toSave > 0 {
		summary.ToSave = toSave
	}

	today = dates.Truncate(today)
	if trip.StartDate.After(today) {
		days := int(trip.StartDate.Sub(today).Hours() / 24)
		summary.DaysUntilStart = days
		summary.WeeksLeft = (days + 6) / 7
		summary.MonthsLeft = dates.MonthsBetween(today, trip.StartDate)
		summary.MonthlySavings = divCeil(summary.ToSave, summary.MonthsLeft)
		summary.WeeklySavings = divCeil(summary.ToSave, summary.WeeksLeft)
	} else {
		summary.MonthlySavings = summary.ToSave
		summary.WeeklySavings = summary.ToSave
	}
	return summary, nil
}

// AddExpense records spending on a trip and mirrors it as an expense
// transaction tagged with the trip.
func (s *tripService) AddExpense(userID, tripID string, in TripExpenseInput) (*models.TripExpense, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = dates.Truncate(date)

	var expense *models.TripExpense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		trip, err := findTrip(tx, userID, tripID)
		if err != nil {
			return err
		}
		if _, err := findWritableAccount(tx, userID, in.AccountID); err != nil {
			return err
		}
		if err := checkCategory(tx, userID, in.CategoryID); err != nil {
			return err
		}

		description := in.Description
		if description == "" {
			description = trip.Name
		}
		txn := &models.Transaction{
			UserID:      userID,
			AccountID:   in.AccountID,
			CategoryID:  in.CategoryID,
			Type:        models.TransactionTypeExpense,
			Amount:      -in.Amount,
			Description: description,
			Date:        date,
			TripID:      &trip.ID,
		}
		if err := tx.Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		expense = &models.TripExpense{
			UserID:        userID,
			TripID:        trip.ID,
			AccountID:     in.AccountID,
			CategoryID:    in.CategoryID,
			TransactionID: &txn.ID,
			Amount:        in.Amount,
			Description:   description,
			Date:          date,
		}
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// GetExpenses lists a trip's expenses, newest first.
func (s *tripService) GetExpenses(userID, tripID string, page pagination.PageRequest) (*pagination.PageResponse[models.TripExpense], error) {
	if _, err := findTrip(s.db, userID, tripID); err != nil {
		return nil, err
	}
	base := s.db.Model(&models.TripExpense{}).Where("trip_id = ? AND user_id = ?", tripID, userID)
	result, err := pagination.Find[models.TripExpense](base, page, "date DESC, created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// DeleteExpense removes a trip expense together with its mirrored transaction.
func (s *tripService) DeleteExpense(userID, tripID, expenseID string) error {
	var expense models.TripExpense
	if err := s.db.Where("id = ? AND trip_id = ? AND user_id = ?", expenseID, tripID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTripExpenseNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if expense.TransactionID != nil {
			if err := tx.Where("id = ? AND user_id = ?", *expense.TransactionID, userID).Delete(&models.Transaction{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Delete(&expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
