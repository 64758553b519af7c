package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/metrics"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/recurrence"
)

// MaxCatchUp bounds how many missed occurrences one schedule posts per run.
const MaxCatchUp = 36

// fixedExpenseService manages fixed expense schedules and posts their occurrences.
type fixedExpenseService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewFixedExpenseService creates a new FixedExpenseServicer. m may be nil.
func NewFixedExpenseService(db *gorm.DB, m *metrics.Metrics) FixedExpenseServicer {
	return &fixedExpenseService{db: db, metrics: m}
}

func validateFixedExpense(in FixedExpenseInput) error {
	if in.Description == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !in.Frequency.Valid() {
		return apperrors.ErrInvalidFrequency
	}
	if in.NextDueDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "next due date is required")
	}
	if in.DayOfMonth != nil && (*in.DayOfMonth < 1 || *in.DayOfMonth > 31) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "day of month must be between 1 and 31")
	}
	return nil
}

// CreateFixedExpense creates a new active schedule.
func (s *fixedExpenseService) CreateFixedExpense(userID string, in FixedExpenseInput) (*models.FixedExpense, error) {
	if err := validateFixedExpense(in); err != nil {
		return nil, err
	}
	if _, err := findWritableAccount(s.db, userID, in.AccountID); err != nil {
		return nil, err
	}
	if err := checkCategory(s.db, userID, in.CategoryID); err != nil {
		return nil, err
	}

	fe := &models.FixedExpense{
		UserID:      userID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Amount:      in.Amount,
		Frequency:   in.Frequency,
		NextDueDate: dates.Truncate(in.NextDueDate),
		DayOfMonth:  in.DayOfMonth,
		IsActive:    true,
		Notify:      in.Notify,
	}
	if err := s.db.Create(fe).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fe, nil
}

// GetUserFixedExpenses lists schedules ordered by next due date.
func (s *fixedExpenseService) GetUserFixedExpenses(userID string, activeOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.FixedExpense], error) {
	base := s.db.Model(&models.FixedExpense{}).Where("user_id = ?", userID)
	if activeOnly {
		base = base.Where("is_active = ?", true)
	}
	result, err := pagination.Find[models.FixedExpense](base, page, "next_due_date ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetFixedExpenseByID retrieves a schedule owned by the user.
func (s *fixedExpenseService) GetFixedExpenseByID(userID, fixedExpenseID string) (*models.FixedExpense, error) {
	var fe models.FixedExpense
	if err := s.db.Where("id = ? AND user_id = ?", fixedExpenseID, userID).First(&fe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFixedExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fe, nil
}

// UpdateFixedExpense replaces the editable fields of a schedule.
func (s *fixedExpenseService) UpdateFixedExpense(userID, fixedExpenseID string, in FixedExpenseInput) (*models.FixedExpense, error) {
	fe, err := s.GetFixedExpenseByID(userID, fixedExpenseID)
	if err != nil {
		return nil, err
	}
	if err := validateFixedExpense(in); err != nil {
		return nil, err
	}
	if fe.LastPaymentProcessedOn != nil && !dates.Truncate(in.NextDueDate).After(*fe.LastPaymentProcessedOn) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"next due date must be after the last processed date "+dates.Format(*fe.LastPaymentProcessedOn))
	}
	if in.AccountID != fe.AccountID {
		if _, err := findWritableAccount(s.db, userID, in.AccountID); err != nil {
			return nil, err
		}
	}
	if err := checkCategory(s.db, userID, in.CategoryID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"account_id":    in.AccountID,
		"category_id":   in.CategoryID,
		"description":   in.Description,
		"amount":        in.Amount,
		"frequency":     in.Frequency,
		"next_due_date": dates.Truncate(in.NextDueDate),
		"day_of_month":  in.DayOfMonth,
		"notify":        in.Notify,
	}
	if err := s.db.Model(fe).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetFixedExpenseByID(userID, fixedExpenseID)
}

// DeleteFixedExpense removes a schedule. Posted transactions are kept.
func (s *fixedExpenseService) DeleteFixedExpense(userID, fixedExpenseID string) error {
	fe, err := s.GetFixedExpenseByID(userID, fixedExpenseID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(fe).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SetActive pauses or resumes a schedule. A resumed recurring schedule skips
// the occurrences missed while paused: its next due date moves to the first
// occurrence on or after today. A posted one-time schedule cannot be resumed.
func (s *fixedExpenseService) SetActive(userID, fixedExpenseID string, active bool, today time.Time) (*models.FixedExpense, error) {
	fe, err := s.GetFixedExpenseByID(userID, fixedExpenseID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_active": active}
	if active && !fe.IsActive {
		if !fe.Frequency.Recurring() && fe.LastPaymentProcessedOn != nil {
			return nil, apperrors.ErrFixedExpenseDone
		}
		if next := skipMissed(fe, dates.Truncate(today)); !next.Equal(fe.NextDueDate) {
			updates["next_due_date"] = next
		}
	}
	if err := s.db.Model(fe).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetFixedExpenseByID(userID, fixedExpenseID)
}

// skipMissed returns the first occurrence of fe on or after today, or its
// current next due date when that is not in the past.
func skipMissed(fe *models.FixedExpense, today time.Time) time.Time {
	due := dates.Truncate(fe.NextDueDate)
	for due.Before(today) {
		next, ok := recurrence.Next(due, fe.Frequency, fe.Anchor())
		if !ok {
			break
		}
		due = next
	}
	return due
}

// Preview returns the next n due dates of a schedule, starting at its next due date.
func (s *fixedExpenseService) Preview(userID, fixedExpenseID string, n int) ([]time.Time, error) {
	fe, err := s.GetFixedExpenseByID(userID, fixedExpenseID)
	if err != nil {
		return nil, err
	}
	if !fe.IsActive {
		return []time.Time{}, nil
	}
	return recurrence.Upcoming(fe.NextDueDate, fe.Frequency, fe.Anchor(), n), nil
}

// PostNow pays the schedule's current occurrence ahead of the job. The
// transaction is dated today when the due date is still in the future.
func (s *fixedExpenseService) PostNow(userID, fixedExpenseID string, today time.Time) (*models.Transaction, error) {
	fe, err := s.GetFixedExpenseByID(userID, fixedExpenseID)
	if err != nil {
		return nil, err
	}
	if !fe.IsActive {
		return nil, apperrors.ErrFixedExpenseInactive
	}

	bookDate := fe.NextDueDate
	if today = dates.Truncate(today); bookDate.After(today) {
		bookDate = today
	}
	posted, claimed, err := s.postOccurrence(fe, bookDate)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperrors.ErrNothingDue
	}
	s.metrics.IncrementPostings(1)
	return posted, nil
}

// Upcoming lists the user's active schedules due between from and to inclusive.
func (s *fixedExpenseService) Upcoming(userID string, from, to time.Time) ([]models.FixedExpense, error) {
	var out []models.FixedExpense
	if err := s.db.Where("user_id = ? AND is_active = ? AND next_due_date >= ? AND next_due_date <= ?",
		userID, true, dates.Truncate(from), dates.Truncate(to)).
		Order("next_due_date ASC").
		Find(&out).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return out, nil
}

// ListDue returns every active schedule, across users, due on or before today.
func (s *fixedExpenseService) ListDue(today time.Time) ([]models.FixedExpense, error) {
	var due []models.FixedExpense
	if err := s.db.Where("is_active = ? AND next_due_date <= ?", true, dates.Truncate(today)).
		Order("next_due_date ASC, id ASC").
		Find(&due).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return due, nil
}

// PostDue posts every occurrence of schedule due on or before today, oldest
// first, up to MaxCatchUp. Each occurrence is claimed and recorded in its own
// database transaction. It stops early when another run has claimed the
// schedule. schedule is updated to reflect the last successful posting.
func (s *fixedExpenseService) PostDue(schedule *models.FixedExpense, today time.Time) ([]models.Transaction, error) {
	today = dates.Truncate(today)
	var posted []models.Transaction

	for i := 0; i < MaxCatchUp && schedule.IsActive && !schedule.NextDueDate.After(today); i++ {
		txn, claimed, err := s.postOccurrence(schedule, schedule.NextDueDate)
		if err != nil {
			s.metrics.IncrementPostings(len(posted))
			return posted, err
		}
		if !claimed {
			break
		}
		posted = append(posted, *txn)
	}
	s.metrics.IncrementPostings(len(posted))
	return posted, nil
}

// postOccurrence claims the occurrence at schedule.NextDueDate and records its
// expense dated bookDate. The claim is a compare-and-swap on next_due_date and
// is_active: when no row matches, another writer got there first and claimed
// is false. The claim and the insert commit or roll back together.
func (s *fixedExpenseService) postOccurrence(schedule *models.FixedExpense, bookDate time.Time) (*models.Transaction, bool, error) {
	due := dates.Truncate(schedule.NextDueDate)
	next, recurring := recurrence.Next(due, schedule.Frequency, schedule.Anchor())

	claim := map[string]interface{}{
		"last_payment_processed_on": due,
	}
	if recurring {
		claim["next_due_date"] = next
	} else {
		claim["is_active"] = false
	}

	txn := &models.Transaction{
		UserID:         schedule.UserID,
		AccountID:      schedule.AccountID,
		CategoryID:     schedule.CategoryID,
		Type:           models.TransactionTypeExpense,
		Amount:         -schedule.Amount,
		Description:    schedule.Description,
		Date:           dates.Truncate(bookDate),
		FixedExpenseID: &schedule.ID,
	}

	claimed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FixedExpense{}).
			Where("id = ? AND is_active = ? AND next_due_date = ?", schedule.ID, true, due).
			Updates(claim)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		if schedule.Notify {
			if _, err := createNotificationOnce(tx, &models.Notification{
				UserID:            schedule.UserID,
				Type:              models.NotificationFixedExpensePosted,
				Message:           fmt.Sprintf("Se registró el pago de %s", schedule.Description),
				RelatedEntityType: "fixed_expense",
				RelatedEntityID:   schedule.ID,
				DedupeKey:         dates.Format(due),
			}); err != nil {
				return err
			}
		}
		claimed = true
		return nil
	})
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !claimed {
		return nil, false, nil
	}

	processed := due
	schedule.LastPaymentProcessedOn = &processed
	if recurring {
		schedule.NextDueDate = next
	} else {
		schedule.IsActive = false
	}
	return txn, true, nil
}
