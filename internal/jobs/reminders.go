package jobs

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/dates"
	"finanzas/internal/logger"
	"finanzas/internal/models"
)

// sendReminders notifies about fixed expenses and debts coming due within the
// reminder window, and marks pending debts past their due date as overdue.
func (r *Runner) sendReminders(ctx context.Context, today time.Time, res *RunResult) error {
	log := logger.Named("jobs").With("job", Reminders)
	horizon := today.AddDate(0, 0, r.opts.ReminderDaysAhead)

	var schedules []models.FixedExpense
	if err := r.db.Where("is_active = ? AND notify = ? AND next_due_date >= ? AND next_due_date <= ?",
		true, true, today, horizon).
		Find(&schedules).Error; err != nil {
		return err
	}
	for i := range schedules {
		if err := ctx.Err(); err != nil {
			return err
		}
		fe := &schedules[i]
		err := r.notify(&models.Notification{
			UserID:            fe.UserID,
			Type:              models.NotificationFixedExpenseReminder,
			Message:           fmt.Sprintf("%s vence el %s", fe.Description, dates.Format(fe.NextDueDate)),
			RelatedEntityType: "fixed_expense",
			RelatedEntityID:   fe.ID,
			DedupeKey:         dates.Format(fe.NextDueDate),
		})
		if err != nil {
			log.Errorw("failed to remind fixed expense", "fixed_expense_id", fe.ID, "user_id", fe.UserID, "error", err)
			res.fail(fe.ID, err)
			continue
		}
		res.Processed++
	}

	var upcoming []models.Debt
	if err := r.db.Where("reminder = ? AND status = ? AND due_date >= ? AND due_date <= ?",
		true, models.DebtStatusPending, today, horizon).
		Find(&upcoming).Error; err != nil {
		return err
	}
	for i := range upcoming {
		d := &upcoming[i]
		err := r.notify(&models.Notification{
			UserID:            d.UserID,
			Type:              models.NotificationDebtReminder,
			Message:           debtMessage(d, "vence el "+dates.Format(*d.DueDate)),
			RelatedEntityType: "debt",
			RelatedEntityID:   d.ID,
			DedupeKey:         dates.Format(*d.DueDate),
		})
		if err != nil {
			log.Errorw("failed to remind debt", "debt_id", d.ID, "user_id", d.UserID, "error", err)
			res.fail(d.ID, err)
			continue
		}
		res.Processed++
	}

	// Overdue debts already marked are revisited so a notification lost to
	// an earlier failure is still written.
	var overdue []models.Debt
	if err := r.db.Where("status IN ? AND due_date < ?",
		[]models.DebtStatus{models.DebtStatusPending, models.DebtStatusOverdue}, today).
		Find(&overdue).Error; err != nil {
		return err
	}
	for i := range overdue {
		d := &overdue[i]
		if err := r.markOverdue(d); err != nil {
			log.Errorw("failed to mark debt overdue", "debt_id", d.ID, "user_id", d.UserID, "error", err)
			res.fail(d.ID, err)
			continue
		}
		res.Processed++
	}
	return nil
}

func (r *Runner) markOverdue(d *models.Debt) error {
	if d.Status == models.DebtStatusPending {
		if err := r.db.Model(&models.Debt{}).
			Where("id = ? AND status = ?", d.ID, models.DebtStatusPending).
			Update("status", models.DebtStatusOverdue).Error; err != nil {
			return err
		}
	}
	return r.notify(&models.Notification{
		UserID:            d.UserID,
		Type:              models.NotificationDebtOverdue,
		Message:           debtMessage(d, "está vencida"),
		RelatedEntityType: "debt",
		RelatedEntityID:   d.ID,
		DedupeKey:         dates.Format(*d.DueDate),
	})
}

func debtMessage(d *models.Debt, state string) string {
	if d.Kind == models.DebtKindLoan {
		return fmt.Sprintf("El préstamo a %s %s", d.Counterparty, state)
	}
	return fmt.Sprintf("La deuda con %s %s", d.Counterparty, state)
}
