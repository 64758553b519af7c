package jobs

import (
	"context"
	"time"

	"finanzas/internal/dates"
	"finanzas/internal/logger"
)

// postRecurringExpenses posts every due occurrence of every active schedule.
// Processed counts posted transactions; a schedule that fails is recorded
// and the others continue.
func (r *Runner) postRecurringExpenses(ctx context.Context, today time.Time, res *RunResult) error {
	due, err := r.fixedExpenses.ListDue(today)
	if err != nil {
		return err
	}

	log := logger.Named("jobs").With("job", RecurringExpenses)
	for i := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		schedule := &due[i]
		posted, err := r.fixedExpenses.PostDue(schedule, today)
		res.Processed += len(posted)
		if err != nil {
			log.Errorw("failed to post fixed expense",
				"fixed_expense_id", schedule.ID,
				"user_id", schedule.UserID,
				"next_due_date", dates.Format(schedule.NextDueDate),
				"error", err,
			)
			res.fail(schedule.ID, err)
		}
	}
	return nil
}
