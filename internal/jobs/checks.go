package jobs

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/dates"
	"finanzas/internal/logger"
	"finanzas/internal/models"
	"finanzas/internal/services"
)

// checkBudgets warns about budgets of today's month that crossed the warning
// threshold and about budgets that were exceeded. Each budget gets at most
// one notification per threshold and month.
func (r *Runner) checkBudgets(ctx context.Context, today time.Time, res *RunResult) error {
	var budgets []models.Budget
	if err := r.db.Preload("Category").
		Where("period_start = ?", dates.MonthStart(today)).
		Find(&budgets).Error; err != nil {
		return err
	}

	log := logger.Named("jobs").With("job", BudgetAlerts)
	month := today.Format("2006-01")
	for i := range budgets {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := &budgets[i]
		if err := r.checkBudget(b, month); err != nil {
			log.Errorw("failed to check budget", "budget_id", b.ID, "user_id", b.UserID, "error", err)
			res.fail(b.ID, err)
			continue
		}
		res.Processed++
	}
	return nil
}

func (r *Runner) checkBudget(b *models.Budget, month string) error {
	p, err := r.budgets.Progress(b)
	if err != nil {
		return err
	}

	name := "sin categoría"
	if b.Category != nil {
		name = b.Category.Name
	}

	var n *models.Notification
	switch {
	case p.Spent > 0 && p.Spent >= p.Available:
		n = &models.Notification{
			Type:    models.NotificationBudgetExceeded,
			Message: fmt.Sprintf("Has superado el presupuesto de %s", name),
		}
	case p.Available > 0 && p.Spent*100 >= p.Available*int64(r.opts.BudgetWarningPercent):
		n = &models.Notification{
			Type:    models.NotificationBudgetWarning,
			Message: fmt.Sprintf("Has usado el %.0f%% del presupuesto de %s", p.Percentage, name),
		}
	default:
		return nil
	}
	n.UserID = b.UserID
	n.RelatedEntityType = "budget"
	n.RelatedEntityID = b.ID
	n.DedupeKey = month
	return r.notify(n)
}

// checkGoals completes goals that reached their target and warns about open
// goals whose target date is within the reminder window.
func (r *Runner) checkGoals(ctx context.Context, today time.Time, res *RunResult) error {
	log := logger.Named("jobs").With("job", GoalCheck)

	var reached []models.Goal
	if err := r.db.Where("completed_at IS NULL AND target_amount > 0 AND current_amount >= target_amount").
		Find(&reached).Error; err != nil {
		return err
	}
	for i := range reached {
		if err := ctx.Err(); err != nil {
			return err
		}
		g := &reached[i]
		if err := r.completeGoal(g); err != nil {
			log.Errorw("failed to complete goal", "goal_id", g.ID, "user_id", g.UserID, "error", err)
			res.fail(g.ID, err)
			continue
		}
		res.Processed++
	}

	var closing []models.Goal
	if err := r.db.Where("completed_at IS NULL AND current_amount < target_amount AND target_date >= ? AND target_date <= ?",
		today, today.AddDate(0, 0, r.opts.ReminderDaysAhead)).
		Find(&closing).Error; err != nil {
		return err
	}
	for i := range closing {
		g := &closing[i]
		err := r.notify(&models.Notification{
			UserID:            g.UserID,
			Type:              models.NotificationGoalDeadline,
			Message:           fmt.Sprintf("La meta %s vence el %s", g.Name, dates.Format(*g.TargetDate)),
			RelatedEntityType: "goal",
			RelatedEntityID:   g.ID,
			DedupeKey:         dates.Format(today),
		})
		if err != nil {
			log.Errorw("failed to notify goal deadline", "goal_id", g.ID, "user_id", g.UserID, "error", err)
			res.fail(g.ID, err)
			continue
		}
		res.Processed++
	}
	return nil
}

func (r *Runner) completeGoal(g *models.Goal) error {
	if err := r.db.Model(&models.Goal{}).
		Where("id = ? AND completed_at IS NULL", g.ID).
		Update("completed_at", time.Now()).Error; err != nil {
		return err
	}
	return r.notify(services.GoalReachedNotification(g))
}
