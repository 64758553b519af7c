package jobs

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/logger"
	"finanzas/internal/models"
)

var tripStatusMessages = map[models.TripStatus]string{
	models.TripStatusInProgress: "¡Tu viaje %s ha comenzado!",
	models.TripStatusFinished:   "Tu viaje %s ha finalizado",
}

// advanceTrips moves non-archived trips forward through their statuses
// according to today's date. A trip never moves backwards.
func (r *Runner) advanceTrips(ctx context.Context, today time.Time, res *RunResult) error {
	var trips []models.Trip
	if err := r.db.Where("is_archived = ? AND status <> ?", false, models.TripStatusFinished).
		Find(&trips).Error; err != nil {
		return err
	}

	log := logger.Named("jobs").With("job", TripStatus)
	for i := range trips {
		if err := ctx.Err(); err != nil {
			return err
		}
		trip := &trips[i]
		target := models.TripStatusOn(trip.StartDate, trip.EndDate, today)
		if target.Rank() <= trip.Status.Rank() {
			continue
		}
		if err := r.advanceTrip(trip, target); err != nil {
			log.Errorw("failed to advance trip", "trip_id", trip.ID, "user_id", trip.UserID, "error", err)
			res.fail(trip.ID, err)
			continue
		}
		res.Processed++
	}
	return nil
}

func (r *Runner) advanceTrip(trip *models.Trip, target models.TripStatus) error {
	result := r.db.Model(&models.Trip{}).
		Where("id = ? AND status = ?", trip.ID, trip.Status).
		Update("status", target)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return nil
	}
	return r.notify(&models.Notification{
		UserID:            trip.UserID,
		Type:              models.NotificationTripStatus,
		Message:           fmt.Sprintf(tripStatusMessages[target], trip.Name),
		RelatedEntityType: "trip",
		RelatedEntityID:   trip.ID,
		DedupeKey:         string(target),
	})
}
