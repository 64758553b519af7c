package models

import "time"

// Notification types written by jobs and in-app actions.
const (
	NotificationBudgetWarning        = "budget_warning"
	NotificationBudgetExceeded       = "budget_exceeded"
	NotificationGoalReached          = "goal_reached"
	NotificationGoalDeadline         = "goal_deadline"
	NotificationFixedExpenseReminder = "fixed_expense_reminder"
	NotificationFixedExpensePosted   = "fixed_expense_posted"
	NotificationDebtReminder         = "debt_reminder"
	NotificationDebtOverdue          = "debt_overdue"
	NotificationTripStatus           = "trip_status"
)

// Notification is a mailbox entry polled by the client.
type Notification struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Type              string    `gorm:"not null" json:"type"`
	Message           string    `gorm:"not null" json:"message"`
	IsRead            bool      `gorm:"not null;default:false" json:"is_read"`
	RelatedEntityType string    `json:"related_entity_type,omitempty"`
	RelatedEntityID   string    `gorm:"index" json:"related_entity_id,omitempty"`
	DedupeKey         string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}
