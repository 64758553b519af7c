package models

import (
	"time"

	"finanzas/internal/recurrence"
)

// FixedExpense is a recurring obligation (rent, subscription) that the
// recurring-expenses job posts as an expense transaction on each due date.
type FixedExpense struct {
	Base
	UserID      string               `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string               `gorm:"type:uuid;not null" json:"account_id"`
	CategoryID  *string              `gorm:"type:uuid" json:"category_id,omitempty"`
	Description string               `gorm:"not null" json:"description"`
	Amount      int64                `gorm:"type:bigint;not null" json:"amount"`
	Frequency   recurrence.Frequency `gorm:"not null" json:"frequency"`
	NextDueDate time.Time            `gorm:"type:date;not null;index" json:"next_due_date"`
	DayOfMonth  *int                 `json:"day_of_month,omitempty"`
	IsActive    bool                 `gorm:"not null;default:true;index" json:"is_active"`
	Notify      bool                 `gorm:"not null;default:false" json:"notify"`

	LastPaymentProcessedOn *time.Time `gorm:"type:date" json:"last_payment_processed_on,omitempty"`
}

// Anchor returns the configured day of month, or 0 when unset.
func (f *FixedExpense) Anchor() int {
	if f.DayOfMonth == nil {
		return 0
	}
	return *f.DayOfMonth
}
