package models

import "time"

// Budget caps spending on a category for one calendar month.
type Budget struct {
	Base
	UserID      string    `gorm:"type:uuid;not null;uniqueIndex:uq_budget_user_category_period" json:"user_id"`
	CategoryID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_budget_user_category_period" json:"category_id"`
	Amount      int64     `gorm:"type:bigint;not null" json:"amount"`
	PeriodStart time.Time `gorm:"type:date;not null;uniqueIndex:uq_budget_user_category_period" json:"period_start"`
	PeriodEnd   time.Time `gorm:"type:date;not null" json:"period_end"`
	Rollover    bool      `gorm:"not null;default:false" json:"rollover"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
