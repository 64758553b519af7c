package models

import "time"

// Goal is a savings target.
type Goal struct {
	Base
	UserID        string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string     `gorm:"not null" json:"name"`
	TargetAmount  int64      `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount int64      `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	TargetDate    *time.Time `gorm:"type:date" json:"target_date,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Reached reports whether the target has been met.
func (g *Goal) Reached() bool {
	return g.TargetAmount > 0 && g.CurrentAmount >= g.TargetAmount
}
