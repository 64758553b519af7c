package models

import "time"

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusPlanned    TripStatus = "planificado"
	TripStatusInProgress TripStatus = "en curso"
	TripStatusFinished   TripStatus = "finalizado"
)

// Rank orders statuses so transitions can be kept monotonic.
func (s TripStatus) Rank() int {
	switch s {
	case TripStatusPlanned:
		return 0
	case TripStatusInProgress:
		return 1
	case TripStatusFinished:
		return 2
	}
	return -1
}

// TripStatusOn returns the status a trip spanning start..end has on day.
func TripStatusOn(start, end, day time.Time) TripStatus {
	switch {
	case day.Before(start):
		return TripStatusPlanned
	case day.After(end):
		return TripStatusFinished
	default:
		return TripStatusInProgress
	}
}

// Trip is a planned journey with its own budget and savings.
type Trip struct {
	Base
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string     `gorm:"not null" json:"name"`
	Destination string     `json:"destination"`
	StartDate   time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time  `gorm:"type:date;not null" json:"end_date"`
	Budget      int64      `gorm:"type:bigint;not null;default:0" json:"budget"`
	Saved       int64      `gorm:"type:bigint;not null;default:0" json:"saved"`
	Currency    string     `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Status      TripStatus `gorm:"not null;default:'planificado'" json:"status"`
	IsArchived  bool       `gorm:"not null;default:false" json:"is_archived"`
}

// TripExpense is spending attributed to a trip, mirrored into a transaction.
type TripExpense struct {
	Base
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	TripID        string    `gorm:"type:uuid;not null;index" json:"trip_id"`
	AccountID     string    `gorm:"type:uuid;not null" json:"account_id"`
	CategoryID    *string   `gorm:"type:uuid" json:"category_id,omitempty"`
	TransactionID *string   `gorm:"type:uuid" json:"transaction_id,omitempty"`
	Amount        int64     `gorm:"type:bigint;not null" json:"amount"`
	Description   string    `json:"description"`
	Date          time.Time `gorm:"type:date;not null" json:"date"`
}
