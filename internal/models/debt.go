package models

import "time"

// DebtKind tells which side of the obligation the user is on.
type DebtKind string

const (
	// DebtKindDebt is money the user owes.
	DebtKindDebt DebtKind = "debt"
	// DebtKindLoan is money owed to the user.
	DebtKindLoan DebtKind = "loan"
)

// DebtStatus is the repayment state.
type DebtStatus string

const (
	DebtStatusPending DebtStatus = "pendiente"
	DebtStatusPaid    DebtStatus = "pagada"
	DebtStatusOverdue DebtStatus = "vencida"
)

// Debt is an amount owed by or to the user.
type Debt struct {
	Base
	UserID         string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind           DebtKind   `gorm:"not null;index" json:"kind"`
	Counterparty   string     `gorm:"not null" json:"counterparty"`
	Description    string     `json:"description"`
	InitialAmount  int64      `gorm:"type:bigint;not null" json:"initial_amount"`
	CurrentBalance int64      `gorm:"type:bigint;not null" json:"current_balance"`
	Currency       string     `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Status         DebtStatus `gorm:"not null;default:'pendiente'" json:"status"`
	DueDate        *time.Time `gorm:"type:date" json:"due_date,omitempty"`
	Reminder       bool       `gorm:"not null;default:false" json:"reminder"`

	Payments []DebtPayment `gorm:"foreignKey:DebtID" json:"payments,omitempty"`
}

// DebtPayment records a (partial) repayment.
type DebtPayment struct {
	Base
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	DebtID        string    `gorm:"type:uuid;not null;index" json:"debt_id"`
	Amount        int64     `gorm:"type:bigint;not null" json:"amount"`
	Date          time.Time `gorm:"type:date;not null" json:"date"`
	TransactionID *string   `gorm:"type:uuid" json:"transaction_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}
