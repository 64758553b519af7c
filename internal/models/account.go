package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
)

// Account represents a financial account in the system. Its balance is not
// stored: it is the initial balance plus the sum of its transactions.
type Account struct {
	Base
	UserID         string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string      `gorm:"not null" json:"name"`
	Type           AccountType `gorm:"not null" json:"type"`
	Description    string      `json:"description"`
	Currency       string      `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	InitialBalance int64       `gorm:"type:bigint;not null;default:0" json:"initial_balance"`
	IsArchived     bool        `gorm:"not null;default:false" json:"is_archived"`
	Color          string      `json:"color,omitempty"`
	Icon           string      `json:"icon,omitempty"`

	// Derived at query time.
	Balance int64 `gorm:"-" json:"balance"`
}
