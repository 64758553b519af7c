package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction is a signed movement on one account: expenses are negative,
// income positive, and transfer legs carry the sign of their direction.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Notes       string          `json:"notes,omitempty"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`

	TripID         *string `gorm:"type:uuid;index" json:"trip_id,omitempty"`
	FixedExpenseID *string `gorm:"type:uuid;index" json:"fixed_expense_id,omitempty"`
	TransferID     *string `gorm:"type:uuid;index" json:"transfer_id,omitempty"`

	Account  *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Transfer moves money between two accounts of the same user. It owns two
// transaction legs (debit on the source, credit on the destination) that are
// always created, edited and deleted together.
type Transfer struct {
	Base
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	FromAccountID string    `gorm:"type:uuid;not null" json:"from_account_id"`
	ToAccountID   string    `gorm:"type:uuid;not null" json:"to_account_id"`
	Amount        int64     `gorm:"type:bigint;not null" json:"amount"`
	Description   string    `json:"description"`
	Date          time.Time `gorm:"type:date;not null" json:"date"`

	Legs []Transaction `gorm:"foreignKey:TransferID" json:"legs,omitempty"`
}
