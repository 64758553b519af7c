package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. Default categories have no
// owner and are visible to every user.
type Category struct {
	Base
	UserID    *string      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	IsDefault bool         `gorm:"not null;default:false" json:"is_default"`
	Name      string       `gorm:"not null" json:"name"`
	Type      CategoryType `gorm:"not null" json:"type"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	ParentID  *string      `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}
