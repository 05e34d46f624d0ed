package domain

import "time"

// CategoryType classifies a category
type CategoryType string

const (
	CategoryIncome   CategoryType = "income"
	CategoryExpense  CategoryType = "expense"
	CategoryTransfer CategoryType = "transfer"
	CategoryConvert  CategoryType = "convert"
)

// ConvertCategoryName is the reserved category every convert leg is booked against.
const ConvertCategoryName = "CONVERT"

// Valid reports whether t is a known category type
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryIncome, CategoryExpense, CategoryTransfer, CategoryConvert:
		return true
	}
	return false
}

// Category Model
type Category struct {
	ID          uint         `gorm:"primaryKey" json:"id"`                     // Primary key
	Name        string       `gorm:"size:64;uniqueIndex;not null" json:"name"` // Unique display name
	Color       string       `gorm:"size:16" json:"color"`                     // Display color
	Type        CategoryType `gorm:"size:16;not null" json:"type"`             // income, expense, transfer, convert
	Icon        string       `gorm:"size:16" json:"icon"`                      // Display icon
	Description string       `json:"description"`                              // Free text
	CreatedAt   time.Time    `json:"created_at"`                               // Creation time
	UpdatedAt   time.Time    `json:"updated_at"`                               // Last update time
}

// IsConvertSentinel reports whether c is the reserved convert category
func (c Category) IsConvertSentinel() bool {
	return c.Name == ConvertCategoryName
}
