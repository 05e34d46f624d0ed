package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet Model
type Wallet struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	Name        string          `gorm:"size:64;uniqueIndex;not null" json:"name"`             // Unique display name
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // Cached balance, derived from the ledger
	Color       string          `gorm:"size:16" json:"color"`                                 // Display color
	Icon        string          `gorm:"size:16" json:"icon"`                                  // Display icon
	Type        string          `gorm:"size:32;default:other" json:"type"`                    // cash, ewallet, bank, other
	Description string          `json:"description"`                                          // Free text
	CreatedAt   time.Time       `json:"created_at"`                                           // Creation time
	UpdatedAt   time.Time       `json:"updated_at"`                                           // Last update time
}
