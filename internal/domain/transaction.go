package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry. The amount is always a magnitude.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is income or expense
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction statuses
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

// Transaction Model
type Transaction struct {
	ID             uint            `gorm:"primaryKey" json:"id"`                            // Primary key
	Date           time.Time       `gorm:"not null;index" json:"date"`                      // Booking date
	CategoryID     uint            `gorm:"not null;index" json:"category_id"`               // Foreign key to Category
	WalletID       uint            `gorm:"not null;index" json:"wallet_id"`                 // Owning wallet for balance accounting
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`       // Absolute magnitude
	Type           TransactionType `gorm:"size:16;not null;index" json:"type"`              // income or expense
	Description    string          `json:"description"`                                     // Free text
	Status         string          `gorm:"size:32" json:"status"`                           // completed, pending
	SourceWalletID *uint           `json:"source_wallet_id,omitempty"`                      // Convert legs only
	TargetWalletID *uint           `json:"target_wallet_id,omitempty"`                      // Convert legs only
	ConvertGroupID string          `gorm:"size:36;index" json:"convert_group_id,omitempty"` // Shared by both legs of one convert
	CreatedAt      time.Time       `json:"created_at"`                                      // Creation time
	UpdatedAt      time.Time       `json:"updated_at"`                                      // Last update time

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // Belongs-to Category
	Wallet   *Wallet   `gorm:"foreignKey:WalletID" json:"wallet,omitempty"`     // Belongs-to Wallet
}

// SignedDelta returns +amount for income and -amount for expense
func SignedDelta(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == TypeIncome {
		return amount
	}
	return amount.Neg()
}

// Delta is the signed effect of this transaction on its wallet balance
func (t Transaction) Delta() decimal.Decimal {
	return SignedDelta(t.Type, t.Amount)
}
