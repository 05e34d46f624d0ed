package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceCorrection records one drift fix applied by reconciliation
type BalanceCorrection struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	WalletID   uint            `gorm:"not null;index" json:"wallet_id"`
	WalletName string          `gorm:"size:64" json:"wallet_name"`
	OldBalance decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"old_balance"`
	NewBalance decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"new_balance"`
	Difference decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"difference"` // NewBalance - OldBalance
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}
