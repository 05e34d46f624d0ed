package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MoneyPlaces is the scale every stored amount and balance is kept at
const MoneyPlaces = 2

// Money rounds d to cents. SQLite hands decimal columns back as float64, so reads can
// carry binary noise such as 0.7999999999999999.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// AfterFind normalises the balance read from storage
func (w *Wallet) AfterFind(*gorm.DB) error {
	w.Balance = Money(w.Balance)
	return nil
}

// AfterFind normalises the amount read from storage
func (t *Transaction) AfterFind(*gorm.DB) error {
	t.Amount = Money(t.Amount)
	return nil
}

// AfterFind normalises the recorded balances read from storage
func (c *BalanceCorrection) AfterFind(*gorm.DB) error {
	c.OldBalance = Money(c.OldBalance)
	c.NewBalance = Money(c.NewBalance)
	c.Difference = Money(c.Difference)
	return nil
}
