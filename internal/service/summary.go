package service

import (
	"context"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/store"

	"github.com/shopspring/decimal"
)

// Summary is the dashboard view: ledger totals plus current wallet balances
type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetBalance   decimal.Decimal `json:"net_balance"`
	Wallets      []domain.Wallet `json:"wallets"`
}

// GetSummary totals every transaction and lists wallet balances.
// A throttled reconciliation runs first so the balances shown agree with the ledger.
func (s *LedgerService) GetSummary(ctx context.Context) (*Summary, error) {
	s.reconciler.MaybeReconcile(ctx)

	return cached(ctx, s.base, summaryCacheKey, func() (*Summary, error) {
		var (
			txs     []domain.Transaction
			wallets []domain.Wallet
		)
		err := s.retry(ctx, "summary", func() error {
			var err error
			if txs, err = s.store.FindTransactions(ctx, store.TransactionFilter{}); err != nil {
				return err
			}
			wallets, err = s.store.ListWallets(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}

		sum := &Summary{Wallets: wallets}
		if sum.Wallets == nil {
			sum.Wallets = []domain.Wallet{}
		}
		for _, tx := range txs {
			switch tx.Type {
			case domain.TypeIncome:
				sum.TotalIncome = sum.TotalIncome.Add(tx.Amount)
			case domain.TypeExpense:
				sum.TotalExpense = sum.TotalExpense.Add(tx.Amount)
			}
		}
		sum.NetBalance = sum.TotalIncome.Sub(sum.TotalExpense)
		return sum, nil
	})
}
