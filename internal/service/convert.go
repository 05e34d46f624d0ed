package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ConvertInput moves money between two wallets, with optional admin fees on either side
type ConvertInput struct {
	Date           time.Time       `json:"date"`
	Source         domain.Ref      `json:"source_wallet"`
	Target         domain.Ref      `json:"target_wallet"`
	Amount         decimal.Decimal `json:"amount"`
	SourceAdminFee decimal.Decimal `json:"source_admin_fee"` // Added to the debit
	TargetAdminFee decimal.Decimal `json:"target_admin_fee"` // Taken from the credit
	Description    string          `json:"description"`      // Optional note appended to both legs
}

// ConvertResult holds both legs of a convert
type ConvertResult struct {
	GroupID string             `json:"convert_group_id"`
	Expense domain.Transaction `json:"expense"`
	Income  domain.Transaction `json:"income"`
}

func (in *ConvertInput) normalize() error {
	if in.Date.IsZero() {
		return domain.Invalid("date", "is required")
	}
	if in.Source.IsZero() {
		return domain.Invalid("source_wallet", "is required")
	}
	if in.Target.IsZero() {
		return domain.Invalid("target_wallet", "is required")
	}
	if in.Source == in.Target {
		return domain.Invalid("target_wallet", "must differ from source wallet")
	}
	in.Amount = domain.Money(in.Amount)
	in.SourceAdminFee = domain.Money(in.SourceAdminFee)
	in.TargetAdminFee = domain.Money(in.TargetAdminFee)
	if !in.Amount.IsPositive() {
		return domain.Invalid("amount", "must be greater than zero")
	}
	if in.SourceAdminFee.IsNegative() {
		return domain.Invalid("source_admin_fee", "must not be negative")
	}
	if in.TargetAdminFee.IsNegative() {
		return domain.Invalid("target_admin_fee", "must not be negative")
	}
	if in.TargetAdminFee.GreaterThan(in.Amount) {
		return domain.Invalid("target_admin_fee", "must not exceed amount")
	}
	in.Date = in.Date.UTC()
	in.Description = strings.TrimSpace(in.Description)
	return nil
}

// legDescription builds "Convert to X (source admin fee: F) - note" style descriptions
func legDescription(direction, wallet, feeLabel string, fee decimal.Decimal, note string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Convert %s %s", direction, wallet)
	if fee.IsPositive() {
		fmt.Fprintf(&b, " (%s admin fee: %s)", feeLabel, fee.StringFixed(2))
	}
	if note != "" {
		b.WriteString(" - ")
		b.WriteString(note)
	}
	return b.String()
}

// Convert debits amount+sourceFee from the source wallet and credits amount-targetFee to the target.
// Both legs and both balance changes commit together or not at all.
func (s *LedgerService) Convert(ctx context.Context, in ConvertInput) (*ConvertResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	debit := in.Amount.Add(in.SourceAdminFee)
	credit := in.Amount.Sub(in.TargetAdminFee)

	var result *ConvertResult
	err := s.mutate(ctx, "convert", func(ctx context.Context, st store.Store) error {
		src, err := st.FindWallet(ctx, in.Source)
		if err != nil {
			return err
		}
		tgt, err := st.FindWallet(ctx, in.Target)
		if err != nil {
			return err
		}
		if src.ID == tgt.ID {
			return domain.Invalid("target_wallet", "must differ from source wallet")
		}
		if domain.Money(src.Balance).LessThan(debit) {
			return &domain.InsufficientBalanceError{
				WalletID:   src.ID,
				WalletName: src.Name,
				Balance:    domain.Money(src.Balance),
				Required:   debit,
			}
		}
		category, err := st.FindCategory(ctx, domain.RefByName(domain.ConvertCategoryName))
		if err != nil {
			return err
		}

		group := uuid.NewString()
		srcID, tgtID := src.ID, tgt.ID
		expense := domain.Transaction{
			Date:           in.Date,
			CategoryID:     category.ID,
			WalletID:       src.ID,
			Amount:         debit,
			Type:           domain.TypeExpense,
			Description:    legDescription("to", tgt.Name, "source", in.SourceAdminFee, in.Description),
			Status:         domain.StatusCompleted,
			SourceWalletID: &srcID,
			TargetWalletID: &tgtID,
			ConvertGroupID: group,
		}
		income := domain.Transaction{
			Date:           in.Date,
			CategoryID:     category.ID,
			WalletID:       tgt.ID,
			Amount:         credit,
			Type:           domain.TypeIncome,
			Description:    legDescription("from", src.Name, "target", in.TargetAdminFee, in.Description),
			Status:         domain.StatusCompleted,
			SourceWalletID: &srcID,
			TargetWalletID: &tgtID,
			ConvertGroupID: group,
		}
		if err := st.InsertTransaction(ctx, &expense); err != nil {
			return err
		}
		if err := st.InsertTransaction(ctx, &income); err != nil {
			return err
		}
		if err := st.AdjustWalletBalance(ctx, src.ID, expense.Delta()); err != nil {
			return err
		}
		if err := st.AdjustWalletBalance(ctx, tgt.ID, income.Delta()); err != nil {
			return err
		}
		src.Balance = src.Balance.Add(expense.Delta())
		tgt.Balance = tgt.Balance.Add(income.Delta())
		expense.Category, expense.Wallet = category, src
		income.Category, income.Wallet = category, tgt
		result = &ConvertResult{GroupID: group, Expense: expense, Income: income}
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"source": in.Source.String(),       // Source wallet reference
			"target": in.Target.String(),       // Target wallet reference
			"amount": in.Amount.StringFixed(2), // Requested amount
			"error":  err.Error(),              // Error message
		}).Error("Failed to convert")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"convert_group_id": result.GroupID,          // Shared by both legs
		"source_wallet_id": result.Expense.WalletID, // Debited wallet
		"target_wallet_id": result.Income.WalletID,  // Credited wallet
		"debit":            debit.StringFixed(2),    // Amount plus source fee
		"credit":           credit.StringFixed(2),   // Amount minus target fee
	}).Info("Convert completed")
	return result, nil
}
