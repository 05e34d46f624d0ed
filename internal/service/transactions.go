package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LedgerService owns every write to transactions and wallet balances
type LedgerService struct {
	*base
	reconciler *Reconciler
}

// TransactionInput is the full set of caller-editable transaction fields.
// Update replaces all of them; there are no partial updates.
type TransactionInput struct {
	Date        time.Time              `json:"date"`
	Category    domain.Ref             `json:"category"`
	Wallet      domain.Ref             `json:"wallet"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
}

func (in *TransactionInput) normalize() error {
	if in.Date.IsZero() {
		return domain.Invalid("date", "is required")
	}
	if in.Category.IsZero() {
		return domain.Invalid("category", "is required")
	}
	if in.Wallet.IsZero() {
		return domain.Invalid("wallet", "is required")
	}
	in.Amount = domain.Money(in.Amount)
	if !in.Amount.IsPositive() {
		return domain.Invalid("amount", "must be greater than zero")
	}
	if !in.Type.Valid() {
		return domain.Invalid("type", "must be %q or %q", domain.TypeIncome, domain.TypeExpense)
	}
	switch in.Status {
	case "":
		in.Status = domain.StatusCompleted
	case domain.StatusCompleted, domain.StatusPending:
	default:
		return domain.Invalid("status", "must be %q or %q", domain.StatusCompleted, domain.StatusPending)
	}
	in.Date = in.Date.UTC()
	in.Description = strings.TrimSpace(in.Description)
	return nil
}

// resolve looks up the category and wallet an input points at
func (in TransactionInput) resolve(ctx context.Context, st store.Store) (*domain.Category, *domain.Wallet, error) {
	category, err := st.FindCategory(ctx, in.Category)
	if err != nil {
		return nil, nil, err
	}
	wallet, err := st.FindWallet(ctx, in.Wallet)
	if err != nil {
		return nil, nil, err
	}
	return category, wallet, nil
}

// errConvertReserved rejects ordinary entries booked against the convert category
func errConvertReserved() error {
	return domain.Invalid("category", "%s is reserved for converts", domain.ConvertCategoryName)
}

// checkConvertLeg rejects edits that would detach a convert leg from its pair.
// Plain entries may not be moved into the convert category either.
func checkConvertLeg(orig *domain.Transaction, category *domain.Category, wallet *domain.Wallet, typ domain.TransactionType) error {
	if orig.ConvertGroupID == "" {
		if category.IsConvertSentinel() {
			return errConvertReserved()
		}
		return nil
	}
	switch {
	case wallet.ID != orig.WalletID:
		return domain.Invalid("wallet", "a convert leg cannot move to another wallet")
	case typ != orig.Type:
		return domain.Invalid("type", "a convert leg cannot change direction")
	case category.ID != orig.CategoryID:
		return domain.Invalid("category", "a convert leg must keep the %s category", domain.ConvertCategoryName)
	}
	return nil
}

// CreateTransaction records one income or expense and applies its delta to the owning wallet
func (s *LedgerService) CreateTransaction(ctx context.Context, in TransactionInput) (*domain.Transaction, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var created *domain.Transaction
	err := s.mutate(ctx, "create_transaction", func(ctx context.Context, st store.Store) error {
		category, wallet, err := in.resolve(ctx, st)
		if err != nil {
			return err
		}
		if category.IsConvertSentinel() {
			return errConvertReserved()
		}
		tx := &domain.Transaction{
			Date:        in.Date,
			CategoryID:  category.ID,
			WalletID:    wallet.ID,
			Amount:      in.Amount,
			Type:        in.Type,
			Description: in.Description,
			Status:      in.Status,
		}
		if err := st.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		if err := st.AdjustWalletBalance(ctx, wallet.ID, tx.Delta()); err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Add(tx.Delta())
		tx.Category, tx.Wallet = category, wallet
		created = tx
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"wallet": in.Wallet.String(), // Wallet reference as given
			"error":  err.Error(),        // Error message
		}).Error("Failed to create transaction")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": created.ID,                    // New transaction ID
		"wallet_id":      created.WalletID,              // Owning wallet
		"type":           created.Type,                  // income or expense
		"amount":         created.Amount.StringFixed(2), // Magnitude
	}).Info("Transaction created")
	return created, nil
}

// UpdateTransaction replaces a transaction and moves its balance effect.
// When the wallet is unchanged only the difference between old and new delta is applied;
// when it changes, the old wallet is fully reverted and the new one fully applied.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id uint, in TransactionInput) (*domain.Transaction, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var updated *domain.Transaction
	err := s.mutate(ctx, "update_transaction", func(ctx context.Context, st store.Store) error {
		orig, err := st.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		category, wallet, err := in.resolve(ctx, st)
		if err != nil {
			return err
		}
		if err := checkConvertLeg(orig, category, wallet, in.Type); err != nil {
			return err
		}
		oldDelta := orig.Delta()

		tx := *orig
		tx.Date = in.Date
		tx.CategoryID = category.ID
		tx.WalletID = wallet.ID
		tx.Amount = in.Amount
		tx.Type = in.Type
		tx.Description = in.Description
		tx.Status = in.Status
		tx.Category, tx.Wallet = nil, nil
		if err := st.UpdateTransaction(ctx, &tx); err != nil {
			return err
		}
		newDelta := tx.Delta()

		if orig.WalletID == wallet.ID {
			if diff := newDelta.Sub(oldDelta); !diff.IsZero() {
				if err := st.AdjustWalletBalance(ctx, wallet.ID, diff); err != nil {
					return err
				}
				wallet.Balance = wallet.Balance.Add(diff)
			}
		} else {
			if err := st.AdjustWalletBalance(ctx, orig.WalletID, oldDelta.Neg()); err != nil {
				return err
			}
			if err := st.AdjustWalletBalance(ctx, wallet.ID, newDelta); err != nil {
				return err
			}
			wallet.Balance = wallet.Balance.Add(newDelta)
		}
		tx.Category, tx.Wallet = category, wallet
		updated = &tx
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"transaction_id": id,          // Transaction being updated
			"error":          err.Error(), // Error message
		}).Error("Failed to update transaction")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": updated.ID,       // Updated transaction
		"wallet_id":      updated.WalletID, // Owning wallet after update
	}).Info("Transaction updated")
	return updated, nil
}

// DeleteTransaction removes a transaction and reverts its effect on the owning wallet.
// A full reconciliation is scheduled afterwards when configured.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id uint) error {
	var deleted domain.Transaction
	err := s.mutate(ctx, "delete_transaction", func(ctx context.Context, st store.Store) error {
		tx, err := st.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := st.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		if err := st.AdjustWalletBalance(ctx, tx.WalletID, tx.Delta().Neg()); err != nil {
			return err
		}
		deleted = *tx
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"transaction_id": id,          // Transaction being deleted
			"error":          err.Error(), // Error message
		}).Error("Failed to delete transaction")
		return err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": id,                            // Deleted transaction
		"wallet_id":      deleted.WalletID,              // Wallet that got the amount back
		"amount":         deleted.Amount.StringFixed(2), // Magnitude
	}).Info("Transaction deleted")

	if s.cfg.ReconcileAfterDelete {
		s.reconciler.Schedule()
	}
	return nil
}

// Periods accepted by ListTransactions
const (
	PeriodAll       = "all"
	PeriodThisMonth = "this-month"
	PeriodLastMonth = "last-month"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListQuery filters, sorts and pages the transaction list
type ListQuery struct {
	Period     string                 `json:"period"`      // all, this-month, last-month
	From       *time.Time             `json:"from"`        // Inclusive, overrides Period
	To         *time.Time             `json:"to"`          // Inclusive, overrides Period
	WalletID   uint                   `json:"wallet_id"`   // Owning wallet
	CategoryID uint                   `json:"category_id"` // Category
	Type       domain.TransactionType `json:"type"`        // income or expense
	SortBy     string                 `json:"sort_by"`     // date, amount, category, wallet
	Order      string                 `json:"order"`       // asc or desc
	Page       int                    `json:"page"`        // 1-based
	PageSize   int                    `json:"page_size"`   // At most 100
}

// TransactionPage is one page of the transaction list
type TransactionPage struct {
	Transactions []domain.Transaction `json:"transactions"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	Total        int64                `json:"total"`
	TotalPages   int                  `json:"total_pages"`
}

// filter validates q and turns it into a store filter
func (s *LedgerService) filter(q *ListQuery) (store.TransactionFilter, error) {
	f := store.TransactionFilter{WalletID: q.WalletID, CategoryID: q.CategoryID, Type: q.Type}

	if q.Type != "" && !q.Type.Valid() {
		return f, domain.Invalid("type", "must be %q or %q", domain.TypeIncome, domain.TypeExpense)
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	switch q.Period {
	case "", PeriodAll:
	case PeriodThisMonth:
		from, to := monthStart, monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)
		f.From, f.To = &from, &to
	case PeriodLastMonth:
		from, to := monthStart.AddDate(0, -1, 0), monthStart.Add(-time.Nanosecond)
		f.From, f.To = &from, &to
	default:
		return f, domain.Invalid("period", "must be one of %s, %s, %s", PeriodAll, PeriodThisMonth, PeriodLastMonth)
	}
	if q.From != nil {
		from := q.From.UTC()
		f.From = &from
	}
	if q.To != nil {
		to := q.To.UTC()
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, domain.Invalid("from", "must not be after to")
	}

	switch q.SortBy {
	case "":
		q.SortBy = store.SortByDate
	case store.SortByDate, store.SortByAmount, store.SortByCategory, store.SortByWallet:
	default:
		return f, domain.Invalid("sort_by", "unknown sort key %q", q.SortBy)
	}
	f.SortBy = q.SortBy

	switch strings.ToLower(q.Order) {
	case "", "desc":
		q.Order = "desc"
		f.Desc = true
	case "asc":
		q.Order = "asc"
	default:
		return f, domain.Invalid("order", "must be asc or desc")
	}

	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = defaultPageSize
	case q.PageSize > maxPageSize:
		q.PageSize = maxPageSize
	}
	f.Offset = (q.Page - 1) * q.PageSize
	f.Limit = q.PageSize
	return f, nil
}

// ListTransactions returns one page of transactions with category and wallet attached
func (s *LedgerService) ListTransactions(ctx context.Context, q ListQuery) (*TransactionPage, error) {
	f, err := s.filter(&q)
	if err != nil {
		return nil, err
	}
	key := txListCachePrefix + listCacheKey(f)
	page, err := cached(ctx, s.base, key, func() (*TransactionPage, error) {
		page := &TransactionPage{Page: q.Page, PageSize: q.PageSize, Transactions: []domain.Transaction{}}
		err := s.retry(ctx, "list_transactions", func() error {
			total, err := s.store.CountTransactions(ctx, f)
			if err != nil {
				return err
			}
			txs, err := s.store.FindTransactions(ctx, f)
			if err != nil {
				return err
			}
			page.Total = total
			if txs != nil {
				page.Transactions = txs
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		page.TotalPages = int((page.Total + int64(q.PageSize) - 1) / int64(q.PageSize))
		return page, nil
	})
	if err != nil {
		s.log.WithField("error", err.Error()).Error("Failed to list transactions")
		return nil, err
	}
	return page, nil
}

// listCacheKey renders a filter into a stable cache key suffix
func listCacheKey(f store.TransactionFilter) string {
	stamp := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s:%s:w%d:c%d:t%s:%s:%t:%d:%d",
		stamp(f.From), stamp(f.To), f.WalletID, f.CategoryID, f.Type, f.SortBy, f.Desc, f.Offset, f.Limit)
}
