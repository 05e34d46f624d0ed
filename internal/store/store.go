package store

import (
	"context"
	"time"

	"finance_tracker/internal/domain"

	"github.com/shopspring/decimal"
)

// Sort keys accepted by TransactionFilter.SortBy
const (
	SortByDate     = "date"
	SortByAmount   = "amount"
	SortByCategory = "category"
	SortByWallet   = "wallet"
)

// TransactionFilter narrows FindTransactions and CountTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	From       *time.Time             // Inclusive lower bound on Date
	To         *time.Time             // Inclusive upper bound on Date
	WalletID   uint                   // Owning wallet
	Involves   uint                   // Owning, convert source or convert target wallet
	CategoryID uint                   // Category
	Type       domain.TransactionType // income or expense
	SortBy     string                 // date, amount, category, wallet
	Desc       bool                   // Descending order
	Offset     int                    // Pagination offset
	Limit      int                    // Pagination limit, 0 for all
}

// Store is the ledger persistence contract. Implementations must support an atomic
// multi-write boundary through WithTx; every method called on the Store handed to fn
// takes part in the same transaction.
type Store interface {
	FindTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, f TransactionFilter) (int64, error)
	GetTransaction(ctx context.Context, id uint) (*domain.Transaction, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id uint) error

	FindWallet(ctx context.Context, ref domain.Ref) (*domain.Wallet, error)
	ListWallets(ctx context.Context) ([]domain.Wallet, error)
	CountWallets(ctx context.Context) (int64, error)
	CreateWallet(ctx context.Context, w *domain.Wallet) error
	UpdateWalletDetails(ctx context.Context, w *domain.Wallet) error
	DeleteWallet(ctx context.Context, id uint) error
	// AdjustWalletBalance applies delta server-side (balance = balance + delta).
	AdjustWalletBalance(ctx context.Context, id uint, delta decimal.Decimal) error
	// SetWalletBalance overwrites the stored balance. Reserved for reconciliation.
	SetWalletBalance(ctx context.Context, id uint, balance decimal.Decimal) error

	FindCategory(ctx context.Context, ref domain.Ref) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CountCategories(ctx context.Context) (int64, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id uint) error

	InsertCorrection(ctx context.Context, c *domain.BalanceCorrection) error
	ListCorrections(ctx context.Context, limit int) ([]domain.BalanceCorrection, error)

	// WithTx executes fn within a transaction.
	// If fn returns an error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}
