package store

import (
	"context"
	"errors"
	"strconv"

	"finance_tracker/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of GORM. It works with any dialect GORM supports;
// the server runs it on MySQL and the tests on SQLite.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// WithTx runs fn inside a database transaction
func (s *GormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
	return wrap("transaction", err)
}

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("ping", err)
	}
	return wrap("ping", sqlDB.PingContext(ctx))
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

func (s *GormStore) filtered(ctx context.Context, f TransactionFilter) *gorm.DB {
	q := s.conn(ctx).Model(&domain.Transaction{})
	if f.From != nil {
		q = q.Where("transactions.date >= ?", *f.From) // Inclusive lower bound
	}
	if f.To != nil {
		q = q.Where("transactions.date <= ?", *f.To) // Inclusive upper bound
	}
	if f.WalletID != 0 {
		q = q.Where("transactions.wallet_id = ?", f.WalletID)
	}
	if f.Involves != 0 {
		q = q.Where("(transactions.wallet_id = ? OR transactions.source_wallet_id = ? OR transactions.target_wallet_id = ?)",
			f.Involves, f.Involves, f.Involves)
	}
	if f.CategoryID != 0 {
		q = q.Where("transactions.category_id = ?", f.CategoryID)
	}
	if f.Type != "" {
		q = q.Where("transactions.type = ?", f.Type)
	}
	return q
}

// FindTransactions returns the matching transactions with Category and Wallet populated
func (s *GormStore) FindTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	q := s.filtered(ctx, f).Joins("Category").Joins("Wallet")
	var col clause.Column
	switch f.SortBy {
	case SortByAmount:
		col = clause.Column{Table: "transactions", Name: "amount"}
	case SortByCategory:
		col = clause.Column{Table: "Category", Name: "name"}
	case SortByWallet:
		col = clause.Column{Table: "Wallet", Name: "name"}
	default:
		col = clause.Column{Table: "transactions", Name: "date"}
	}
	q = q.Order(clause.OrderByColumn{Column: col, Desc: f.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "transactions", Name: "id"}, Desc: f.Desc}) // Stable tie-break
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var txs []domain.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, wrap("find transactions", err)
	}
	return txs, nil
}

// CountTransactions counts the matching transactions
func (s *GormStore) CountTransactions(ctx context.Context, f TransactionFilter) (int64, error) {
	var total int64
	if err := s.filtered(ctx, f).Count(&total).Error; err != nil {
		return 0, wrap("count transactions", err)
	}
	return total, nil
}

// GetTransaction loads one transaction by id
func (s *GormStore) GetTransaction(ctx context.Context, id uint) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := s.conn(ctx).Joins("Category").Joins("Wallet").First(&tx, "transactions.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Kind: "transaction", Ref: idRef(id)}
		}
		return nil, wrap("get transaction", err)
	}
	return &tx, nil
}

// InsertTransaction creates a ledger row. tx.ID is filled in.
func (s *GormStore) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	return wrap("insert transaction", s.conn(ctx).Omit(clause.Associations).Create(tx).Error)
}

// UpdateTransaction replaces every mutable field of an existing ledger row
func (s *GormStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	err := s.conn(ctx).Model(&domain.Transaction{ID: tx.ID}).
		Select("date", "category_id", "wallet_id", "amount", "type", "description", "status",
			"source_wallet_id", "target_wallet_id", "convert_group_id").
		Omit(clause.Associations).
		Updates(tx).Error
	return wrap("update transaction", err)
}

// DeleteTransaction removes a ledger row
func (s *GormStore) DeleteTransaction(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&domain.Transaction{}, id)
	if res.Error != nil {
		return wrap("delete transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: "transaction", Ref: idRef(id)}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Wallets
// -----------------------------------------------------------------------------

// FindWallet resolves a wallet by id, or by name when no id is given
func (s *GormStore) FindWallet(ctx context.Context, ref domain.Ref) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := byRef(s.conn(ctx), ref).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Kind: "wallet", Ref: ref.String()}
		}
		return nil, wrap("find wallet", err)
	}
	return &w, nil
}

// ListWallets returns every wallet ordered by id
func (s *GormStore) ListWallets(ctx context.Context) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	if err := s.conn(ctx).Order("id").Find(&wallets).Error; err != nil {
		return nil, wrap("list wallets", err)
	}
	return wallets, nil
}

// CountWallets returns the number of wallets
func (s *GormStore) CountWallets(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&domain.Wallet{}).Count(&n).Error; err != nil {
		return 0, wrap("count wallets", err)
	}
	return n, nil
}

// CreateWallet inserts a wallet
func (s *GormStore) CreateWallet(ctx context.Context, w *domain.Wallet) error {
	return wrap("create wallet", s.conn(ctx).Create(w).Error)
}

// UpdateWalletDetails updates display metadata only; the balance column is never touched here
func (s *GormStore) UpdateWalletDetails(ctx context.Context, w *domain.Wallet) error {
	res := s.conn(ctx).Model(&domain.Wallet{ID: w.ID}).
		Select("name", "color", "icon", "type", "description").
		Updates(w)
	if res.Error != nil {
		return wrap("update wallet", res.Error)
	}
	return nil
}

// DeleteWallet removes a wallet
func (s *GormStore) DeleteWallet(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&domain.Wallet{}, id)
	if res.Error != nil {
		return wrap("delete wallet", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: "wallet", Ref: idRef(id)}
	}
	return nil
}

// AdjustWalletBalance applies delta in a single server-side statement, so two writers can never lose an update.
// The sum is rounded to cents because SQLite keeps decimal columns as REAL.
func (s *GormStore) AdjustWalletBalance(ctx context.Context, id uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil // MySQL reports zero affected rows for a no-op update
	}
	res := s.conn(ctx).Model(&domain.Wallet{ID: id}).
		Update("balance", gorm.Expr("ROUND(balance + CAST(? AS DECIMAL(20,2)), 2)", delta.String()))
	if res.Error != nil {
		return wrap("adjust wallet balance", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: "wallet", Ref: idRef(id)}
	}
	return nil
}

// SetWalletBalance overwrites the stored balance
func (s *GormStore) SetWalletBalance(ctx context.Context, id uint, balance decimal.Decimal) error {
	res := s.conn(ctx).Model(&domain.Wallet{ID: id}).Update("balance", domain.Money(balance))
	if res.Error != nil {
		return wrap("set wallet balance", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: "wallet", Ref: idRef(id)}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Categories
// -----------------------------------------------------------------------------

// FindCategory resolves a category by id, or by name when no id is given
func (s *GormStore) FindCategory(ctx context.Context, ref domain.Ref) (*domain.Category, error) {
	var c domain.Category
	if err := byRef(s.conn(ctx), ref).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Kind: "category", Ref: ref.String()}
		}
		return nil, wrap("find category", err)
	}
	return &c, nil
}

// ListCategories returns every category ordered by id
func (s *GormStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := s.conn(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, wrap("list categories", err)
	}
	return categories, nil
}

// CountCategories returns the number of categories
func (s *GormStore) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&domain.Category{}).Count(&n).Error; err != nil {
		return 0, wrap("count categories", err)
	}
	return n, nil
}

// CreateCategory inserts a category
func (s *GormStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	return wrap("create category", s.conn(ctx).Create(c).Error)
}

// UpdateCategory updates every mutable field of a category
func (s *GormStore) UpdateCategory(ctx context.Context, c *domain.Category) error {
	res := s.conn(ctx).Model(&domain.Category{ID: c.ID}).
		Select("name", "color", "type", "icon", "description").
		Updates(c)
	return wrap("update category", res.Error)
}

// DeleteCategory removes a category
func (s *GormStore) DeleteCategory(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&domain.Category{}, id)
	if res.Error != nil {
		return wrap("delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: "category", Ref: idRef(id)}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Corrections
// -----------------------------------------------------------------------------

// InsertCorrection appends a reconciliation audit row
func (s *GormStore) InsertCorrection(ctx context.Context, c *domain.BalanceCorrection) error {
	return wrap("insert correction", s.conn(ctx).Create(c).Error)
}

// ListCorrections returns the most recent corrections first
func (s *GormStore) ListCorrections(ctx context.Context, limit int) ([]domain.BalanceCorrection, error) {
	q := s.conn(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.BalanceCorrection
	if err := q.Find(&out).Error; err != nil {
		return nil, wrap("list corrections", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func byRef(db *gorm.DB, ref domain.Ref) *gorm.DB {
	if ref.ID != 0 {
		return db.Where("id = ?", ref.ID)
	}
	return db.Where("name = ?", ref.Name)
}

func idRef(id uint) string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// wrap maps driver errors onto the domain taxonomy. Errors that already belong to it pass through.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &domain.ValidationError{Field: "name", Message: "already exists"}
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInconsistency),
		errors.Is(err, domain.ErrStorage):
		return err
	default:
		return &domain.StorageError{Op: op, Err: err}
	}
}
