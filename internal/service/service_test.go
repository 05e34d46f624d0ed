package service

import (
	"context"
	"testing"
	"time"

	"finance_tracker/internal/db"
	"finance_tracker/internal/domain"
	"finance_tracker/internal/queue"
	"finance_tracker/internal/store"
	"finance_tracker/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	ctx   context.Context
	gdb   *gorm.DB
	store store.Store
	queue *queue.Queue
	svc   *Services
	hook  *test.Hook

	cash, dana            *domain.Wallet
	food, salary, convert *domain.Category
}

type envOption func(*Config)

func withDeleteReconcile(c *Config) { c.ReconcileAfterDelete = true }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every connection to :memory: is a separate database
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// newTestEnvWith builds services around st, which may wrap the real store
func newTestEnvWith(t *testing.T, gdb *gorm.DB, st store.Store, cache utils.Cache, opts ...envOption) *testEnv {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	q := queue.New(16, log)
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	cfg := DefaultConfig()
	cfg.ReconcileAfterDelete = false
	cfg.Retry.BaseDelay = time.Millisecond
	for _, o := range opts {
		o(&cfg)
	}

	env := &testEnv{
		ctx:   context.Background(),
		gdb:   gdb,
		store: st,
		queue: q,
		svc:   New(st, q, cache, cfg, log),
		hook:  hook,
	}
	env.seed(t)
	hook.Reset()
	return env
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gdb := newTestDB(t)
	return newTestEnvWith(t, gdb, store.NewGormStore(gdb), nil, opts...)
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	var err error
	e.cash, err = e.svc.Settings.CreateWallet(e.ctx, WalletInput{Name: "CASH", Type: "cash"})
	require.NoError(t, err)
	e.dana, err = e.svc.Settings.CreateWallet(e.ctx, WalletInput{Name: "DANA", Type: "ewallet"})
	require.NoError(t, err)
	e.food, err = e.svc.Settings.CreateCategory(e.ctx, CategoryInput{Name: "Food", Type: domain.CategoryExpense})
	require.NoError(t, err)
	e.salary, err = e.svc.Settings.CreateCategory(e.ctx, CategoryInput{Name: "Salary", Type: domain.CategoryIncome})
	require.NoError(t, err)
	require.NoError(t, e.svc.Settings.EnsureConvertCategory(e.ctx))
	e.convert, err = e.store.FindCategory(e.ctx, domain.RefByName(domain.ConvertCategoryName))
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func (e *testEnv) record(t *testing.T, wallet *domain.Wallet, category *domain.Category, typ domain.TransactionType, amount string) *domain.Transaction {
	t.Helper()
	tx, err := e.svc.Ledger.CreateTransaction(e.ctx, TransactionInput{
		Date:     day(2024, time.March, 10),
		Category: domain.RefByID(category.ID),
		Wallet:   domain.RefByID(wallet.ID),
		Amount:   dec(amount),
		Type:     typ,
	})
	require.NoError(t, err)
	return tx
}

func (e *testEnv) balance(t *testing.T, w *domain.Wallet) decimal.Decimal {
	t.Helper()
	got, err := e.store.FindWallet(e.ctx, domain.RefByID(w.ID))
	require.NoError(t, err)
	return got.Balance
}

func (e *testEnv) requireBalance(t *testing.T, w *domain.Wallet, want string) {
	t.Helper()
	got := e.balance(t, w)
	require.Truef(t, got.Equal(dec(want)), "wallet %s: balance %s, want %s", w.Name, got, want)
}

// requireConsistent checks every stored balance against the sum of its wallet's transaction deltas
func (e *testEnv) requireConsistent(t *testing.T) {
	t.Helper()
	txs, err := e.store.FindTransactions(e.ctx, store.TransactionFilter{})
	require.NoError(t, err)
	wallets, err := e.store.ListWallets(e.ctx)
	require.NoError(t, err)
	sums := map[uint]decimal.Decimal{}
	for _, tx := range txs {
		sums[tx.WalletID] = sums[tx.WalletID].Add(tx.Delta())
	}
	for _, w := range wallets {
		require.Truef(t, sums[w.ID].Equal(w.Balance), "wallet %s: stored %s, ledger %s", w.Name, w.Balance, sums[w.ID])
	}
}

func (e *testEnv) countTransactions(t *testing.T) int64 {
	t.Helper()
	n, err := e.store.CountTransactions(e.ctx, store.TransactionFilter{})
	require.NoError(t, err)
	return n
}

// drain waits until every job posted so far has run
func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, e.queue.Submit(e.ctx, "barrier", func(context.Context) error { return nil }))
}
