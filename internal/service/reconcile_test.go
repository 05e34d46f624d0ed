package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corrupt overwrites a stored balance behind the ledger's back
func (e *testEnv) corrupt(t *testing.T, w *domain.Wallet, balance string) {
	t.Helper()
	require.NoError(t, e.store.SetWalletBalance(e.ctx, w.ID, dec(balance)))
}

func TestReconcile_CorrectsDriftAndLogsIt(t *testing.T) {
	env := newTestEnv(t)
	env.record(t, env.cash, env.salary, domain.TypeIncome, "100000")
	env.record(t, env.cash, env.food, domain.TypeExpense, "30000")
	env.corrupt(t, env.cash, "65000")

	corrections, err := env.svc.Reconciler.Reconcile(env.ctx)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	c := corrections[0]
	assert.Equal(t, env.cash.ID, c.WalletID)
	assert.Equal(t, "CASH", c.WalletName)
	assert.True(t, c.OldBalance.Equal(dec("65000")))
	assert.True(t, c.NewBalance.Equal(dec("70000")))
	assert.True(t, c.Difference.Equal(dec("5000")))
	env.requireBalance(t, env.cash, "70000")

	var logged bool
	for _, entry := range env.hook.AllEntries() {
		if entry.Message == "Wallet balance corrected" {
			logged = true
			assert.Equal(t, logrus.WarnLevel, entry.Level)
			assert.Equal(t, "65000.00", entry.Data["old_balance"])
			assert.Equal(t, "70000.00", entry.Data["new_balance"])
		}
	}
	assert.True(t, logged, "corrections are logged")

	stored, err := env.svc.Reconciler.ListCorrections(env.ctx, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, env.cash.ID, stored[0].WalletID)
}

func TestReconcile_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.record(t, env.cash, env.salary, domain.TypeIncome, "100")
	env.corrupt(t, env.cash, "0")
	env.corrupt(t, env.dana, "42")

	first, err := env.svc.Reconciler.Reconcile(env.ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := env.svc.Reconciler.Reconcile(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, second)
	env.requireConsistent(t)
}

func TestReconcile_IgnoresDriftWithinEpsilon(t *testing.T) {
	env := newTestEnv(t)
	env.record(t, env.cash, env.salary, domain.TypeIncome, "100")
	env.corrupt(t, env.cash, "100.01")

	corrections, err := env.svc.Reconciler.Reconcile(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, corrections)
	env.requireBalance(t, env.cash, "100.01")
}

func TestReconcile_WalletWithoutTransactionsExpectsZero(t *testing.T) {
	env := newTestEnv(t)
	env.corrupt(t, env.dana, "250")

	corrections, err := env.svc.Reconciler.Reconcile(env.ctx)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	env.requireBalance(t, env.dana, "0")
}

// brokenWalletStore refuses to overwrite one wallet's balance
type brokenWalletStore struct {
	store.Store
	walletID uint
}

func (b *brokenWalletStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return b.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(&brokenWalletStore{Store: tx, walletID: b.walletID})
	})
}

func (b *brokenWalletStore) SetWalletBalance(ctx context.Context, id uint, balance decimal.Decimal) error {
	if id == b.walletID {
		return &domain.StorageError{Op: "set balance", Err: errors.New("row locked")}
	}
	return b.Store.SetWalletBalance(ctx, id, balance)
}

func TestReconcile_OneFailingWalletDoesNotStopThePass(t *testing.T) {
	gdb := newTestDB(t)
	broken := &brokenWalletStore{Store: store.NewGormStore(gdb)}
	env := newTestEnvWith(t, gdb, broken, nil)
	broken.walletID = env.cash.ID

	env.record(t, env.cash, env.salary, domain.TypeIncome, "100")
	env.record(t, env.dana, env.salary, domain.TypeIncome, "200")
	raw := store.NewGormStore(gdb)
	require.NoError(t, raw.SetWalletBalance(env.ctx, env.cash.ID, dec("1")))
	require.NoError(t, raw.SetWalletBalance(env.ctx, env.dana.ID, dec("2")))

	corrections, err := env.svc.Reconciler.Reconcile(env.ctx)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, env.dana.ID, corrections[0].WalletID)
	env.requireBalance(t, env.dana, "200")
	env.requireBalance(t, env.cash, "1")

	var failed bool
	for _, entry := range env.hook.AllEntries() {
		if entry.Message == "Failed to correct wallet balance" {
			failed = true
			assert.Equal(t, env.cash.ID, entry.Data["wallet_id"])
			assert.Contains(t, entry.Data["error"], domain.ErrInconsistency.Error())
		}
	}
	assert.True(t, failed, "the uncorrectable wallet is reported")
}

func TestMaybeReconcile_Throttled(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	env.svc.Reconciler.now = func() time.Time { return now }

	assert.True(t, env.svc.Reconciler.MaybeReconcile(env.ctx))
	assert.False(t, env.svc.Reconciler.MaybeReconcile(env.ctx))

	now = now.Add(59 * time.Minute)
	assert.False(t, env.svc.Reconciler.MaybeReconcile(env.ctx))

	now = now.Add(time.Minute)
	assert.True(t, env.svc.Reconciler.MaybeReconcile(env.ctx))
	assert.Equal(t, now, env.svc.Reconciler.LastRun())
}

func TestMaybeReconcile_ExplicitRunResetsInterval(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	env.svc.Reconciler.now = func() time.Time { return now }

	_, err := env.svc.Reconciler.Reconcile(env.ctx)
	require.NoError(t, err)
	assert.False(t, env.svc.Reconciler.MaybeReconcile(env.ctx))
}

func TestDeleteTransaction_SchedulesReconciliation(t *testing.T) {
	env := newTestEnv(t, withDeleteReconcile)
	env.record(t, env.cash, env.salary, domain.TypeIncome, "100")
	tx := env.record(t, env.cash, env.food, domain.TypeExpense, "10")
	env.corrupt(t, env.dana, "7")

	require.NoError(t, env.svc.Ledger.DeleteTransaction(env.ctx, tx.ID))
	env.drain(t)

	env.requireBalance(t, env.dana, "0")
	env.requireBalance(t, env.cash, "100")
	corrections, err := env.svc.Reconciler.ListCorrections(env.ctx, 0)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, env.dana.ID, corrections[0].WalletID)
}
