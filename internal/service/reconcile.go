package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/queue"
	"finance_tracker/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Reconciler recomputes every wallet balance from the ledger and corrects stored balances that drifted.
// It runs on the mutation queue so it never interleaves with a write.
type Reconciler struct {
	*base

	mu      sync.Mutex
	lastRun time.Time
}

// Reconcile runs a full pass now and returns the corrections it applied
func (r *Reconciler) Reconcile(ctx context.Context) ([]domain.BalanceCorrection, error) {
	var corrections []domain.BalanceCorrection
	err := r.queue.Submit(ctx, "reconcile", func(jobCtx context.Context) error {
		var err error
		corrections, err = r.run(jobCtx)
		return err
	})
	if errors.Is(err, queue.ErrCanceled) || errors.Is(err, queue.ErrClosed) {
		err = &domain.StorageError{Op: "reconcile", Err: err}
	}
	if err != nil {
		r.log.WithField("error", err.Error()).Error("Reconciliation failed")
		return nil, err
	}
	return corrections, nil
}

// Schedule queues a pass behind whatever is pending and returns immediately
func (r *Reconciler) Schedule() {
	err := r.queue.Post("reconcile", func(jobCtx context.Context) error {
		_, err := r.run(jobCtx)
		return err
	})
	if err != nil {
		r.log.WithField("error", err.Error()).Warn("Could not schedule reconciliation")
	}
}

// MaybeReconcile runs a pass when none has run within the configured interval.
// The interval is tracked in-process and, when Redis is configured, across instances.
// Failures are logged, never returned; reads must not fail because a background check did.
func (r *Reconciler) MaybeReconcile(ctx context.Context) bool {
	if !r.due() {
		return false
	}
	won, err := r.cache.Claim(ctx, reconcileClaimKey, r.cfg.ReconcileInterval)
	if err != nil {
		r.log.WithField("error", err.Error()).Warn("Reconcile claim failed, running locally")
	} else if !won {
		return false // Another instance ran it within the interval
	}
	if _, err := r.Reconcile(ctx); err != nil {
		return false
	}
	return true
}

// due reports whether the interval has elapsed and, if so, reserves this run
func (r *Reconciler) due() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if !r.lastRun.IsZero() && now.Sub(r.lastRun) < r.cfg.ReconcileInterval {
		return false
	}
	r.lastRun = now
	return true
}

// LastRun returns when the most recent pass started, zero if none has
func (r *Reconciler) LastRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun
}

func (r *Reconciler) markRun() {
	r.mu.Lock()
	r.lastRun = r.now()
	r.mu.Unlock()
}

// run is the pass itself. It must only be called from the queue worker.
func (r *Reconciler) run(ctx context.Context) ([]domain.BalanceCorrection, error) {
	r.markRun()

	var (
		txs     []domain.Transaction
		wallets []domain.Wallet
	)
	err := r.retry(ctx, "reconcile_load", func() error {
		var err error
		if txs, err = r.store.FindTransactions(ctx, store.TransactionFilter{}); err != nil {
			return err
		}
		wallets, err = r.store.ListWallets(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	expected := make(map[uint]decimal.Decimal, len(wallets))
	for _, tx := range txs {
		expected[tx.WalletID] = expected[tx.WalletID].Add(tx.Delta())
	}

	var corrections []domain.BalanceCorrection
	for _, w := range wallets {
		want := expected[w.ID]
		delete(expected, w.ID)
		diff := want.Sub(w.Balance)
		if !diff.Abs().GreaterThan(r.cfg.ReconcileEpsilon) {
			continue
		}
		c := domain.BalanceCorrection{
			WalletID:   w.ID,
			WalletName: w.Name,
			OldBalance: w.Balance,
			NewBalance: want,
			Difference: diff,
		}
		err := r.retry(ctx, "reconcile_correct", func() error {
			c.ID = 0
			return r.store.WithTx(ctx, func(st store.Store) error {
				if err := st.SetWalletBalance(ctx, w.ID, want); err != nil {
					return err
				}
				return st.InsertCorrection(ctx, &c)
			})
		})
		if err != nil {
			ierr := &domain.InconsistencyError{WalletID: w.ID, Err: err}
			r.log.WithFields(logrus.Fields{
				"wallet_id": w.ID,         // Wallet left uncorrected
				"wallet":    w.Name,       // Wallet name
				"error":     ierr.Error(), // Error message
			}).Error("Failed to correct wallet balance")
			continue
		}
		r.log.WithFields(logrus.Fields{
			"wallet_id":   w.ID,                     // Corrected wallet
			"wallet":      w.Name,                   // Wallet name
			"old_balance": w.Balance.StringFixed(2), // Stored balance before correction
			"new_balance": want.StringFixed(2),      // Balance recomputed from the ledger
			"difference":  diff.StringFixed(2),      // new - old
		}).Warn("Wallet balance corrected")
		corrections = append(corrections, c)
	}

	for id := range expected {
		r.log.WithField("wallet_id", id).Warn("Transactions reference a wallet that no longer exists")
	}

	if len(corrections) > 0 {
		r.invalidate(ctx)
	}
	r.log.WithFields(logrus.Fields{
		"wallets":     len(wallets),     // Wallets checked
		"corrections": len(corrections), // Wallets corrected
	}).Info("Reconciliation finished")
	return corrections, nil
}

// ListCorrections returns the most recent balance corrections first
func (r *Reconciler) ListCorrections(ctx context.Context, limit int) ([]domain.BalanceCorrection, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	var out []domain.BalanceCorrection
	err := r.retry(ctx, "list_corrections", func() error {
		var err error
		out, err = r.store.ListCorrections(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.BalanceCorrection{}
	}
	return out, nil
}
