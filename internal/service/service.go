package service

import (
	"context"
	"errors"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/queue"
	"finance_tracker/internal/store"
	"finance_tracker/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Cache keys shared by the services
const (
	summaryCacheKey     = "summary"
	walletsCacheKey     = "wallets"
	categoriesCacheKey  = "categories"
	txListCachePrefix   = "txlist:"
	reconcileClaimKey   = "reconcile:last_run"
	defaultCacheTTL     = 60 * time.Second
	defaultReconcileGap = time.Hour
)

// Config tunes the services
type Config struct {
	CacheTTL             time.Duration   // TTL for cached reads
	ReconcileInterval    time.Duration   // Minimum gap between throttled reconciliations
	ReconcileEpsilon     decimal.Decimal // Drift below this is floating-point noise
	ReconcileAfterDelete bool            // Schedule a reconciliation after every delete
	Retry                utils.RetryPolicy
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		CacheTTL:             defaultCacheTTL,
		ReconcileInterval:    defaultReconcileGap,
		ReconcileEpsilon:     decimal.RequireFromString("0.01"),
		ReconcileAfterDelete: true,
		Retry:                utils.DefaultRetryPolicy(),
	}
}

// Services bundles everything the API layer calls into
type Services struct {
	Ledger     *LedgerService
	Settings   *SettingsService
	Reconciler *Reconciler
}

// New wires the services around one store, one mutation queue and one cache
func New(st store.Store, q *queue.Queue, cache utils.Cache, cfg Config, log logrus.FieldLogger) *Services {
	if cache == nil {
		cache = utils.NopCache{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileGap
	}
	if cfg.Retry.Log == nil {
		cfg.Retry.Log = log
	}
	base := &base{store: st, queue: q, cache: cache, cfg: cfg, log: log, now: time.Now}
	rec := &Reconciler{base: base}
	return &Services{
		Ledger:     &LedgerService{base: base, reconciler: rec},
		Settings:   &SettingsService{base: base},
		Reconciler: rec,
	}
}

// base holds the collaborators every service shares
type base struct {
	store store.Store
	queue *queue.Queue
	cache utils.Cache
	cfg   Config
	log   logrus.FieldLogger
	now   func() time.Time
}

// mutate serializes fn on the mutation queue and runs it inside one store transaction.
// Transient storage failures are retried as a whole unit; nothing partial survives a failed attempt.
func (b *base) mutate(ctx context.Context, name string, fn func(ctx context.Context, st store.Store) error) error {
	err := b.queue.Submit(ctx, name, func(jobCtx context.Context) error {
		return b.retry(jobCtx, name, func() error {
			return b.store.WithTx(jobCtx, func(tx store.Store) error {
				return fn(jobCtx, tx)
			})
		})
	})
	if errors.Is(err, queue.ErrCanceled) || errors.Is(err, queue.ErrClosed) {
		return &domain.StorageError{Op: name, Err: err} // Nothing was written, safe to retry
	}
	if err == nil {
		b.invalidate(ctx)
	}
	return err
}

// retry applies the shared retry policy to a storage call
func (b *base) retry(ctx context.Context, op string, fn func() error) error {
	return b.cfg.Retry.Do(ctx, op, fn)
}

// invalidate drops every cached read that a ledger or settings write can change
func (b *base) invalidate(ctx context.Context) {
	if err := b.cache.Delete(ctx, summaryCacheKey, walletsCacheKey, categoriesCacheKey); err != nil {
		b.log.WithField("error", err.Error()).Warn("Cache invalidation failed")
	}
	if err := b.cache.DeletePrefix(ctx, txListCachePrefix); err != nil {
		b.log.WithField("error", err.Error()).Warn("Cache invalidation failed")
	}
}

// cached serves key from the cache, or calls load and caches what it returns
func cached[T any](ctx context.Context, b *base, key string, load func() (T, error)) (T, error) {
	var v T
	if found, err := b.cache.Get(ctx, key, &v); err == nil && found {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := b.cache.Set(ctx, key, v, b.cfg.CacheTTL); err != nil {
		b.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Debug("Cache write failed")
	}
	return v, nil
}
