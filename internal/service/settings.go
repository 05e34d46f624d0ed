package service

import (
	"context"
	"strings"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/store"

	"github.com/sirupsen/logrus"
)

// SettingsService manages wallets and categories. Balances are never edited here.
type SettingsService struct {
	*base
}

// WalletInput holds the editable wallet metadata
type WalletInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (in *WalletInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Invalid("name", "is required")
	}
	if len(in.Name) > 64 {
		return domain.Invalid("name", "must be at most 64 characters")
	}
	if in.Type == "" {
		in.Type = "other"
	}
	return nil
}

// CategoryInput holds the editable category fields
type CategoryInput struct {
	Name        string              `json:"name"`
	Color       string              `json:"color"`
	Type        domain.CategoryType `json:"type"`
	Icon        string              `json:"icon"`
	Description string              `json:"description"`
}

func (in *CategoryInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Invalid("name", "is required")
	}
	if len(in.Name) > 64 {
		return domain.Invalid("name", "must be at most 64 characters")
	}
	if !in.Type.Valid() {
		return domain.Invalid("type", "unknown category type %q", in.Type)
	}
	return nil
}

// ListWallets returns every wallet with its current balance
func (s *SettingsService) ListWallets(ctx context.Context) ([]domain.Wallet, error) {
	return cached(ctx, s.base, walletsCacheKey, func() ([]domain.Wallet, error) {
		var out []domain.Wallet
		err := s.retry(ctx, "list_wallets", func() error {
			var err error
			out, err = s.store.ListWallets(ctx)
			return err
		})
		if out == nil && err == nil {
			out = []domain.Wallet{}
		}
		return out, err
	})
}

// CreateWallet adds a wallet with a zero balance
func (s *SettingsService) CreateWallet(ctx context.Context, in WalletInput) (*domain.Wallet, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	w := &domain.Wallet{Name: in.Name, Color: in.Color, Icon: in.Icon, Type: in.Type, Description: in.Description}
	err := s.mutate(ctx, "create_wallet", func(ctx context.Context, st store.Store) error {
		w.ID = 0
		return st.CreateWallet(ctx, w)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"name": in.Name, "error": err.Error()}).Error("Failed to create wallet")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"wallet_id": w.ID, "name": w.Name}).Info("Wallet created")
	return w, nil
}

// UpdateWallet changes wallet metadata and leaves the balance alone
func (s *SettingsService) UpdateWallet(ctx context.Context, id uint, in WalletInput) (*domain.Wallet, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var updated *domain.Wallet
	err := s.mutate(ctx, "update_wallet", func(ctx context.Context, st store.Store) error {
		w, err := st.FindWallet(ctx, domain.RefByID(id))
		if err != nil {
			return err
		}
		w.Name, w.Color, w.Icon, w.Type, w.Description = in.Name, in.Color, in.Icon, in.Type, in.Description
		if err := st.UpdateWalletDetails(ctx, w); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"wallet_id": id, "error": err.Error()}).Error("Failed to update wallet")
		return nil, err
	}
	s.log.WithField("wallet_id", id).Info("Wallet updated")
	return updated, nil
}

// DeleteWallet removes a wallet that no transaction references
func (s *SettingsService) DeleteWallet(ctx context.Context, id uint) error {
	err := s.mutate(ctx, "delete_wallet", func(ctx context.Context, st store.Store) error {
		if _, err := st.FindWallet(ctx, domain.RefByID(id)); err != nil {
			return err
		}
		n, err := st.CountTransactions(ctx, store.TransactionFilter{Involves: id})
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Invalid("wallet", "is used by %d transactions", n)
		}
		return st.DeleteWallet(ctx, id)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"wallet_id": id, "error": err.Error()}).Error("Failed to delete wallet")
		return err
	}
	s.log.WithField("wallet_id", id).Info("Wallet deleted")
	return nil
}

// ListCategories returns every category
func (s *SettingsService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, s.base, categoriesCacheKey, func() ([]domain.Category, error) {
		var out []domain.Category
		err := s.retry(ctx, "list_categories", func() error {
			var err error
			out, err = s.store.ListCategories(ctx)
			return err
		})
		if out == nil && err == nil {
			out = []domain.Category{}
		}
		return out, err
	})
}

// CreateCategory adds a category. The convert type is reserved for the sentinel.
func (s *SettingsService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.Type == domain.CategoryConvert && in.Name != domain.ConvertCategoryName {
		return nil, domain.Invalid("type", "%q is reserved for the %s category", domain.CategoryConvert, domain.ConvertCategoryName)
	}
	c := &domain.Category{Name: in.Name, Color: in.Color, Type: in.Type, Icon: in.Icon, Description: in.Description}
	err := s.mutate(ctx, "create_category", func(ctx context.Context, st store.Store) error {
		c.ID = 0
		return st.CreateCategory(ctx, c)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"name": in.Name, "error": err.Error()}).Error("Failed to create category")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"category_id": c.ID, "name": c.Name}).Info("Category created")
	return c, nil
}

// UpdateCategory edits a category. The sentinel keeps its name and type.
func (s *SettingsService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*domain.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var updated *domain.Category
	err := s.mutate(ctx, "update_category", func(ctx context.Context, st store.Store) error {
		c, err := st.FindCategory(ctx, domain.RefByID(id))
		if err != nil {
			return err
		}
		if c.IsConvertSentinel() {
			if in.Name != c.Name || in.Type != c.Type {
				return domain.Invalid("category", "%s cannot be renamed or retyped", domain.ConvertCategoryName)
			}
		} else if in.Type == domain.CategoryConvert || in.Name == domain.ConvertCategoryName {
			return domain.Invalid("category", "%s is reserved", domain.ConvertCategoryName)
		}
		c.Name, c.Color, c.Type, c.Icon, c.Description = in.Name, in.Color, in.Type, in.Icon, in.Description
		if err := st.UpdateCategory(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"category_id": id, "error": err.Error()}).Error("Failed to update category")
		return nil, err
	}
	s.log.WithField("category_id", id).Info("Category updated")
	return updated, nil
}

// DeleteCategory removes an unreferenced category other than the sentinel
func (s *SettingsService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.mutate(ctx, "delete_category", func(ctx context.Context, st store.Store) error {
		c, err := st.FindCategory(ctx, domain.RefByID(id))
		if err != nil {
			return err
		}
		if c.IsConvertSentinel() {
			return domain.Invalid("category", "%s cannot be deleted", domain.ConvertCategoryName)
		}
		n, err := st.CountTransactions(ctx, store.TransactionFilter{CategoryID: id})
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Invalid("category", "is used by %d transactions", n)
		}
		return st.DeleteCategory(ctx, id)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"category_id": id, "error": err.Error()}).Error("Failed to delete category")
		return err
	}
	s.log.WithField("category_id", id).Info("Category deleted")
	return nil
}

// InitResult reports what InitDefaults created
type InitResult struct {
	Categories int `json:"categories_created"`
	Wallets    int `json:"wallets_created"`
}

// InitDefaults seeds default categories into an empty category table and
// default wallets into an empty wallet table. Existing data is left alone.
func (s *SettingsService) InitDefaults(ctx context.Context) (*InitResult, error) {
	res := &InitResult{}
	err := s.mutate(ctx, "init_defaults", func(ctx context.Context, st store.Store) error {
		*res = InitResult{}
		nc, err := st.CountCategories(ctx)
		if err != nil {
			return err
		}
		if nc == 0 {
			for _, c := range domain.DefaultCategories() {
				if err := st.CreateCategory(ctx, &c); err != nil {
					return err
				}
				res.Categories++
			}
		}
		nw, err := st.CountWallets(ctx)
		if err != nil {
			return err
		}
		if nw == 0 {
			for _, w := range domain.DefaultWallets() {
				if err := st.CreateWallet(ctx, &w); err != nil {
					return err
				}
				res.Wallets++
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithField("error", err.Error()).Error("Failed to initialize default data")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"categories": res.Categories, // Categories seeded
		"wallets":    res.Wallets,    // Wallets seeded
	}).Info("Default data initialized")
	return res, nil
}

// EnsureConvertCategory creates the convert sentinel when it is missing
func (s *SettingsService) EnsureConvertCategory(ctx context.Context) error {
	return s.mutate(ctx, "ensure_convert_category", func(ctx context.Context, st store.Store) error {
		_, err := st.FindCategory(ctx, domain.RefByName(domain.ConvertCategoryName))
		if !domain.IsNotFound(err) {
			return err
		}
		for _, c := range domain.DefaultCategories() {
			if c.IsConvertSentinel() {
				s.log.Info("Creating missing convert category")
				return st.CreateCategory(ctx, &c)
			}
		}
		return nil
	})
}
