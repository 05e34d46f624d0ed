package service

import (
	"testing"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWallet_StartsAtZero(t *testing.T) {
	env := newTestEnv(t)
	w, err := env.svc.Settings.CreateWallet(env.ctx, WalletInput{Name: "  OVO  ", Color: "#8B5CF6"})
	require.NoError(t, err)
	assert.Equal(t, "OVO", w.Name)
	assert.Equal(t, "other", w.Type)
	env.requireBalance(t, w, "0")
}

func TestCreateWallet_DuplicateName(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Settings.CreateWallet(env.ctx, WalletInput{Name: "CASH"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestUpdateWallet_KeepsBalance(t *testing.T) {
	env := newTestEnv(t)
	env.record(t, env.cash, env.salary, domain.TypeIncome, "1500")

	w, err := env.svc.Settings.UpdateWallet(env.ctx, env.cash.ID, WalletInput{Name: "WALLET", Type: "cash", Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, "WALLET", w.Name)
	env.requireBalance(t, env.cash, "1500")

	got, err := env.store.FindWallet(env.ctx, domain.RefByName("WALLET"))
	require.NoError(t, err)
	assert.Equal(t, "#000000", got.Color)
}

func TestDeleteWallet_OnlyWhenUnreferenced(t *testing.T) {
	env := newTestEnv(t)
	env.record(t, env.cash, env.salary, domain.TypeIncome, "100")

	err := env.svc.Settings.DeleteWallet(env.ctx, env.cash.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// The target side of a convert counts as a reference too
	_, err = env.svc.Ledger.Convert(env.ctx, ConvertInput{
		Date: day(2024, 3, 1), Source: domain.RefByID(env.cash.ID), Target: domain.RefByID(env.dana.ID), Amount: dec("10"),
	})
	require.NoError(t, err)
	page, err := env.svc.Ledger.ListTransactions(env.ctx, ListQuery{WalletID: env.dana.ID})
	require.NoError(t, err)
	require.NoError(t, env.svc.Ledger.DeleteTransaction(env.ctx, page.Transactions[0].ID))
	assert.ErrorIs(t, env.svc.Settings.DeleteWallet(env.ctx, env.dana.ID), domain.ErrValidation)

	ovo, err := env.svc.Settings.CreateWallet(env.ctx, WalletInput{Name: "OVO"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Settings.DeleteWallet(env.ctx, ovo.ID))
	assert.True(t, domain.IsNotFound(env.svc.Settings.DeleteWallet(env.ctx, ovo.ID)))
}

func TestConvertCategory_IsProtected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Settings.UpdateCategory(env.ctx, env.convert.ID, CategoryInput{Name: "MOVE", Type: domain.CategoryConvert})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.Settings.UpdateCategory(env.ctx, env.convert.ID, CategoryInput{Name: domain.ConvertCategoryName, Type: domain.CategoryExpense})
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := env.svc.Settings.UpdateCategory(env.ctx, env.convert.ID, CategoryInput{
		Name: domain.ConvertCategoryName, Type: domain.CategoryConvert, Color: "#FFFFFF",
	})
	require.NoError(t, err)
	assert.Equal(t, "#FFFFFF", updated.Color)

	assert.ErrorIs(t, env.svc.Settings.DeleteCategory(env.ctx, env.convert.ID), domain.ErrValidation)

	_, err = env.svc.Settings.UpdateCategory(env.ctx, env.food.ID, CategoryInput{Name: domain.ConvertCategoryName, Type: domain.CategoryExpense})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = env.svc.Settings.CreateCategory(env.ctx, CategoryInput{Name: "SWAP", Type: domain.CategoryConvert})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteCategory_OnlyWhenUnreferenced(t *testing.T) {
	env := newTestEnv(t)
	env.record(t, env.cash, env.food, domain.TypeExpense, "10")
	assert.ErrorIs(t, env.svc.Settings.DeleteCategory(env.ctx, env.food.ID), domain.ErrValidation)

	fun, err := env.svc.Settings.CreateCategory(env.ctx, CategoryInput{Name: "Fun", Type: domain.CategoryExpense})
	require.NoError(t, err)
	require.NoError(t, env.svc.Settings.DeleteCategory(env.ctx, fun.ID))

	categories, err := env.svc.Settings.ListCategories(env.ctx)
	require.NoError(t, err)
	for _, c := range categories {
		assert.NotEqual(t, "Fun", c.Name)
	}
}

func TestCategoryInput_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Settings.CreateCategory(env.ctx, CategoryInput{Name: "", Type: domain.CategoryExpense})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = env.svc.Settings.CreateCategory(env.ctx, CategoryInput{Name: "Gifts", Type: "gift"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInitDefaults_SeedsEmptyTablesOnce(t *testing.T) {
	gdb := newTestDB(t)
	st := store.NewGormStore(gdb)
	env := newTestEnvWith(t, gdb, st, nil)

	// Categories already exist from the fixture; only the wallet table is emptied
	require.NoError(t, gdb.Exec("DELETE FROM wallets").Error)

	res, err := env.svc.Settings.InitDefaults(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Categories)
	assert.Equal(t, len(domain.DefaultWallets()), res.Wallets)

	wallets, err := env.svc.Settings.ListWallets(env.ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 3)
	assert.Equal(t, "CASH", wallets[0].Name)
	for _, w := range wallets {
		assert.True(t, w.Balance.IsZero())
	}

	again, err := env.svc.Settings.InitDefaults(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, &InitResult{}, again)
}

func TestInitDefaults_FreshDatabase(t *testing.T) {
	gdb := newTestDB(t)
	env := newTestEnvWith(t, gdb, store.NewGormStore(gdb), nil)
	require.NoError(t, gdb.Exec("DELETE FROM wallets").Error)
	require.NoError(t, gdb.Exec("DELETE FROM categories").Error)

	res, err := env.svc.Settings.InitDefaults(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, len(domain.DefaultCategories()), res.Categories)

	c, err := env.store.FindCategory(env.ctx, domain.RefByName(domain.ConvertCategoryName))
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryConvert, c.Type)
}
