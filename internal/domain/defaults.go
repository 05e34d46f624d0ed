package domain

// DefaultCategories is the category set a fresh ledger starts with
func DefaultCategories() []Category {
	return []Category{
		{Name: "DEBT COLLECTED", Color: "#10B981", Type: CategoryIncome, Icon: "💰"},
		{Name: ConvertCategoryName, Color: "#6366F1", Type: CategoryConvert, Icon: "🔄", Description: "Wallet to wallet conversions"},
		{Name: "BUSINESS", Color: "#3B82F6", Type: CategoryIncome, Icon: "💼"},
		{Name: "SALARY", Color: "#22C55E", Type: CategoryIncome, Icon: "💵"},
		{Name: "ENTERTAINMENT", Color: "#F59E0B", Type: CategoryExpense, Icon: "🎮"},
		{Name: "OTHER", Color: "#6B7280", Type: CategoryExpense, Icon: "📦"},
	}
}

// DefaultWallets is the wallet set a fresh ledger starts with. Balances start at zero.
func DefaultWallets() []Wallet {
	return []Wallet{
		{Name: "CASH", Color: "#22C55E", Icon: "💵", Type: "cash"},
		{Name: "DANA", Color: "#3B82F6", Icon: "📱", Type: "ewallet"},
		{Name: "OVO", Color: "#8B5CF6", Icon: "📱", Type: "ewallet"},
	}
}
