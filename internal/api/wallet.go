package api

import (
	"net/http" // HTTP status codes

	"finance_tracker/internal/domain"  // Importing domain models
	"finance_tracker/internal/service" // Settings operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// WalletRequest is the body of wallet create and update. Balance is not accepted;
// it only ever changes through transactions.
type WalletRequest struct {
	Name        string `json:"name" binding:"required"` // Unique display name
	Color       string `json:"color"`                   // Display color
	Icon        string `json:"icon"`                    // Display icon
	Type        string `json:"type"`                    // cash, ewallet, bank, other
	Description string `json:"description"`             // Free text
}

func (r WalletRequest) input() service.WalletInput {
	return service.WalletInput{Name: r.Name, Color: r.Color, Icon: r.Icon, Type: r.Type, Description: r.Description}
}

// CategoryRequest is the body of category create and update
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"` // Unique display name
	Color       string `json:"color"`                   // Display color
	Type        string `json:"type" binding:"required"` // income, expense, transfer, convert
	Icon        string `json:"icon"`                    // Display icon
	Description string `json:"description"`             // Free text
}

func (r CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        r.Name,
		Color:       r.Color,
		Type:        domain.CategoryType(r.Type),
		Icon:        r.Icon,
		Description: r.Description,
	}
}

// ListWalletsHandler returns every wallet with its balance
func ListWalletsHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallets, err := svc.ListWallets(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"wallets": wallets})
	}
}

// CreateWalletHandler creates a wallet with zero balance
func CreateWalletHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		wallet, err := svc.CreateWallet(c.Request.Context(), req.input())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Wallet created", "wallet": wallet})
	}
}

// UpdateWalletHandler edits wallet metadata
func UpdateWalletHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req WalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		wallet, err := svc.UpdateWallet(c.Request.Context(), id, req.input())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Wallet updated", "wallet": wallet})
	}
}

// DeleteWalletHandler deletes an unused wallet
func DeleteWalletHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := svc.DeleteWallet(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Wallet deleted"})
	}
}

// ListCategoriesHandler returns every category
func ListCategoriesHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

// CreateCategoryHandler creates a category
func CreateCategoryHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		category, err := svc.CreateCategory(c.Request.Context(), req.input())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
	}
}

// UpdateCategoryHandler edits a category
func UpdateCategoryHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		category, err := svc.UpdateCategory(c.Request.Context(), id, req.input())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category updated", "category": category})
	}
}

// DeleteCategoryHandler deletes an unused category
func DeleteCategoryHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := svc.DeleteCategory(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
	}
}
