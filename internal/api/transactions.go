package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing
	"time"     // Date parsing

	"finance_tracker/internal/domain"  // Importing domain models
	"finance_tracker/internal/service" // Ledger operations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
)

// TransactionRequest is the body of create and update.
// Category and wallet may be given by id or by name; the id wins when both are set.
type TransactionRequest struct {
	Date        string          `json:"date" binding:"required"` // YYYY-MM-DD or RFC 3339
	CategoryID  uint            `json:"category_id"`             // Category by id
	Category    string          `json:"category"`                // Category by name
	WalletID    uint            `json:"wallet_id"`               // Wallet by id
	Wallet      string          `json:"wallet"`                  // Wallet by name
	Amount      decimal.Decimal `json:"amount"`                  // Positive magnitude
	Type        string          `json:"type" binding:"required"` // income or expense
	Description string          `json:"description"`             // Free text
	Status      string          `json:"status"`                  // completed (default) or pending
}

func (r TransactionRequest) input() (service.TransactionInput, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return service.TransactionInput{}, err
	}
	return service.TransactionInput{
		Date:        date,
		Category:    ref(r.CategoryID, r.Category),
		Wallet:      ref(r.WalletID, r.Wallet),
		Amount:      r.Amount,
		Type:        domain.TransactionType(r.Type),
		Description: r.Description,
		Status:      r.Status,
	}, nil
}

// ConvertRequest is the body of a wallet to wallet conversion
type ConvertRequest struct {
	Date           string          `json:"date" binding:"required"` // YYYY-MM-DD or RFC 3339
	SourceWalletID uint            `json:"source_wallet_id"`        // Source by id
	SourceWallet   string          `json:"source_wallet"`           // Source by name
	TargetWalletID uint            `json:"target_wallet_id"`        // Target by id
	TargetWallet   string          `json:"target_wallet"`           // Target by name
	Amount         decimal.Decimal `json:"amount"`                  // Amount moved before fees
	SourceAdminFee decimal.Decimal `json:"source_admin_fee"`        // Charged on top of the debit
	TargetAdminFee decimal.Decimal `json:"target_admin_fee"`        // Taken from the credit
	Description    string          `json:"description"`             // Optional note
}

func ref(id uint, name string) domain.Ref {
	if id != 0 {
		return domain.RefByID(id)
	}
	return domain.RefByName(name)
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp
func parseDate(field, s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.Invalid(field, "must be YYYY-MM-DD or RFC 3339")
}

// ListTransactionsHandler returns a filtered, sorted page of transactions
func ListTransactionsHandler(svc *service.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := service.ListQuery{
			Period: c.DefaultQuery("period", service.PeriodAll), // all, this-month, last-month
			Type:   domain.TransactionType(c.Query("type")),     // Filter by transaction type
			SortBy: c.Query("sort_by"),                          // Sort key
			Order:  c.Query("order"),                            // asc or desc
		}
		var err error
		// Parse numeric query params
		for key, dst := range map[string]*int{"page": &q.Page, "page_size": &q.PageSize} {
			if v := c.Query(key); v != "" {
				if *dst, err = strconv.Atoi(v); err != nil {
					badRequest(c, "Invalid "+key)
					return
				}
			}
		}
		for key, dst := range map[string]*uint{"wallet_id": &q.WalletID, "category_id": &q.CategoryID} {
			if v := c.Query(key); v != "" {
				n, err := strconv.ParseUint(v, 10, 64)
				if err != nil {
					badRequest(c, "Invalid "+key)
					return
				}
				*dst = uint(n)
			}
		}
		// Parse the explicit date range
		for key, dst := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
			if v := c.Query(key); v != "" {
				t, err := parseDate(key, v)
				if err != nil {
					respondError(c, err)
					return
				}
				if key == "to" && len(v) == len(time.DateOnly) {
					t = t.Add(24*time.Hour - time.Nanosecond) // A bare end date covers the whole day
				}
				*dst = &t
			}
		}

		page, err := svc.ListTransactions(c.Request.Context(), q)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page) // Return transaction page
	}
}

// CreateTransactionHandler records an income or expense
func CreateTransactionHandler(svc *service.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		in, err := req.input()
		if err != nil {
			respondError(c, err)
			return
		}
		tx, err := svc.CreateTransaction(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction created", "transaction": tx})
	}
}

// UpdateTransactionHandler replaces an existing transaction
func UpdateTransactionHandler(svc *service.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		in, err := req.input()
		if err != nil {
			respondError(c, err)
			return
		}
		tx, err := svc.UpdateTransaction(c.Request.Context(), id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction updated", "transaction": tx})
	}
}

// DeleteTransactionHandler removes a transaction
func DeleteTransactionHandler(svc *service.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := svc.DeleteTransaction(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
	}
}

// ConvertHandler moves money between two wallets
func ConvertHandler(svc *service.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConvertRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		date, err := parseDate("date", req.Date)
		if err != nil {
			respondError(c, err)
			return
		}
		res, err := svc.Convert(c.Request.Context(), service.ConvertInput{
			Date:           date,
			Source:         ref(req.SourceWalletID, req.SourceWallet),
			Target:         ref(req.TargetWalletID, req.TargetWallet),
			Amount:         req.Amount,
			SourceAdminFee: req.SourceAdminFee,
			TargetAdminFee: req.TargetAdminFee,
			Description:    req.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Convert completed", "convert": res})
	}
}
