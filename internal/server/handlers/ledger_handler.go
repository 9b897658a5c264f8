package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/server/middleware"
	"github.com/mamadbah2/pettycash/internal/service/bookkeeping"
)

// Bookkeeper records the store-scoped movements of the float.
type Bookkeeper interface {
	CreateEntry(ctx context.Context, storeID, actor string, in bookkeeping.EntryInput) (*models.Entry, error)
	PatchEntry(ctx context.Context, storeID, id, actor string, u models.EntryUpdate) (*models.Entry, error)
	DeleteEntry(ctx context.Context, storeID, id, actor string) error
	ListEntries(ctx context.Context, storeID, month string, includeDeleted bool) ([]models.Entry, error)

	CreateCashIn(ctx context.Context, storeID, actor string, in bookkeeping.CashInInput) (*models.CashIn, error)
	DeleteCashIn(ctx context.Context, storeID, id, actor string) error
	ListCashIns(ctx context.Context, storeID, month string) ([]models.CashIn, error)

	CreateDeposit(ctx context.Context, storeID, actor string, in bookkeeping.DepositInput) (*models.Deposit, error)
	DeleteDeposit(ctx context.Context, storeID, id, actor string) error
	ListDeposits(ctx context.Context, storeID, month string) ([]models.Deposit, error)

	SetOpeningOverride(ctx context.Context, storeID, month, actor string, amount float64) (models.OpeningOverride, error)
	GetOpeningOverride(ctx context.Context, storeID, month string) (models.OpeningOverride, bool, error)
	ClearOpeningOverride(ctx context.Context, storeID, month string) error
}

// Summarizer derives month summaries.
type Summarizer interface {
	MonthSummary(ctx context.Context, storeID, month string) (models.MonthSummary, error)
	Summaries(ctx context.Context, storeID, from, to string) ([]models.MonthSummary, error)
}

// LedgerHandler serves entries, cash-ins, deposits, overrides and summaries.
type LedgerHandler struct {
	books  Bookkeeper
	ledger Summarizer
	logger *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(books Bookkeeper, ledger Summarizer, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{books: books, ledger: ledger, logger: logger}
}

// CreateEntry records an expenditure.
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	var in bookkeeping.EntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	entry, err := h.books.CreateEntry(c.Request.Context(), middleware.StoreFrom(c), actorOf(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// PatchEntry applies a partial update.
func (h *LedgerHandler) PatchEntry(c *gin.Context) {
	var u models.EntryUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	entry, err := h.books.PatchEntry(c.Request.Context(), middleware.StoreFrom(c), c.Param("id"), actorOf(c), u)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteEntry soft-deletes an entry.
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	if err := h.books.DeleteEntry(c.Request.Context(), middleware.StoreFrom(c), c.Param("id"), actorOf(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListEntries lists a month's entries; ?deleted=true includes soft-deleted ones.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.Query("deleted"))
	entries, err := h.books.ListEntries(c.Request.Context(), middleware.StoreFrom(c), c.Query("month"), includeDeleted)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// CreateCashIn records a float refill.
func (h *LedgerHandler) CreateCashIn(c *gin.Context) {
	var in bookkeeping.CashInInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cashIn, err := h.books.CreateCashIn(c.Request.Context(), middleware.StoreFrom(c), actorOf(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cashIn)
}

// DeleteCashIn soft-deletes a cash-in.
func (h *LedgerHandler) DeleteCashIn(c *gin.Context) {
	if err := h.books.DeleteCashIn(c.Request.Context(), middleware.StoreFrom(c), c.Param("id"), actorOf(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCashIns lists a month's live cash-ins.
func (h *LedgerHandler) ListCashIns(c *gin.Context) {
	cashIns, err := h.books.ListCashIns(c.Request.Context(), middleware.StoreFrom(c), c.Query("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cashIns": cashIns})
}

// CreateDeposit records a bank deposit.
func (h *LedgerHandler) CreateDeposit(c *gin.Context) {
	var in bookkeeping.DepositInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	deposit, err := h.books.CreateDeposit(c.Request.Context(), middleware.StoreFrom(c), actorOf(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, deposit)
}

// DeleteDeposit soft-deletes a deposit.
func (h *LedgerHandler) DeleteDeposit(c *gin.Context) {
	if err := h.books.DeleteDeposit(c.Request.Context(), middleware.StoreFrom(c), c.Param("id"), actorOf(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDeposits lists a month's live deposits.
func (h *LedgerHandler) ListDeposits(c *gin.Context) {
	deposits, err := h.books.ListDeposits(c.Request.Context(), middleware.StoreFrom(c), c.Query("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}

type overrideRequest struct {
	Amount *float64 `json:"amount"`
}

// SetOverride pins the opening balance of :month.
func (h *LedgerHandler) SetOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		badRequest(c, "amount is required")
		return
	}
	o, err := h.books.SetOpeningOverride(c.Request.Context(), middleware.StoreFrom(c), c.Param("month"), actorOf(c), *req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetOverride returns the override of :month, or 404.
func (h *LedgerHandler) GetOverride(c *gin.Context) {
	o, ok, err := h.books.GetOpeningOverride(c.Request.Context(), middleware.StoreFrom(c), c.Param("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no opening override for this month"})
		return
	}
	c.JSON(http.StatusOK, o)
}

// ClearOverride removes the override of :month.
func (h *LedgerHandler) ClearOverride(c *gin.Context) {
	if err := h.books.ClearOpeningOverride(c.Request.Context(), middleware.StoreFrom(c), c.Param("month")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary returns one month, or a from..to range when both are given.
func (h *LedgerHandler) Summary(c *gin.Context) {
	storeID := middleware.StoreFrom(c)
	from, to := c.Query("from"), c.Query("to")
	if from != "" && to != "" {
		summaries, err := h.ledger.Summaries(c.Request.Context(), storeID, from, to)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"summaries": summaries})
		return
	}

	summary, err := h.ledger.MonthSummary(c.Request.Context(), storeID, c.Query("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
