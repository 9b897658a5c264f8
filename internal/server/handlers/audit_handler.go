package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/server/middleware"
	"github.com/mamadbah2/pettycash/internal/service/audit"
)

// Auditor records and lists reconciliations.
type Auditor interface {
	RecordDenominationAudit(ctx context.Context, storeID, month string, in audit.CountInput) (models.AuditView, error)
	ListDenominationAudits(ctx context.Context, storeID, month string) ([]models.AuditView, error)
	RecordClosingAudit(ctx context.Context, storeID string, in audit.ClosingInput) (models.ClosingAudit, error)
	ListClosingAudits(ctx context.Context, storeID, month string) ([]models.ClosingAudit, error)
}

// AuditHandler serves both audit trails.
type AuditHandler struct {
	svc    Auditor
	logger *zap.Logger
}

// NewAuditHandler constructs the HTTP handler adapter.
func NewAuditHandler(svc Auditor, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{svc: svc, logger: logger}
}

type countRequest struct {
	Month string `json:"month"`
	Date  string `json:"date"`

	models.Denominations

	Change float64 `json:"change"`
}

// RecordCount stores a denomination count and returns it with its variance.
func (h *AuditHandler) RecordCount(c *gin.Context) {
	var req countRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Month == "" {
		month, err := models.MonthOf(req.Date)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		req.Month = month
	}
	view, err := h.svc.RecordDenominationAudit(c.Request.Context(), middleware.StoreFrom(c), req.Month, audit.CountInput{
		Date:          req.Date,
		Denominations: req.Denominations,
		Change:        req.Change,
		Actor:         actorOf(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListCounts lists a month's counts with live variances.
func (h *AuditHandler) ListCounts(c *gin.Context) {
	views, err := h.svc.ListDenominationAudits(c.Request.Context(), middleware.StoreFrom(c), c.Query("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": views})
}

type closingRequest struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

// RecordClosing stores a signed closing-balance note.
func (h *AuditHandler) RecordClosing(c *gin.Context) {
	var req closingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	a, err := h.svc.RecordClosingAudit(c.Request.Context(), middleware.StoreFrom(c), audit.ClosingInput{
		Date:   req.Date,
		Amount: req.Amount,
		Note:   req.Note,
		Actor:  actorOf(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// ListClosings lists a month's closing-balance notes.
func (h *AuditHandler) ListClosings(c *gin.Context) {
	audits, err := h.svc.ListClosingAudits(c.Request.Context(), middleware.StoreFrom(c), c.Query("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": audits})
}
