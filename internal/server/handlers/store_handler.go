package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// StoreDirectory lists and maintains stores.
type StoreDirectory interface {
	ListStores(ctx context.Context, activeOnly bool) ([]models.Store, error)
	UpsertStore(ctx context.Context, s models.Store) error
}

// StoreHandler serves the store list and its admin maintenance.
type StoreHandler struct {
	stores StoreDirectory
	logger *zap.Logger
}

// NewStoreHandler constructs the HTTP handler adapter.
func NewStoreHandler(stores StoreDirectory, logger *zap.Logger) *StoreHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreHandler{stores: stores, logger: logger}
}

// List returns the active stores the caller can reach.
func (h *StoreHandler) List(c *gin.Context) {
	all, err := h.stores.ListStores(c.Request.Context(), true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	claims := claimsOf(c)
	visible := make([]models.Store, 0, len(all))
	for _, s := range all {
		if claims.CanAccessStore(s.ID) {
			visible = append(visible, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{"stores": visible})
}

type storeRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active *bool  `json:"active"`
}

// Upsert creates or replaces the :id store.
func (h *StoreHandler) Upsert(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id := models.NormalizeStoreID(c.Param("id"))
	name := strings.TrimSpace(req.Name)
	if id == "" || name == "" {
		badRequest(c, "store id and name are required")
		return
	}
	store := models.Store{ID: id, Name: name, Email: strings.TrimSpace(req.Email), Active: true}
	if req.Active != nil {
		store.Active = *req.Active
	}
	if err := h.stores.UpsertStore(c.Request.Context(), store); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("store saved", zap.String("store", id), zap.String("by", actorOf(c)))
	c.JSON(http.StatusOK, store)
}
