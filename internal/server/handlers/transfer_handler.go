package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/server/middleware"
	"github.com/mamadbah2/pettycash/internal/service/transfers"
)

// Transferer issues and manages inter-store transfers.
type Transferer interface {
	Create(ctx context.Context, in transfers.CreateInput) (*models.Transfer, error)
	List(ctx context.Context, storeID, month string) ([]models.Transfer, error)
	Get(ctx context.Context, id string) (*models.Transfer, error)
	Delete(ctx context.Context, id, actor string) error
	SetFlag(ctx context.Context, id string, flagged bool, note, actor string) error
}

// TransferHandler serves transfers. A store sees the transfers it sent or
// received; flagging is admin only.
type TransferHandler struct {
	svc    Transferer
	logger *zap.Logger
}

// NewTransferHandler constructs the HTTP handler adapter.
func NewTransferHandler(svc Transferer, logger *zap.Logger) *TransferHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferHandler{svc: svc, logger: logger}
}

// Create issues a transfer from the :store store.
func (h *TransferHandler) Create(c *gin.Context) {
	var in transfers.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	storeID := middleware.StoreFrom(c)
	if in.FromStore == "" {
		in.FromStore = storeID
	}
	if models.NormalizeStoreID(in.FromStore) != storeID {
		respondError(c, h.logger, models.ErrForbidden)
		return
	}
	in.Actor = actorOf(c)

	t, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// List returns the month's transfers touching the store.
func (h *TransferHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.StoreFrom(c), c.Query("month"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": list})
}

// Get returns one transfer.
func (h *TransferHandler) Get(c *gin.Context) {
	t, err := h.visible(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete soft-deletes a transfer.
func (h *TransferHandler) Delete(c *gin.Context) {
	if _, err := h.visible(c); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type flagRequest struct {
	Flagged bool   `json:"flagged"`
	Note    string `json:"note"`
}

// SetFlag flags or unflags a transfer.
func (h *TransferHandler) SetFlag(c *gin.Context) {
	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.svc.SetFlag(c.Request.Context(), c.Param("id"), req.Flagged, req.Note, actorOf(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// visible loads :id and hides transfers the store is not a party to.
func (h *TransferHandler) visible(c *gin.Context) (*models.Transfer, error) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	storeID := middleware.StoreFrom(c)
	if models.NormalizeStoreID(t.FromStore) != storeID && models.NormalizeStoreID(t.ToStore) != storeID {
		return nil, models.ErrNotFound
	}
	return t, nil
}
