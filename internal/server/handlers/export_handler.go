package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/server/middleware"
	"github.com/mamadbah2/pettycash/internal/service/export"
)

// exportGrace keeps the session alive while a download is produced.
const exportGrace = 5 * time.Minute

// Exporter renders month exports.
type Exporter interface {
	Write(ctx context.Context, w io.Writer, storeID, month string, format export.Format) error
}

// ExportHandler serves journal and QuickBooks downloads.
type ExportHandler struct {
	svc      Exporter
	sessions SessionControl
	logger   *zap.Logger
}

// NewExportHandler constructs the HTTP handler adapter.
func NewExportHandler(svc Exporter, sessions SessionControl, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{svc: svc, sessions: sessions, logger: logger}
}

// Download renders ?month in ?format (csv, xlsx, quickbooks).
func (h *ExportHandler) Download(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	storeID := middleware.StoreFrom(c)
	month := c.Query("month")

	if claims := claimsOf(c); claims != nil && h.sessions != nil {
		h.sessions.Suppress(claims.SessionID(), exportGrace)
		defer h.sessions.Release(claims.SessionID())
	}

	var buf bytes.Buffer
	if err := h.svc.Write(c.Request.Context(), &buf, storeID, month, format); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(storeID, month)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
