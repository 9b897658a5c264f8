package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/server/middleware"
	"github.com/mamadbah2/pettycash/internal/service/scan"
	"github.com/mamadbah2/pettycash/internal/ws"
)

const (
	maxUploadMemory = 32 << 20
	maxPageBytes    = 15 << 20
)

// Scanner is the server side of the scan handshake.
type Scanner interface {
	Claim(ctx context.Context, sessionID, userID string) (*models.ScanSession, error)
	Open(ctx context.Context, in scan.OpenInput) (scan.OpenResult, error)
	Complete(ctx context.Context, in scan.CompleteInput) (models.ScanCompletion, error)
	Poll(ctx context.Context, sessionID, userID string) (scan.Result, error)
	Drain(ctx context.Context, sessionID, userID string)
	Draft(ctx context.Context, sessionID, userID string) (*models.Attachment, error)
	ClearDraft(ctx context.Context, sessionID, userID string) error
}

// ScanHandler serves the opener and scanner endpoints and the live channel.
type ScanHandler struct {
	svc    Scanner
	hub    *ws.Hub
	now    func() time.Time
	logger *zap.Logger
}

// NewScanHandler constructs the HTTP handler adapter.
func NewScanHandler(svc Scanner, hub *ws.Hub, logger *zap.Logger) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanHandler{svc: svc, hub: hub, now: time.Now, logger: logger}
}

// Open records a pending request for the opener session.
func (h *ScanHandler) Open(c *gin.Context) {
	var in scan.OpenInput
	if err := c.ShouldBindJSON(&in); err != nil || in.SessionID == "" {
		badRequest(c, "session and mode are required")
		return
	}
	in.UserID = actorOf(c)
	in.StoreID = middleware.StoreFrom(c)

	res, err := h.svc.Open(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Params echoes the scanner URL parameters after applying safe defaults.
func (h *ScanHandler) Params(c *gin.Context) {
	c.JSON(http.StatusOK, scan.ParseParams(c.Request.URL.Query(), h.now()))
}

// UploadPages takes the ordered "pages" files of a capture.
func (h *ScanHandler) UploadPages(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		badRequest(c, "invalid multipart form")
		return
	}
	form := c.Request.MultipartForm
	files := form.File["pages"]
	if len(files) == 0 {
		respondError(c, h.logger, scan.ErrNoPages)
		return
	}

	pages := make([][]byte, 0, len(files))
	for i, fh := range files {
		data, err := readPage(fh)
		if err != nil {
			badRequest(c, fmt.Sprintf("page %d: %v", i+1, err))
			return
		}
		pages = append(pages, data)
	}

	completion, err := h.svc.Complete(c.Request.Context(), scan.CompleteInput{
		StoreID: middleware.StoreFrom(c),
		EntryID: c.Param("entry"),
		Nonce:   c.Request.FormValue("nonce"),
		Pages:   pages,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

func readPage(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxPageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxPageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxPageBytes))
}

type sessionRequest struct {
	SessionID string `json:"session" form:"session"`
}

// Poll consumes the fallback record of the session.
func (h *ScanHandler) Poll(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		badRequest(c, "session is required")
		return
	}
	res, err := h.svc.Poll(c.Request.Context(), req.SessionID, actorOf(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Draft returns the attachment held for the unsaved entry, if any.
func (h *ScanHandler) Draft(c *gin.Context) {
	sessionID := c.Query("session")
	if sessionID == "" {
		badRequest(c, "session is required")
		return
	}
	draft, err := h.svc.Draft(c.Request.Context(), sessionID, actorOf(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// ClearDraft drops the draft attachment.
func (h *ScanHandler) ClearDraft(c *gin.Context) {
	sessionID := c.Query("session")
	if sessionID == "" {
		badRequest(c, "session is required")
		return
	}
	if err := h.svc.ClearDraft(c.Request.Context(), sessionID, actorOf(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Live upgrades to a websocket subscribed to ?session. A result already
// waiting in the fallback store is pushed as soon as the client joins.
func (h *ScanHandler) Live(c *gin.Context) {
	sessionID := c.Query("session")
	if sessionID == "" {
		badRequest(c, "session is required")
		return
	}
	userID := actorOf(c)
	if _, err := h.svc.Claim(c.Request.Context(), sessionID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	conn, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, sessionID)
	h.hub.Register(client)
	go client.WritePump()

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	go func() {
		defer cancel()
		h.svc.Drain(drainCtx, sessionID, userID)
	}()

	client.ReadPump()
}
