package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/auth"
	"github.com/mamadbah2/pettycash/internal/server/middleware"
)

// LoginService checks credentials.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// SessionControl is the idle watchdog as seen by handlers.
type SessionControl interface {
	End(id string)
	Suppress(id string, d time.Duration)
	Release(id string)
}

// AuthHandler serves login and logout.
type AuthHandler struct {
	svc      LoginService
	sessions SessionControl
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc LoginService, sessions SessionControl, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, sessions: sessions, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout ends the idle-watchdog session of the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims := claimsOf(c); claims != nil && h.sessions != nil {
		h.sessions.End(claims.SessionID())
	}
	c.Status(http.StatusNoContent)
}

// Me echoes the caller's claims.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsOf(c)
	c.JSON(http.StatusOK, gin.H{
		"userId": claims.UserID,
		"role":   claims.Role,
		"stores": claims.Stores,
	})
}

func claimsOf(c *gin.Context) *auth.Claims {
	return middleware.ClaimsFrom(c)
}
