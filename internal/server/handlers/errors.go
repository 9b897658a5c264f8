package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/auth"
	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/service/scan"
	"github.com/mamadbah2/pettycash/internal/service/transfers"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidMonth),
		errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, models.ErrInvoiceRequired),
		errors.Is(err, scan.ErrInvalidRequest),
		errors.Is(err, scan.ErrNoPages):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, scan.ErrSessionOwner):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transfers.ErrCounterConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": msg}. Unexpected errors are logged and
// their details kept out of the response.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func actorOf(c *gin.Context) string {
	if claims := claimsOf(c); claims != nil {
		return claims.UserID
	}
	return ""
}
