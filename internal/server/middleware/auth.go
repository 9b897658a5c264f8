package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/auth"
	"github.com/mamadbah2/pettycash/internal/domain/models"
)

const (
	claimsKey = "claims"
	storeKey  = "storeID"
)

// SessionTracker records activity against the idle watchdog.
type SessionTracker interface {
	Touch(id, userID string) bool
}

// Authenticate validates the bearer token and touches the idle watchdog.
// Websocket clients cannot set headers, so a token query parameter is
// accepted as well.
func Authenticate(secret string, sessions SessionTracker, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token not provided"})
			return
		}

		claims, err := auth.ValidateToken(secret, token)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization token"})
			return
		}

		if sessions != nil && !sessions.Touch(claims.SessionID(), claims.UserID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// RequireStore rejects callers that cannot reach the :store path parameter
// and stores the normalized id on the context.
func RequireStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID := models.NormalizeStoreID(c.Param("store"))
		claims := ClaimsFrom(c)
		if storeID == "" || !claims.CanAccessStore(storeID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": models.ErrForbidden.Error()})
			return
		}
		c.Set(storeKey, storeID)
		c.Next()
	}
}

// RequireRole lets only the given role through.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": models.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims set by Authenticate, or nil.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// StoreFrom returns the store id set by RequireStore.
func StoreFrom(c *gin.Context) string {
	return c.GetString(storeKey)
}

// SetClaims is used by tests to bypass token validation.
func SetClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
}
