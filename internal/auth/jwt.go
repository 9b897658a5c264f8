package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// Claims identify a user, their role and the stores they may reach. The
// token id (jti) doubles as the idle-watchdog session id.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	Stores []string    `json:"stores"`
	jwt.RegisteredClaims
}

// CanAccessStore reports whether the claims reach storeID. Admins reach
// every store; ids compare case-insensitively.
func (c *Claims) CanAccessStore(storeID string) bool {
	if c == nil {
		return false
	}
	if c.Role == models.RoleAdmin {
		return true
	}
	want := models.NormalizeStoreID(storeID)
	for _, s := range c.Stores {
		if models.NormalizeStoreID(s) == want {
			return true
		}
	}
	return false
}

// SessionID is the watchdog key of the token.
func (c *Claims) SessionID() string {
	return c.ID
}

func GenerateToken(secret string, user models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	stores := make([]string, 0, len(user.Stores))
	for _, s := range user.Stores {
		stores = append(stores, models.NormalizeStoreID(s))
	}
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		Stores: stores,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ID == "" || strings.TrimSpace(claims.UserID) == "" {
		return nil, fmt.Errorf("token is missing its id or subject")
	}
	return claims, nil
}
