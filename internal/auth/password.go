package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// HashPassword bcrypt-hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash with a candidate password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// UserStore looks users up for login.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// LoginResult is returned to the browser on a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// Authenticator issues tokens for valid credentials.
type Authenticator struct {
	users  UserStore
	secret string
	ttl    time.Duration
	logger *zap.Logger
}

// NewAuthenticator wires a login service.
func NewAuthenticator(users UserStore, secret string, ttl time.Duration, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{users: users, secret: secret, ttl: ttl, logger: logger}
}

// Login checks credentials and returns a signed token.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		a.logger.Info("login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(a.secret, *user, a.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: time.Now().Add(a.ttl), User: *user}, nil
}

// Secret exposes the signing key to the token middleware.
func (a *Authenticator) Secret() string {
	return a.secret
}
