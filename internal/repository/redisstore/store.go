package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/config"
	"github.com/mamadbah2/pettycash/internal/domain/models"
)

const (
	sessionTTL = 24 * time.Hour
	lockTTL    = 15 * time.Second
)

// Store keeps scan handshake state in Redis so every replica and every
// reload of the opener sees the same pending request.
type Store struct {
	rdb         *redis.Client
	locker      *redislock.Client
	fallbackTTL time.Duration
	logger      *zap.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	return New(rdb, cfg.FallbackTTL, logger), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, fallbackTTL time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		rdb:         rdb,
		locker:      redislock.New(rdb),
		fallbackTTL: fallbackTTL,
		logger:      logger,
	}
}

func sessionKey(id string) string {
	return "pc-scan-session:" + id
}

func nonceKey(nonce string) string {
	return "pc-scan-nonce:" + nonce
}

// FallbackKey is where the durable copy of a completion waits.
func FallbackKey(storeID, sessionID string) string {
	return fmt.Sprintf("pc-scan:%s:%s", models.NormalizeStoreID(storeID), sessionID)
}

// Load returns models.ErrNotFound for an unknown or expired session.
func (s *Store) Load(ctx context.Context, sessionID string) (*models.ScanSession, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scan session: %w", err)
	}

	var session models.ScanSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode scan session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Save writes the session and refreshes its expiry.
func (s *Store) Save(ctx context.Context, session *models.ScanSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode scan session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), raw, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to write scan session: %w", err)
	}
	return nil
}

// BindNonce records which session issued a nonce.
func (s *Store) BindNonce(ctx context.Context, nonce, sessionID string) error {
	return s.rdb.Set(ctx, nonceKey(nonce), sessionID, sessionTTL).Err()
}

// SessionForNonce resolves a nonce to its issuing session.
func (s *Store) SessionForNonce(ctx context.Context, nonce string) (string, error) {
	if nonce == "" {
		return "", models.ErrNotFound
	}
	id, err := s.rdb.Get(ctx, nonceKey(nonce)).Result()
	if errors.Is(err, redis.Nil) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve nonce: %w", err)
	}
	return id, nil
}

// Put stores the fallback copy of a completion, replacing any older one.
func (s *Store) Put(ctx context.Context, storeID, sessionID string, c models.ScanCompletion) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode completion: %w", err)
	}
	return s.rdb.Set(ctx, FallbackKey(storeID, sessionID), raw, s.fallbackTTL).Err()
}

// Take atomically reads and deletes the fallback record.
func (s *Store) Take(ctx context.Context, storeID, sessionID string) (*models.ScanCompletion, error) {
	raw, err := s.rdb.GetDel(ctx, FallbackKey(storeID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take completion: %w", err)
	}

	var c models.ScanCompletion
	if err := json.Unmarshal(raw, &c); err != nil {
		// A corrupt record is dropped; there is nothing to retry.
		s.logger.Warn("discarding undecodable scan fallback", zap.String("session", sessionID), zap.Error(err))
		return nil, nil
	}
	return &c, nil
}

// Lock obtains the session lock, retrying until ctx is done.
func (s *Store) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := s.locker.Obtain(ctx, key, lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 100),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("scan session %s is busy: %w", key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}

	return func() {
		// Background: the caller's context may already be cancelled.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			s.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
