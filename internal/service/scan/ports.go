package scan

import (
	"context"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// SessionStore persists opener sessions and the nonce correlation table.
type SessionStore interface {
	// Load returns models.ErrNotFound for an unknown session.
	Load(ctx context.Context, sessionID string) (*models.ScanSession, error)
	Save(ctx context.Context, session *models.ScanSession) error
	BindNonce(ctx context.Context, nonce, sessionID string) error
	// SessionForNonce returns models.ErrNotFound for an unknown nonce.
	SessionForNonce(ctx context.Context, nonce string) (string, error)
}

// FallbackStore holds the durable copy of a completion until it is consumed.
type FallbackStore interface {
	Put(ctx context.Context, storeID, sessionID string, c models.ScanCompletion) error
	// Take returns nil without error when nothing is waiting. A record is
	// returned at most once.
	Take(ctx context.Context, storeID, sessionID string) (*models.ScanCompletion, error)
}

// Locker serializes work on one session across replicas.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Publisher is the live channel to connected openers.
type Publisher interface {
	Connected(sessionID string) bool
	Publish(sessionID string, eventType string, payload any) error
}

// EntryAttacher writes an invoice reference onto a persisted entry.
type EntryAttacher interface {
	AttachInvoice(ctx context.Context, storeID, entryID, url, actor string) error
}

// BlobStore uploads assembled documents.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (models.BlobRef, error)
}
