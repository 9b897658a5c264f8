package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/metrics"
)

var (
	// ErrSessionOwner is returned when a session belongs to another user.
	ErrSessionOwner = errors.New("scan session belongs to another user")
	// ErrInvalidRequest wraps malformed open or complete requests.
	ErrInvalidRequest = errors.New("invalid scan request")
)

// Outcome is the result of processing one completion.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDiscarded Outcome = "discarded"
	// OutcomeNone means no completion was waiting.
	OutcomeNone Outcome = "none"
)

// Channel names the transport a completion arrived on.
type Channel string

const (
	ChannelLive     Channel = "live"
	ChannelFallback Channel = "fallback"
)

// ResultEvent is the websocket event type carrying a Result.
const ResultEvent = "pc-scan-result"

// Result reports what Accept did.
type Result struct {
	Outcome    Outcome            `json:"outcome"`
	Mode       models.ScanMode    `json:"mode,omitempty"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
}

// OpenInput opens a scanner for an opener session.
type OpenInput struct {
	SessionID string             `json:"session"`
	UserID    string             `json:"-"`
	StoreID   string             `json:"-"`
	Mode      models.ScanMode    `json:"mode"`
	EntryID   string             `json:"entryId"`
	Prefill   models.ScanPrefill `json:"prefill"`
}

// OpenResult tells the opener where to send the scanner.
type OpenResult struct {
	SessionID  string `json:"session"`
	EntryID    string `json:"entryId"`
	Nonce      string `json:"nonce"`
	ScannerURL string `json:"scannerUrl"`
}

// CompleteInput is a finished capture posted by the scanner.
type CompleteInput struct {
	StoreID string
	EntryID string
	Nonce   string
	Pages   [][]byte
}

// Service is the server side of the scan handshake. Every completion, from
// either channel, goes through Accept.
type Service struct {
	sessions  SessionStore
	fallback  FallbackStore
	locker    Locker
	publisher Publisher
	attacher  EntryAttacher
	blobs     BlobStore
	baseURL   string
	logger    *zap.Logger
	now       func() time.Time
}

// Config wires a Service.
type Config struct {
	Sessions  SessionStore
	Fallback  FallbackStore
	Locker    Locker
	Publisher Publisher
	Attacher  EntryAttacher
	Blobs     BlobStore
	// PublicBaseURL is prefixed to scanner URLs.
	PublicBaseURL string
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewService builds the handshake service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		sessions:  cfg.Sessions,
		fallback:  cfg.Fallback,
		locker:    cfg.Locker,
		publisher: cfg.Publisher,
		attacher:  cfg.Attacher,
		blobs:     cfg.Blobs,
		baseURL:   cfg.PublicBaseURL,
		logger:    logger,
		now:       now,
	}
}

func lockKey(sessionID string) string {
	return "pc-scan-lock:" + sessionID
}

// InvoiceKey is the deterministic object key of an entry's scanned invoice.
func InvoiceKey(storeID, entryID string) string {
	return fmt.Sprintf("invoices/%s/%s.pdf", models.NormalizeStoreID(storeID), entryID)
}

// Claim loads the session for userID, creating it on first use.
func (s *Service) Claim(ctx context.Context, sessionID, userID string) (*models.ScanSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("%w: malformed session id", ErrInvalidRequest)
	}
	session, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.ScanSession{ID: sessionID, UserID: userID, UpdatedAt: s.now().UTC()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scan session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionOwner
	}
	return session, nil
}

// Open records a fresh pending request for the session, superseding any
// earlier nonce, and returns the scanner URL.
func (s *Service) Open(ctx context.Context, in OpenInput) (OpenResult, error) {
	storeID := models.NormalizeStoreID(in.StoreID)
	switch in.Mode {
	case models.ScanModeNew:
		if in.EntryID == "" {
			in.EntryID = uuid.NewString()
		}
	case models.ScanModeEdit:
		if in.EntryID == "" {
			return OpenResult{}, fmt.Errorf("%w: edit mode needs an entry id", ErrInvalidRequest)
		}
	default:
		return OpenResult{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, in.Mode)
	}
	if _, err := uuid.Parse(in.EntryID); err != nil {
		return OpenResult{}, fmt.Errorf("%w: malformed entry id", ErrInvalidRequest)
	}
	if in.Prefill.Date == "" {
		in.Prefill.Date = s.now().Format(models.DateLayout)
	}

	unlock, err := s.locker.Lock(ctx, lockKey(in.SessionID))
	if err != nil {
		return OpenResult{}, err
	}
	defer unlock()

	session, err := s.Claim(ctx, in.SessionID, in.UserID)
	if err != nil {
		return OpenResult{}, err
	}

	req := models.ScanRequest{
		Mode:     in.Mode,
		StoreID:  storeID,
		EntryID:  in.EntryID,
		Nonce:    uuid.NewString(),
		Prefill:  in.Prefill,
		OpenedAt: s.now().UTC(),
	}

	if session.Draft != nil && (session.StoreID != storeID || session.Draft.EntryID != req.EntryID) {
		session.Draft = nil
	}
	session.StoreID = storeID
	session.Pending = &req
	session.UpdatedAt = req.OpenedAt

	if err := s.sessions.Save(ctx, session); err != nil {
		return OpenResult{}, fmt.Errorf("failed to save scan session: %w", err)
	}
	if err := s.sessions.BindNonce(ctx, req.Nonce, session.ID); err != nil {
		return OpenResult{}, fmt.Errorf("failed to bind nonce: %w", err)
	}

	s.logger.Info("scanner opened",
		zap.String("session", session.ID),
		zap.String("store", storeID),
		zap.String("entry", req.EntryID),
		zap.String("mode", string(req.Mode)),
	)

	return OpenResult{
		SessionID:  session.ID,
		EntryID:    req.EntryID,
		Nonce:      req.Nonce,
		ScannerURL: ScannerURL(s.baseURL, req),
	}, nil
}

// Complete assembles and uploads a capture, then emits the completion on
// both channels when its nonce is still current: the fallback record is
// written and connected openers are served live.
func (s *Service) Complete(ctx context.Context, in CompleteInput) (models.ScanCompletion, error) {
	storeID := models.NormalizeStoreID(in.StoreID)
	if _, err := uuid.Parse(in.EntryID); err != nil {
		return models.ScanCompletion{}, fmt.Errorf("%w: malformed entry id", ErrInvalidRequest)
	}

	doc, err := Assemble(in.Pages)
	if err != nil {
		return models.ScanCompletion{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	ref, err := s.blobs.Put(ctx, InvoiceKey(storeID, in.EntryID), doc, "application/pdf")
	if err != nil {
		return models.ScanCompletion{}, fmt.Errorf("failed to upload scan: %w", err)
	}

	completion := models.ScanCompletion{
		Type:    models.ScanCompleteType,
		StoreID: storeID,
		EntryID: in.EntryID,
		URL:     ref.URL,
		ViewURL: ref.ViewURL,
		Nonce:   in.Nonce,
	}

	sessionID, err := s.sessions.SessionForNonce(ctx, in.Nonce)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Info("scan completed for unknown nonce", zap.String("store", storeID), zap.String("entry", in.EntryID))
		return completion, nil
	}
	if err != nil {
		return completion, fmt.Errorf("failed to resolve nonce: %w", err)
	}

	current, err := s.stash(ctx, sessionID, completion)
	if err != nil {
		return completion, err
	}
	if !current {
		s.logger.Info("scan completed for superseded nonce",
			zap.String("session", sessionID),
			zap.String("entry", in.EntryID),
		)
		return completion, nil
	}

	if s.publisher != nil && s.publisher.Connected(sessionID) {
		res, err := s.Accept(ctx, sessionID, completion, ChannelLive)
		if err != nil {
			s.logger.Warn("live scan delivery failed", zap.String("session", sessionID), zap.Error(err))
		} else {
			s.publish(sessionID, res)
		}
	}

	return completion, nil
}

// stash writes the fallback record while c still answers the session's
// pending request. A superseded nonce must not replace the record of the
// current one.
func (s *Service) stash(ctx context.Context, sessionID string, c models.ScanCompletion) (bool, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(sessionID))
	if err != nil {
		return false, err
	}
	defer unlock()

	session, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load scan session: %w", err)
	}
	if session.Pending == nil || session.Pending.Nonce != c.Nonce {
		return false, nil
	}

	if err := s.fallback.Put(ctx, c.StoreID, sessionID, c); err != nil {
		s.logger.Warn("failed to write scan fallback", zap.String("session", sessionID), zap.Error(err))
	}
	return true, nil
}

// Poll consumes the fallback record of a session, if any.
func (s *Service) Poll(ctx context.Context, sessionID, userID string) (Result, error) {
	session, err := s.Claim(ctx, sessionID, userID)
	if err != nil {
		return Result{}, err
	}
	if session.StoreID == "" {
		return Result{Outcome: OutcomeNone}, nil
	}

	c, err := s.fallback.Take(ctx, session.StoreID, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read scan fallback: %w", err)
	}
	if c == nil {
		return Result{Outcome: OutcomeNone}, nil
	}
	return s.Accept(ctx, sessionID, *c, ChannelFallback)
}

// Drain is Poll for a freshly connected live client: any waiting result is
// pushed down the live channel.
func (s *Service) Drain(ctx context.Context, sessionID, userID string) {
	res, err := s.Poll(ctx, sessionID, userID)
	if err != nil {
		s.logger.Warn("failed to drain scan fallback", zap.String("session", sessionID), zap.Error(err))
		return
	}
	if res.Outcome != OutcomeNone {
		s.publish(sessionID, res)
	}
}

func (s *Service) publish(sessionID string, res Result) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(sessionID, ResultEvent, res); err != nil {
		s.logger.Warn("failed to publish scan result", zap.String("session", sessionID), zap.Error(err))
	}
}

// Accept validates a completion against the session's pending request and
// applies it. Mismatches are discarded without error; a completion already
// accepted is reported as a duplicate and changes nothing.
func (s *Service) Accept(ctx context.Context, sessionID string, c models.ScanCompletion, ch Channel) (Result, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(sessionID))
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	res, err := s.accept(ctx, sessionID, c)
	if err != nil {
		return Result{}, err
	}

	metrics.ScanCompletions.WithLabelValues(string(res.Outcome), string(ch)).Inc()
	s.logger.Info("scan completion processed",
		zap.String("session", sessionID),
		zap.String("entry", c.EntryID),
		zap.String("channel", string(ch)),
		zap.String("outcome", string(res.Outcome)),
	)
	return res, nil
}

func (s *Service) accept(ctx context.Context, sessionID string, c models.ScanCompletion) (Result, error) {
	discarded := Result{Outcome: OutcomeDiscarded}

	session, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return discarded, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load scan session: %w", err)
	}

	if c.Type != models.ScanCompleteType || c.URL == "" {
		return discarded, nil
	}
	fp := fingerprint(c)
	if session.LastAccepted == fp {
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	pending := session.Pending
	switch {
	case pending == nil:
		return discarded, nil
	case !strings.EqualFold(c.StoreID, pending.StoreID):
		return discarded, nil
	case pending.EntryID != "" && c.EntryID != pending.EntryID:
		return discarded, nil
	case pending.Nonce != "" && c.Nonce != pending.Nonce:
		return discarded, nil
	}

	now := s.now().UTC()
	attachment := &models.Attachment{EntryID: c.EntryID, URL: c.URL, ViewURL: c.ViewURL, AcceptedAt: now}

	switch pending.Mode {
	case models.ScanModeEdit:
		if err := s.attacher.AttachInvoice(ctx, pending.StoreID, c.EntryID, c.URL, session.UserID); err != nil {
			return Result{}, fmt.Errorf("failed to attach invoice to entry %s: %w", c.EntryID, err)
		}
	default:
		session.Draft = attachment
	}

	session.Pending = nil
	session.LastAccepted = fp
	session.UpdatedAt = now
	if err := s.sessions.Save(ctx, session); err != nil {
		return Result{}, fmt.Errorf("failed to save scan session: %w", err)
	}

	return Result{Outcome: OutcomeAccepted, Mode: pending.Mode, Attachment: attachment}, nil
}

// Draft returns the attachment held for an unsaved entry, or nil.
func (s *Service) Draft(ctx context.Context, sessionID, userID string) (*models.Attachment, error) {
	session, err := s.Claim(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return session.Draft, nil
}

// ClearDraft drops the draft attachment once the entry is saved or the form
// is reset. The pending request, if any, is left alone.
func (s *Service) ClearDraft(ctx context.Context, sessionID, userID string) error {
	unlock, err := s.locker.Lock(ctx, lockKey(sessionID))
	if err != nil {
		return err
	}
	defer unlock()

	session, err := s.Claim(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session.Draft == nil {
		return nil
	}
	session.Draft = nil
	session.UpdatedAt = s.now().UTC()
	return s.sessions.Save(ctx, session)
}

func fingerprint(c models.ScanCompletion) string {
	return strings.Join([]string{models.NormalizeStoreID(c.StoreID), c.EntryID, c.Nonce, c.URL}, "|")
}
