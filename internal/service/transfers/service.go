package transfers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/domain/money"
	"github.com/mamadbah2/pettycash/internal/metrics"
	"github.com/mamadbah2/pettycash/pkg/clients/mailer"
	"github.com/mamadbah2/pettycash/pkg/clients/notify"
)

// Repository persists transfers.
type Repository interface {
	InsertTransfer(ctx context.Context, t *models.Transfer) error
	GetTransfer(ctx context.Context, id string) (*models.Transfer, error)
	ListTransfersByMonth(ctx context.Context, storeID, month string) ([]models.Transfer, error)
	UpdateTransferDelivery(ctx context.Context, id string, d models.Delivery) error
	SoftDeleteTransfer(ctx context.Context, id string, del models.SoftDelete) error
	SetTransferFlag(ctx context.Context, id string, flag models.Flag) error
}

// StoreDirectory resolves store ids to stores.
type StoreDirectory interface {
	GetStore(ctx context.Context, id string) (*models.Store, error)
}

// BlobStore uploads rendered documents.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (models.BlobRef, error)
	Delete(ctx context.Context, key string) error
}

// Mailer delivers the transfer documents.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Notifier posts the transfer webhook.
type Notifier interface {
	NotifyTransfer(ctx context.Context, event notify.TransferEvent) error
}

// CreateInput is a transfer submission.
type CreateInput struct {
	Date      string                `json:"date"`
	FromStore string                `json:"fromStore"`
	ToStore   string                `json:"toStore"`
	Category  string                `json:"category"`
	Lines     []models.TransferLine `json:"lines"`
	HST       float64               `json:"hst"`
	Actor     string                `json:"-"`
}

// Service coordinates transfer creation and its side effects.
type Service struct {
	repo     Repository
	stores   StoreDirectory
	numberer *Numberer
	blobs    BlobStore
	mail     Mailer
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMailer enables email delivery.
func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mail = m }
}

// WithNotifier enables the outbound webhook.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a transfer service.
func NewService(repo Repository, stores StoreDirectory, numberer *Numberer, blobs BlobStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:     repo,
		stores:   stores,
		numberer: numberer,
		blobs:    blobs,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates, numbers, renders, uploads and persists a transfer, then
// attempts delivery. Failure to obtain a number aborts with no record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Transfer, error) {
	t, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	from, err := s.lookupStore(ctx, t.FromStore)
	if err != nil {
		return nil, err
	}
	to, err := s.lookupStore(ctx, t.ToStore)
	if err != nil {
		return nil, err
	}

	number, err := s.numberer.Next(ctx, t.Date)
	if err != nil {
		return nil, err
	}
	metrics.TransferInvoicesIssued.Inc()
	t.InvoiceNumber = number

	for _, dir := range []Direction{DirectionOut, DirectionIn} {
		doc, err := RenderDocument(*t, dir, *from, *to)
		if err != nil {
			return nil, err
		}
		ref, err := s.blobs.Put(ctx, documentKey(number, dir), doc, "application/pdf")
		if err != nil {
			return nil, fmt.Errorf("upload %s document: %w", dir, err)
		}
		if dir == DirectionOut {
			t.OutPDF = ref
		} else {
			t.InPDF = ref
		}
	}

	if err := s.repo.InsertTransfer(ctx, t); err != nil {
		s.discardDocuments(ctx, t)
		return nil, fmt.Errorf("failed to save transfer %s: %w", number, err)
	}

	s.logger.Info("transfer created",
		zap.String("invoice", number),
		zap.String("from", t.FromStore),
		zap.String("to", t.ToStore),
		zap.Float64("net", t.Net),
	)

	t.Delivery = s.deliver(ctx, t, from, to)
	s.notify(ctx, t)

	return t, nil
}

// discardDocuments removes the PDFs of a transfer that was never saved.
func (s *Service) discardDocuments(ctx context.Context, t *models.Transfer) {
	for _, ref := range []models.BlobRef{t.OutPDF, t.InPDF} {
		if ref.Key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, ref.Key); err != nil {
			s.logger.Warn("failed to discard transfer document", zap.String("key", ref.Key), zap.Error(err))
		}
	}
}

func (s *Service) prepare(in CreateInput) (*models.Transfer, error) {
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	from := models.NormalizeStoreID(in.FromStore)
	to := models.NormalizeStoreID(in.ToStore)
	switch {
	case from == "" || to == "":
		return nil, fmt.Errorf("%w: both stores are required", models.ErrValidation)
	case from == to:
		return nil, fmt.Errorf("%w: a store cannot transfer to itself", models.ErrValidation)
	}
	category, err := models.ParseTransferCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", models.ErrValidation)
	}
	if in.HST < 0 {
		return nil, fmt.Errorf("%w: hst must not be negative", models.ErrValidation)
	}

	lines := make([]models.TransferLine, 0, len(in.Lines))
	totals := make([]float64, 0, len(in.Lines))
	for i, l := range in.Lines {
		l.Name = strings.TrimSpace(l.Name)
		switch {
		case l.Name == "":
			return nil, fmt.Errorf("%w: line %d has no name", models.ErrValidation, i+1)
		case l.Quantity <= 0:
			return nil, fmt.Errorf("%w: line %d quantity must be positive", models.ErrValidation, i+1)
		case l.UnitCost < 0:
			return nil, fmt.Errorf("%w: line %d unit cost must not be negative", models.ErrValidation, i+1)
		}
		l.Total = money.Mul(l.Quantity, l.UnitCost)
		lines = append(lines, l)
		totals = append(totals, l.Total)
	}

	amount := money.Sum(totals...)
	hst := money.Round2(in.HST)
	now := s.now().UTC()

	return &models.Transfer{
		ID:        uuid.NewString(),
		Date:      date.Format(models.DateLayout),
		Month:     date.Format(models.MonthLayout),
		FromStore: from,
		ToStore:   to,
		Category:  category,
		Lines:     lines,
		Amount:    amount,
		HST:       hst,
		Net:       money.Sum(amount, hst),
		Delivery:  models.Delivery{Status: models.EmailNotSent},
		Audit:     models.Audit{CreatedBy: in.Actor, CreatedAt: now, UpdatedBy: in.Actor, UpdatedAt: now},
	}, nil
}

func (s *Service) lookupStore(ctx context.Context, id string) (*models.Store, error) {
	store, err := s.stores.GetStore(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown store %q", models.ErrValidation, id)
		}
		return nil, fmt.Errorf("failed to load store %s: %w", id, err)
	}
	return store, nil
}

// deliver emails both documents. The status write is best effort.
func (s *Service) deliver(ctx context.Context, t *models.Transfer, from, to *models.Store) models.Delivery {
	if s.mail == nil {
		return t.Delivery
	}

	var recipients []string
	for _, st := range []*models.Store{from, to} {
		if st.Email != "" {
			recipients = append(recipients, st.Email)
		}
	}
	if len(recipients) == 0 {
		return t.Delivery
	}

	msg := mailer.Message{
		To:      recipients,
		Subject: fmt.Sprintf("Transfer %s: %s to %s", t.InvoiceNumber, t.FromStore, t.ToStore),
		Body: fmt.Sprintf("Transfer %s dated %s (%s).\nNet: %.2f\nOUT: %s\nIN: %s\n",
			t.InvoiceNumber, t.Date, t.Category, t.Net, t.OutPDF.URL, t.InPDF.URL),
	}

	now := s.now().UTC()
	delivery := models.Delivery{Status: models.EmailSent, SentAt: &now}
	if err := s.mail.Send(ctx, msg); err != nil {
		if errors.Is(err, mailer.ErrDisabled) {
			return t.Delivery
		}
		s.logger.Warn("transfer email failed", zap.String("invoice", t.InvoiceNumber), zap.Error(err))
		delivery = models.Delivery{Status: models.EmailFailed, FailedAt: &now, Error: err.Error()}
	}
	metrics.TransferDeliveries.WithLabelValues(string(delivery.Status)).Inc()

	if err := s.repo.UpdateTransferDelivery(ctx, t.ID, delivery); err != nil {
		s.logger.Warn("failed to record transfer delivery", zap.String("invoice", t.InvoiceNumber), zap.Error(err))
	}
	return delivery
}

func (s *Service) notify(ctx context.Context, t *models.Transfer) {
	if s.notifier == nil {
		return
	}
	event := notify.TransferEvent{
		InvoiceNumber: t.InvoiceNumber,
		Date:          t.Date,
		FromStore:     t.FromStore,
		ToStore:       t.ToStore,
		Category:      string(t.Category),
		Net:           t.Net,
		OutPDF:        t.OutPDF.URL,
		InPDF:         t.InPDF.URL,
	}
	if err := s.notifier.NotifyTransfer(ctx, event); err != nil {
		s.logger.Warn("transfer webhook failed", zap.String("invoice", t.InvoiceNumber), zap.Error(err))
	}
}

// List returns the month's transfers where store is either side.
func (s *Service) List(ctx context.Context, storeID, month string) ([]models.Transfer, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return nil, err
	}
	transfers, err := s.repo.ListTransfersByMonth(ctx, models.NormalizeStoreID(storeID), month)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}

// Get returns one transfer.
func (s *Service) Get(ctx context.Context, id string) (*models.Transfer, error) {
	return s.repo.GetTransfer(ctx, id)
}

// Delete soft-deletes a transfer.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	now := s.now().UTC()
	return s.repo.SoftDeleteTransfer(ctx, id, models.SoftDelete{Deleted: true, DeletedBy: actor, DeletedAt: &now})
}

// SetFlag flags or unflags a transfer with an optional note.
func (s *Service) SetFlag(ctx context.Context, id string, flagged bool, note, actor string) error {
	flag := models.Flag{Flagged: flagged}
	if flagged {
		now := s.now().UTC()
		flag.FlagNote = strings.TrimSpace(note)
		flag.FlaggedBy = actor
		flag.FlaggedAt = &now
	}
	return s.repo.SetTransferFlag(ctx, id, flag)
}

func documentKey(invoice string, dir Direction) string {
	return fmt.Sprintf("transfers/%s/%s.pdf", invoice, dir)
}
