package bookkeeping

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
)

// Repository persists the store-scoped records. Every lookup is scoped by
// store so one tenant can never reach another's documents.
type Repository interface {
	InsertEntry(ctx context.Context, e *models.Entry) error
	GetEntry(ctx context.Context, storeID, id string) (*models.Entry, error)
	UpdateEntry(ctx context.Context, storeID, id string, u models.EntryUpdate) (*models.Entry, error)
	SoftDeleteEntry(ctx context.Context, storeID, id string, del models.SoftDelete) error
	ListEntriesByMonth(ctx context.Context, storeID, month string) ([]models.Entry, error)

	InsertCashIn(ctx context.Context, c *models.CashIn) error
	SoftDeleteCashIn(ctx context.Context, storeID, id string, del models.SoftDelete) error
	ListCashInsByMonth(ctx context.Context, storeID, month string) ([]models.CashIn, error)

	InsertDeposit(ctx context.Context, d *models.Deposit) error
	SoftDeleteDeposit(ctx context.Context, storeID, id string, del models.SoftDelete) error
	ListDepositsByMonth(ctx context.Context, storeID, month string) ([]models.Deposit, error)

	UpsertOpeningOverride(ctx context.Context, o models.OpeningOverride) error
	DeleteOpeningOverride(ctx context.Context, storeID, month string) error
	GetOpeningOverride(ctx context.Context, storeID, month string) (models.OpeningOverride, error)
}

// EntryInput is a new entry. ID may carry a draft id minted when a scan
// was opened before the entry existed.
type EntryInput struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Vendor      string  `json:"vendor"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	HST         float64 `json:"hst"`
	Account     string  `json:"account"`
	Department  string  `json:"dept"`
	InvoiceURL  string  `json:"invoiceUrl"`
}

// CashInInput is a float refill.
type CashInInput struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Source string  `json:"source"`
	Note   string  `json:"note"`
}

// DepositInput is a bank deposit.
type DepositInput struct {
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Note      string  `json:"note"`
}

// Service validates and stamps bookkeeping records.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the bookkeeping service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) stamp(actor string) models.Audit {
	now := s.now().UTC()
	return models.Audit{CreatedBy: actor, CreatedAt: now, UpdatedBy: actor, UpdatedAt: now}
}

func (s *Service) tombstone(actor string) models.SoftDelete {
	now := s.now().UTC()
	return models.SoftDelete{Deleted: true, DeletedBy: actor, DeletedAt: &now}
}

// CreateEntry saves an expenditure. An invoice reference is mandatory.
func (s *Service) CreateEntry(ctx context.Context, storeID, actor string, in EntryInput) (*models.Entry, error) {
	month, err := models.MonthOf(in.Date)
	if err != nil {
		return nil, err
	}
	dept, err := models.ParseDepartment(in.Department)
	if err != nil {
		return nil, err
	}
	vendor := strings.TrimSpace(in.Vendor)
	switch {
	case vendor == "":
		return nil, fmt.Errorf("%w: vendor is required", models.ErrValidation)
	case in.Amount <= 0:
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	case in.HST < 0:
		return nil, fmt.Errorf("%w: hst must not be negative", models.ErrValidation)
	case strings.TrimSpace(in.InvoiceURL) == "":
		return nil, models.ErrInvoiceRequired
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: malformed entry id", models.ErrValidation)
	}

	amount := money.Round2(in.Amount)
	hst := money.Round2(in.HST)
	entry := &models.Entry{
		ID:          id,
		StoreID:     storeID,
		Date:        in.Date,
		Month:       month,
		Vendor:      vendor,
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		HST:         hst,
		Net:         money.Net(amount, hst),
		Account:     strings.TrimSpace(in.Account),
		Department:  dept,
		InvoiceURL:  strings.TrimSpace(in.InvoiceURL),
		Audit:       s.stamp(actor),
	}

	if err := s.repo.InsertEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}
	s.logger.Info("entry created", zap.String("store", storeID), zap.String("entry", id), zap.Float64("amount", amount))
	return entry, nil
}

// PatchEntry applies a partial update. Net is recomputed against the
// persisted counterpart when only one of amount or hst is supplied.
func (s *Service) PatchEntry(ctx context.Context, storeID, id, actor string, u models.EntryUpdate) (*models.Entry, error) {
	if u.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrValidation)
	}

	current, err := s.repo.GetEntry(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if current.Deleted {
		return nil, fmt.Errorf("%w: entry is deleted", models.ErrValidation)
	}

	if u.Date != nil {
		month, err := models.MonthOf(*u.Date)
		if err != nil {
			return nil, err
		}
		u.Month = &month
	}
	if u.Vendor != nil {
		v := strings.TrimSpace(*u.Vendor)
		if v == "" {
			return nil, fmt.Errorf("%w: vendor is required", models.ErrValidation)
		}
		u.Vendor = &v
	}
	if u.Department != nil {
		dept, err := models.ParseDepartment(string(*u.Department))
		if err != nil {
			return nil, err
		}
		u.Department = &dept
	}
	if u.InvoiceURL != nil && strings.TrimSpace(*u.InvoiceURL) == "" {
		return nil, models.ErrInvoiceRequired
	}

	if u.Amount != nil || u.HST != nil {
		amount, hst := current.Amount, current.HST
		if u.Amount != nil {
			if *u.Amount <= 0 {
				return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
			}
			amount = money.Round2(*u.Amount)
			u.Amount = &amount
		}
		if u.HST != nil {
			if *u.HST < 0 {
				return nil, fmt.Errorf("%w: hst must not be negative", models.ErrValidation)
			}
			hst = money.Round2(*u.HST)
			u.HST = &hst
		}
		net := money.Net(amount, hst)
		u.Net = &net
	}

	u.UpdatedBy = actor
	u.UpdatedAt = s.now().UTC()

	updated, err := s.repo.UpdateEntry(ctx, storeID, id, u)
	if err != nil {
		return nil, fmt.Errorf("failed to update entry %s: %w", id, err)
	}
	return updated, nil
}

// AttachInvoice writes a scanned invoice reference onto a persisted entry.
func (s *Service) AttachInvoice(ctx context.Context, storeID, entryID, url, actor string) error {
	_, err := s.PatchEntry(ctx, storeID, entryID, actor, models.EntryUpdate{InvoiceURL: &url})
	return err
}

// DeleteEntry soft-deletes an entry.
func (s *Service) DeleteEntry(ctx context.Context, storeID, id, actor string) error {
	return s.repo.SoftDeleteEntry(ctx, storeID, id, s.tombstone(actor))
}

// ListEntries returns the month's entries, sorted by the repository.
func (s *Service) ListEntries(ctx context.Context, storeID, month string, includeDeleted bool) ([]models.Entry, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntriesByMonth(ctx, storeID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if includeDeleted {
		return entries, nil
	}
	live := entries[:0]
	for _, e := range entries {
		if !e.Deleted {
			live = append(live, e)
		}
	}
	return live, nil
}

// CreateCashIn records a refill of the float.
func (s *Service) CreateCashIn(ctx context.Context, storeID, actor string, in CashInInput) (*models.CashIn, error) {
	month, err := models.MonthOf(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	c := &models.CashIn{
		ID:      uuid.NewString(),
		StoreID: storeID,
		Date:    in.Date,
		Month:   month,
		Amount:  money.Round2(in.Amount),
		Source:  strings.TrimSpace(in.Source),
		Note:    strings.TrimSpace(in.Note),
		Audit:   s.stamp(actor),
	}
	if err := s.repo.InsertCashIn(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save cash-in: %w", err)
	}
	return c, nil
}

// DeleteCashIn soft-deletes a cash-in.
func (s *Service) DeleteCashIn(ctx context.Context, storeID, id, actor string) error {
	return s.repo.SoftDeleteCashIn(ctx, storeID, id, s.tombstone(actor))
}

// ListCashIns returns the month's live cash-ins.
func (s *Service) ListCashIns(ctx context.Context, storeID, month string) ([]models.CashIn, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return nil, err
	}
	all, err := s.repo.ListCashInsByMonth(ctx, storeID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash-ins: %w", err)
	}
	live := make([]models.CashIn, 0, len(all))
	for _, c := range all {
		if !c.Deleted {
			live = append(live, c)
		}
	}
	return live, nil
}

// CreateDeposit records a bank deposit.
func (s *Service) CreateDeposit(ctx context.Context, storeID, actor string, in DepositInput) (*models.Deposit, error) {
	month, err := models.MonthOf(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	d := &models.Deposit{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Date:      in.Date,
		Month:     month,
		Amount:    money.Round2(in.Amount),
		Reference: strings.TrimSpace(in.Reference),
		Note:      strings.TrimSpace(in.Note),
		Audit:     s.stamp(actor),
	}
	if err := s.repo.InsertDeposit(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}
	return d, nil
}

// DeleteDeposit soft-deletes a deposit.
func (s *Service) DeleteDeposit(ctx context.Context, storeID, id, actor string) error {
	return s.repo.SoftDeleteDeposit(ctx, storeID, id, s.tombstone(actor))
}

// ListDeposits returns the month's live deposits.
func (s *Service) ListDeposits(ctx context.Context, storeID, month string) ([]models.Deposit, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return nil, err
	}
	all, err := s.repo.ListDepositsByMonth(ctx, storeID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	live := make([]models.Deposit, 0, len(all))
	for _, d := range all {
		if !d.Deleted {
			live = append(live, d)
		}
	}
	return live, nil
}

// SetOpeningOverride pins the opening balance of a month. Negative values
// are allowed: a float can be overdrawn.
func (s *Service) SetOpeningOverride(ctx context.Context, storeID, month, actor string, amount float64) (models.OpeningOverride, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return models.OpeningOverride{}, err
	}
	o := models.OpeningOverride{
		ID:        models.OpeningOverrideID(storeID, month),
		StoreID:   storeID,
		Month:     month,
		Amount:    money.Round2(amount),
		UpdatedBy: actor,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.UpsertOpeningOverride(ctx, o); err != nil {
		return models.OpeningOverride{}, fmt.Errorf("failed to save opening override: %w", err)
	}
	s.logger.Info("opening override set", zap.String("store", storeID), zap.String("month", month), zap.Float64("amount", o.Amount))
	return o, nil
}

// GetOpeningOverride returns the override of a month, if any.
func (s *Service) GetOpeningOverride(ctx context.Context, storeID, month string) (models.OpeningOverride, bool, error) {
	o, err := s.repo.GetOpeningOverride(ctx, storeID, month)
	if errors.Is(err, models.ErrNotFound) {
		return models.OpeningOverride{}, false, nil
	}
	if err != nil {
		return models.OpeningOverride{}, false, err
	}
	return o, true, nil
}

// ClearOpeningOverride removes a month's override so the opening carries
// forward again.
func (s *Service) ClearOpeningOverride(ctx context.Context, storeID, month string) error {
	if _, err := models.ParseMonth(month); err != nil {
		return err
	}
	return s.repo.DeleteOpeningOverride(ctx, storeID, month)
}
