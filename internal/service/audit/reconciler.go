package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/domain/money"
)

// Repository persists both audit trails.
type Repository interface {
	InsertDenominationAudit(ctx context.Context, audit models.DenominationAudit) error
	ListDenominationAudits(ctx context.Context, storeID, month string) ([]models.DenominationAudit, error)
	InsertClosingAudit(ctx context.Context, audit models.ClosingAudit) error
	ListClosingAudits(ctx context.Context, storeID, month string) ([]models.ClosingAudit, error)
}

// BalanceSource yields the current closing balance of a store month.
type BalanceSource interface {
	Closing(ctx context.Context, storeID, month string) (float64, error)
}

// CountInput is a physical cash count.
type CountInput struct {
	Date          string
	Denominations models.Denominations
	Change        float64
	Actor         string
}

// ClosingInput is a signed closing-balance adjustment note.
type ClosingInput struct {
	Date   string
	Amount float64
	Note   string
	Actor  string
}

// Reconciler compares counted cash against the ledger.
type Reconciler struct {
	repo    Repository
	balance BalanceSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewReconciler wires a reconciler.
func NewReconciler(repo Repository, balance BalanceSource, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{repo: repo, balance: balance, logger: logger, now: time.Now}
}

// CountedTotal is the value of the bills plus loose change.
func CountedTotal(d models.Denominations, change float64) float64 {
	return money.Sum(d.BillsTotal(), change)
}

// Variance is counted minus closing. Negative means a shortage.
func Variance(counted, closing float64) float64 {
	return money.Sub(counted, closing)
}

// RecordDenominationAudit persists a count and returns it with its variance.
func (r *Reconciler) RecordDenominationAudit(ctx context.Context, storeID, month string, in CountInput) (models.AuditView, error) {
	if err := validateCount(month, in); err != nil {
		return models.AuditView{}, err
	}

	closing, err := r.balance.Closing(ctx, storeID, month)
	if err != nil {
		return models.AuditView{}, fmt.Errorf("compute closing balance: %w", err)
	}

	audit := models.DenominationAudit{
		ID:             uuid.NewString(),
		StoreID:        storeID,
		Date:           in.Date,
		Month:          month,
		Denominations:  in.Denominations,
		Change:         money.Round2(in.Change),
		Total:          CountedTotal(in.Denominations, in.Change),
		ClosingAtAudit: closing,
		CreatedBy:      in.Actor,
		CreatedAt:      r.now().UTC(),
	}

	if err := r.repo.InsertDenominationAudit(ctx, audit); err != nil {
		return models.AuditView{}, fmt.Errorf("save denomination audit: %w", err)
	}

	view := viewOf(audit, closing)
	r.logger.Info("denomination audit recorded",
		zap.String("store", storeID),
		zap.String("month", month),
		zap.Float64("counted", audit.Total),
		zap.Float64("variance", view.Variance))
	return view, nil
}

// ListDenominationAudits returns the month's audits with variances against
// the live closing balance.
func (r *Reconciler) ListDenominationAudits(ctx context.Context, storeID, month string) ([]models.AuditView, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return nil, err
	}

	audits, err := r.repo.ListDenominationAudits(ctx, storeID, month)
	if err != nil {
		return nil, fmt.Errorf("load denomination audits: %w", err)
	}
	if len(audits) == 0 {
		return []models.AuditView{}, nil
	}

	closing, err := r.balance.Closing(ctx, storeID, month)
	if err != nil {
		return nil, fmt.Errorf("compute closing balance: %w", err)
	}

	out := make([]models.AuditView, 0, len(audits))
	for _, a := range audits {
		out = append(out, viewOf(a, closing))
	}
	return out, nil
}

// RecordClosingAudit stores a signed amount with a note.
func (r *Reconciler) RecordClosingAudit(ctx context.Context, storeID string, in ClosingInput) (models.ClosingAudit, error) {
	month, err := models.MonthOf(in.Date)
	if err != nil {
		return models.ClosingAudit{}, err
	}

	audit := models.ClosingAudit{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Date:      in.Date,
		Month:     month,
		Amount:    money.Round2(in.Amount),
		Note:      in.Note,
		CreatedBy: in.Actor,
		CreatedAt: r.now().UTC(),
	}
	if err := r.repo.InsertClosingAudit(ctx, audit); err != nil {
		return models.ClosingAudit{}, fmt.Errorf("save closing audit: %w", err)
	}
	return audit, nil
}

// ListClosingAudits returns the month's closing-balance audit trail.
func (r *Reconciler) ListClosingAudits(ctx context.Context, storeID, month string) ([]models.ClosingAudit, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return nil, err
	}
	return r.repo.ListClosingAudits(ctx, storeID, month)
}

func viewOf(a models.DenominationAudit, closing float64) models.AuditView {
	return models.AuditView{
		DenominationAudit: a,
		Closing:           closing,
		Variance:          Variance(a.Total, closing),
		VarianceAtAudit:   Variance(a.Total, a.ClosingAtAudit),
	}
}

func validateCount(month string, in CountInput) error {
	if _, err := models.ParseMonth(month); err != nil {
		return err
	}
	dateMonth, err := models.MonthOf(in.Date)
	if err != nil {
		return err
	}
	if dateMonth != month {
		return fmt.Errorf("%w: date %s is outside month %s", models.ErrValidation, in.Date, month)
	}
	d := in.Denominations
	if d.N5 < 0 || d.N10 < 0 || d.N20 < 0 || d.N50 < 0 || d.N100 < 0 {
		return fmt.Errorf("%w: denomination counts must not be negative", models.ErrValidation)
	}
	if in.Change < 0 {
		return fmt.Errorf("%w: loose change must not be negative", models.ErrValidation)
	}
	return nil
}
