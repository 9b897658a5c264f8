package mongodb

import (
	"context"
	"fmt"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// InsertDenominationAudit stores a cash count.
func (r *Repository) InsertDenominationAudit(ctx context.Context, audit models.DenominationAudit) error {
	if _, err := r.collection(denominationAuditsCollection).InsertOne(ctx, audit); err != nil {
		return fmt.Errorf("failed to insert denomination audit: %w", err)
	}
	return nil
}

// ListDenominationAudits returns the month's counts in date order.
func (r *Repository) ListDenominationAudits(ctx context.Context, storeID, month string) ([]models.DenominationAudit, error) {
	audits := []models.DenominationAudit{}
	if err := findAll(ctx, r.collection(denominationAuditsCollection), storeMonthFilter(storeID, month), byDate(), &audits); err != nil {
		return nil, err
	}
	return audits, nil
}

// InsertClosingAudit stores a closing-balance audit note.
func (r *Repository) InsertClosingAudit(ctx context.Context, audit models.ClosingAudit) error {
	if _, err := r.collection(closingAuditsCollection).InsertOne(ctx, audit); err != nil {
		return fmt.Errorf("failed to insert closing audit: %w", err)
	}
	return nil
}

// ListClosingAudits returns the month's closing audits in date order.
func (r *Repository) ListClosingAudits(ctx context.Context, storeID, month string) ([]models.ClosingAudit, error) {
	audits := []models.ClosingAudit{}
	if err := findAll(ctx, r.collection(closingAuditsCollection), storeMonthFilter(storeID, month), byDate(), &audits); err != nil {
		return nil, err
	}
	return audits, nil
}
