package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// InsertCashIn stores a float refill.
func (r *Repository) InsertCashIn(ctx context.Context, c *models.CashIn) error {
	if _, err := r.collection(cashInsCollection).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to insert cash-in: %w", err)
	}
	return nil
}

// SoftDeleteCashIn flags a cash-in deleted.
func (r *Repository) SoftDeleteCashIn(ctx context.Context, storeID, id string, del models.SoftDelete) error {
	return updateOne(ctx, r.collection(cashInsCollection), bson.M{"_id": id, "storeId": storeID}, softDeleteUpdate(del))
}

// ListCashInsByMonth returns every cash-in of the month.
func (r *Repository) ListCashInsByMonth(ctx context.Context, storeID, month string) ([]models.CashIn, error) {
	cashIns := []models.CashIn{}
	if err := findAll(ctx, r.collection(cashInsCollection), storeMonthFilter(storeID, month), byDate(), &cashIns); err != nil {
		return nil, err
	}
	return cashIns, nil
}

// InsertDeposit stores a bank deposit.
func (r *Repository) InsertDeposit(ctx context.Context, d *models.Deposit) error {
	if _, err := r.collection(depositsCollection).InsertOne(ctx, d); err != nil {
		return fmt.Errorf("failed to insert deposit: %w", err)
	}
	return nil
}

// SoftDeleteDeposit flags a deposit deleted.
func (r *Repository) SoftDeleteDeposit(ctx context.Context, storeID, id string, del models.SoftDelete) error {
	return updateOne(ctx, r.collection(depositsCollection), bson.M{"_id": id, "storeId": storeID}, softDeleteUpdate(del))
}

// ListDepositsByMonth returns every deposit of the month.
func (r *Repository) ListDepositsByMonth(ctx context.Context, storeID, month string) ([]models.Deposit, error) {
	deposits := []models.Deposit{}
	if err := findAll(ctx, r.collection(depositsCollection), storeMonthFilter(storeID, month), byDate(), &deposits); err != nil {
		return nil, err
	}
	return deposits, nil
}
