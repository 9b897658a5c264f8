package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

const counterUpsertAttempts = 3

// InsertTransfer stores a numbered transfer.
func (r *Repository) InsertTransfer(ctx context.Context, t *models.Transfer) error {
	if _, err := r.collection(transfersCollection).InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

// GetTransfer loads one transfer.
func (r *Repository) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	var t models.Transfer
	if err := findOne(ctx, r.collection(transfersCollection), bson.M{"_id": id}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransfersByMonth returns transfers where the store is either side.
func (r *Repository) ListTransfersByMonth(ctx context.Context, storeID, month string) ([]models.Transfer, error) {
	filter := bson.M{
		"month": month,
		"$or": bson.A{
			bson.M{"fromStore": storeID},
			bson.M{"toStore": storeID},
		},
	}
	transfers := []models.Transfer{}
	sort := bson.D{{Key: "date", Value: 1}, {Key: "invoiceNumber", Value: 1}}
	if err := findAll(ctx, r.collection(transfersCollection), filter, sort, &transfers); err != nil {
		return nil, err
	}
	return transfers, nil
}

// UpdateTransferDelivery records the email status.
func (r *Repository) UpdateTransferDelivery(ctx context.Context, id string, d models.Delivery) error {
	return updateOne(ctx, r.collection(transfersCollection), bson.M{"_id": id}, bson.M{"$set": bson.M{"delivery": d}})
}

// SoftDeleteTransfer flags a transfer deleted.
func (r *Repository) SoftDeleteTransfer(ctx context.Context, id string, del models.SoftDelete) error {
	return updateOne(ctx, r.collection(transfersCollection), bson.M{"_id": id}, softDeleteUpdate(del))
}

// SetTransferFlag writes the follow-up flag.
func (r *Repository) SetTransferFlag(ctx context.Context, id string, flag models.Flag) error {
	update := bson.M{"$set": bson.M{
		"flagged":   flag.Flagged,
		"flagNote":  flag.FlagNote,
		"flaggedBy": flag.FlaggedBy,
		"flaggedAt": flag.FlaggedAt,
	}}
	return updateOne(ctx, r.collection(transfersCollection), bson.M{"_id": id}, update)
}

// NextTransferSequence atomically reads and advances the counter of a day.
// The single-document update is linearizable per key; the pipeline seeds an
// absent counter with next=1 before incrementing, so the first issue is 1.
func (r *Repository) NextTransferSequence(ctx context.Context, dateKey string) (int, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"next": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$next", 1}}, 1}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	coll := r.collection(transferCountersCollection)
	var lastErr error
	for attempt := 1; attempt <= counterUpsertAttempts; attempt++ {
		var before models.TransferCounter
		err := coll.FindOneAndUpdate(ctx, bson.M{"_id": dateKey}, update, opts).Decode(&before)
		switch {
		case err == nil:
			return before.Next, nil
		case errors.Is(err, mongo.ErrNoDocuments):
			// The upsert created the counter; this call owns sequence 1.
			return 1, nil
		case mongo.IsDuplicateKeyError(err):
			// Two first-of-the-day upserts raced; the loser retries as an update.
			r.logger.Debug("transfer counter upsert raced", zap.String("dateKey", dateKey), zap.Int("attempt", attempt))
			lastErr = err
			continue
		default:
			return 0, fmt.Errorf("failed to advance transfer counter %s: %w", dateKey, err)
		}
	}
	return 0, fmt.Errorf("failed to advance transfer counter %s: %w", dateKey, lastErr)
}
