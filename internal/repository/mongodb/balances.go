package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// UpsertOpeningOverride writes the override of a (store, month).
func (r *Repository) UpsertOpeningOverride(ctx context.Context, o models.OpeningOverride) error {
	o.ID = models.OpeningOverrideID(o.StoreID, o.Month)
	_, err := r.collection(openingOverridesCollection).
		ReplaceOne(ctx, bson.M{"_id": o.ID}, o, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert opening override: %w", err)
	}
	return nil
}

// DeleteOpeningOverride removes an override. Removing a missing one is a no-op.
func (r *Repository) DeleteOpeningOverride(ctx context.Context, storeID, month string) error {
	_, err := r.collection(openingOverridesCollection).
		DeleteOne(ctx, bson.M{"_id": models.OpeningOverrideID(storeID, month)})
	if err != nil {
		return fmt.Errorf("failed to delete opening override: %w", err)
	}
	return nil
}

// GetOpeningOverride returns models.ErrNotFound when the month has no override.
func (r *Repository) GetOpeningOverride(ctx context.Context, storeID, month string) (models.OpeningOverride, error) {
	var o models.OpeningOverride
	err := findOne(ctx, r.collection(openingOverridesCollection), bson.M{"_id": models.OpeningOverrideID(storeID, month)}, &o)
	return o, err
}

// EarliestActivityMonth finds the first month holding an entry, a cash-in or
// an override. Deleted records count: they still mark where history starts.
func (r *Repository) EarliestActivityMonth(ctx context.Context, storeID string) (string, bool, error) {
	var (
		earliest string
		found    bool
	)

	opts := options.FindOne().
		SetSort(bson.D{{Key: "month", Value: 1}}).
		SetProjection(bson.M{"month": 1})

	for _, name := range []string{entriesCollection, cashInsCollection, openingOverridesCollection} {
		var doc struct {
			Month string `bson:"month"`
		}
		err := r.collection(name).FindOne(ctx, bson.M{"storeId": storeID}, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to find earliest %s month: %w", name, err)
		}
		if !found || doc.Month < earliest {
			earliest = doc.Month
			found = true
		}
	}

	return earliest, found, nil
}

// ListActiveMonths returns the distinct months with entries for a store.
func (r *Repository) ListActiveMonths(ctx context.Context, storeID string) ([]string, error) {
	raw, err := r.collection(entriesCollection).Distinct(ctx, "month", bson.M{"storeId": storeID})
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	months := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			months = append(months, s)
		}
	}
	return months, nil
}
