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

// InsertEntry stores a new entry.
func (r *Repository) InsertEntry(ctx context.Context, e *models.Entry) error {
	if _, err := r.collection(entriesCollection).InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: entry %s already exists", models.ErrValidation, e.ID)
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// GetEntry loads one entry of a store.
func (r *Repository) GetEntry(ctx context.Context, storeID, id string) (*models.Entry, error) {
	var e models.Entry
	if err := findOne(ctx, r.collection(entriesCollection), bson.M{"_id": id, "storeId": storeID}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEntry applies the non-nil fields of u and returns the stored entry.
func (r *Repository) UpdateEntry(ctx context.Context, storeID, id string, u models.EntryUpdate) (*models.Entry, error) {
	set := bson.M{"updatedBy": u.UpdatedBy, "updatedAt": u.UpdatedAt}
	if u.Date != nil {
		set["date"] = *u.Date
	}
	if u.Month != nil {
		set["month"] = *u.Month
	}
	if u.Vendor != nil {
		set["vendor"] = *u.Vendor
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Amount != nil {
		set["amount"] = *u.Amount
	}
	if u.HST != nil {
		set["hst"] = *u.HST
	}
	if u.Net != nil {
		set["net"] = *u.Net
	}
	if u.Account != nil {
		set["account"] = *u.Account
	}
	if u.Department != nil {
		set["dept"] = *u.Department
	}
	if u.InvoiceURL != nil {
		set["invoiceUrl"] = *u.InvoiceURL
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Entry
	err := r.collection(entriesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id, "storeId": storeID}, bson.M{"$set": set}, opts).
		Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update entry %s: %w", id, err)
	}
	return &e, nil
}

// SoftDeleteEntry flags an entry deleted.
func (r *Repository) SoftDeleteEntry(ctx context.Context, storeID, id string, del models.SoftDelete) error {
	return updateOne(ctx, r.collection(entriesCollection), bson.M{"_id": id, "storeId": storeID}, softDeleteUpdate(del))
}

// ListEntriesByMonth returns every entry of the month, deleted ones included.
func (r *Repository) ListEntriesByMonth(ctx context.Context, storeID, month string) ([]models.Entry, error) {
	entries := []models.Entry{}
	if err := findAll(ctx, r.collection(entriesCollection), storeMonthFilter(storeID, month), byDate(), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
