package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// GetStore loads a store by id.
func (r *Repository) GetStore(ctx context.Context, id string) (*models.Store, error) {
	var s models.Store
	if err := findOne(ctx, r.collection(storesCollection), bson.M{"_id": models.NormalizeStoreID(id)}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStores returns every store ordered by id.
func (r *Repository) ListStores(ctx context.Context, activeOnly bool) ([]models.Store, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	stores := []models.Store{}
	if err := findAll(ctx, r.collection(storesCollection), filter, bson.D{{Key: "_id", Value: 1}}, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// UpsertStore creates or replaces a store.
func (r *Repository) UpsertStore(ctx context.Context, s models.Store) error {
	s.ID = models.NormalizeStoreID(s.ID)
	_, err := r.collection(storesCollection).ReplaceOne(ctx, bson.M{"_id": s.ID}, s, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert store %s: %w", s.ID, err)
	}
	return nil
}

// GetUserByEmail loads a user for login.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, r.collection(usersCollection), bson.M{"email": strings.ToLower(strings.TrimSpace(email))}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser loads a user by id.
func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, r.collection(usersCollection), bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser creates or replaces a user keyed by email.
func (r *Repository) UpsertUser(ctx context.Context, u models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for i, s := range u.Stores {
		u.Stores[i] = models.NormalizeStoreID(s)
	}
	_, err := r.collection(usersCollection).ReplaceOne(ctx, bson.M{"email": u.Email}, u, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
	}
	return nil
}
