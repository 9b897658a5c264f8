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

const (
	entriesCollection            = "entries"
	cashInsCollection            = "cashins"
	depositsCollection           = "deposits"
	openingOverridesCollection   = "opening_balances"
	denominationAuditsCollection = "denomination_audits"
	closingAuditsCollection      = "closing_audits"
	transfersCollection          = "transfers"
	transferCountersCollection   = "transfer_counters"
	storesCollection             = "stores"
	usersCollection              = "users"
)

// Repository is the MongoDB implementation of every persistence port.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the indexes the month-scoped queries rely on.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	storeMonth := mongo.IndexModel{Keys: bson.D{{Key: "storeId", Value: 1}, {Key: "month", Value: 1}}}

	indexes := map[string][]mongo.IndexModel{
		entriesCollection:            {storeMonth},
		cashInsCollection:            {storeMonth},
		depositsCollection:           {storeMonth},
		openingOverridesCollection:   {storeMonth},
		denominationAuditsCollection: {storeMonth},
		closingAuditsCollection:      {storeMonth},
		transfersCollection: {
			{Keys: bson.D{{Key: "fromStore", Value: 1}, {Key: "month", Value: 1}}},
			{Keys: bson.D{{Key: "toStore", Value: 1}, {Key: "month", Value: 1}}},
			{Keys: bson.D{{Key: "invoiceNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, idx := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}

	r.logger.Info("mongodb indexes ensured", zap.Int("collections", len(indexes)))
	return nil
}

// Ping checks the connection, used by the health endpoint.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *Repository) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// findOne decodes a single document, mapping a miss to models.ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter any, out any) error {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load %s document: %w", coll.Name(), err)
	}
	return nil
}

// findAll runs a sorted query and decodes every document into out.
func findAll(ctx context.Context, coll *mongo.Collection, filter any, sort bson.D, out any) error {
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return nil
}

// updateOne applies update to the single document matching filter.
func updateOne(ctx context.Context, coll *mongo.Collection, filter, update any) error {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update %s document: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func softDeleteUpdate(del models.SoftDelete) bson.M {
	return bson.M{"$set": bson.M{
		"deleted":   del.Deleted,
		"deletedBy": del.DeletedBy,
		"deletedAt": del.DeletedAt,
	}}
}

func storeMonthFilter(storeID, month string) bson.M {
	return bson.M{"storeId": storeID, "month": month}
}

func byDate() bson.D {
	return bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}}
}
