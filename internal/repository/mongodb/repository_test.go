package mongodb

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

func mockRepository(mt *mtest.T) *Repository {
	return &Repository{client: mt.Client, db: mt.DB, logger: zap.NewNop()}
}

func TestNextTransferSequence(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("existing counter returns pre-increment value", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: "20250315"}, {Key: "next", Value: 4}}},
		))

		got, err := mockRepository(mt).NextTransferSequence(context.Background(), "20250315")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != 4 {
			t.Errorf("got %d, want 4", got)
		}
	})

	mt.Run("absent counter issues one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		got, err := mockRepository(mt).NextTransferSequence(context.Background(), "20250316")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != 1 {
			t.Errorf("got %d, want 1", got)
		}
	})

	mt.Run("duplicate upsert retries", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: "20250317"}, {Key: "next", Value: 2}}}),
		)

		got, err := mockRepository(mt).NextTransferSequence(context.Background(), "20250317")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != 2 {
			t.Errorf("got %d, want 2", got)
		}
	})

	mt.Run("other failures surface", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 112, Name: "WriteConflict", Message: "write conflict"}))

		if _, err := mockRepository(mt).NextTransferSequence(context.Background(), "20250318"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestGetEntryMapsMissingToNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pettycash.entries", mtest.FirstBatch))

		_, err := mockRepository(mt).GetEntry(context.Background(), "cesoir", "nope")
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pettycash.entries", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "e-1"},
			{Key: "storeId", Value: "cesoir"},
			{Key: "amount", Value: 50.0},
			{Key: "hst", Value: 5.75},
			{Key: "dept", Value: "BOH"},
		}))

		e, err := mockRepository(mt).GetEntry(context.Background(), "cesoir", "e-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if e.Amount != 50 || e.Department != models.DepartmentBOH {
			t.Errorf("entry: got %+v", e)
		}
	})
}

func TestSoftDeleteMissingDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no match", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})

		err := mockRepository(mt).SoftDeleteCashIn(context.Background(), "cesoir", "c-1", models.SoftDelete{Deleted: true})
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})
}

func TestEarliestActivityMonth(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("minimum across collections", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "pettycash.entries", mtest.FirstBatch, bson.D{{Key: "month", Value: "2024-06"}}),
			mtest.CreateCursorResponse(0, "pettycash.cashins", mtest.FirstBatch, bson.D{{Key: "month", Value: "2024-03"}}),
			mtest.CreateCursorResponse(0, "pettycash.opening_balances", mtest.FirstBatch),
		)

		month, ok, err := mockRepository(mt).EarliestActivityMonth(context.Background(), "cesoir")
		if err != nil {
			t.Fatalf("earliest: %v", err)
		}
		if !ok || month != "2024-03" {
			t.Errorf("got %q ok=%v, want 2024-03", month, ok)
		}
	})

	mt.Run("no history", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "pettycash.entries", mtest.FirstBatch),
			mtest.CreateCursorResponse(0, "pettycash.cashins", mtest.FirstBatch),
			mtest.CreateCursorResponse(0, "pettycash.opening_balances", mtest.FirstBatch),
		)

		_, ok, err := mockRepository(mt).EarliestActivityMonth(context.Background(), "empty")
		if err != nil || ok {
			t.Errorf("got ok=%v err=%v, want no history", ok, err)
		}
	})
}
