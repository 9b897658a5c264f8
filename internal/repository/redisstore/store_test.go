package redisstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

func TestFallbackKey(t *testing.T) {
	got := FallbackKey(" CeSoir ", "s-1")
	if got != "pc-scan:cesoir:s-1" {
		t.Errorf("got %q, want pc-scan:cesoir:s-1", got)
	}
}

// liveStore connects to REDIS_TEST_ADDRESS; the test is skipped without it.
func liveStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute, nil)
}

func TestFallbackTakeIsOneShot(t *testing.T) {
	s := liveStore(t)
	ctx := context.Background()
	session := uuid.NewString()
	c := models.ScanCompletion{Type: models.ScanCompleteType, StoreID: "cesoir", EntryID: "e", URL: "u", Nonce: "n"}

	if err := s.Put(ctx, "cesoir", session, c); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Take(ctx, "CESOIR", session)
	if err != nil || got == nil || *got != c {
		t.Fatalf("take: got %+v, %v", got, err)
	}
	again, err := s.Take(ctx, "cesoir", session)
	if err != nil || again != nil {
		t.Fatalf("second take: got %+v, %v; want nothing", again, err)
	}
}

func TestSessionRoundTripAndNonceIndex(t *testing.T) {
	s := liveStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := s.Load(ctx, id); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("missing session: got %v", err)
	}

	session := &models.ScanSession{ID: id, UserID: "u-1", StoreID: "cesoir",
		Pending: &models.ScanRequest{Mode: models.ScanModeNew, StoreID: "cesoir", EntryID: "e", Nonce: "n-" + id}}
	if err := s.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.BindNonce(ctx, session.Pending.Nonce, id); err != nil {
		t.Fatalf("bind: %v", err)
	}

	loaded, err := s.Load(ctx, id)
	if err != nil || loaded.Pending == nil || loaded.Pending.Nonce != session.Pending.Nonce {
		t.Fatalf("load: got %+v, %v", loaded, err)
	}
	owner, err := s.SessionForNonce(ctx, session.Pending.Nonce)
	if err != nil || owner != id {
		t.Fatalf("nonce owner: got %q, %v", owner, err)
	}
}

func TestLockSerializes(t *testing.T) {
	s := liveStore(t)
	key := "pc-scan-lock:" + uuid.NewString()

	unlock, err := s.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := s.Lock(ctx, key); err == nil {
		t.Fatal("second lock should not be obtained while the first is held")
	}

	unlock()
	unlock2, err := s.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	unlock2()
}
