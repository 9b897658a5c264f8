package transfers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type memoryCounters struct {
	mu   sync.Mutex
	next map[string]int
	err  error
}

func newMemoryCounters() *memoryCounters {
	return &memoryCounters{next: make(map[string]int)}
}

func (m *memoryCounters) NextTransferSequence(_ context.Context, dateKey string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.next[dateKey]
	if !ok {
		current = 1
	}
	m.next[dateKey] = current + 1
	return current, nil
}

func TestNumbererFormatsAndResetsPerDay(t *testing.T) {
	n := NewNumberer(newMemoryCounters())
	ctx := context.Background()

	first, err := n.Next(ctx, "2025-03-15")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	second, _ := n.Next(ctx, "2025-03-15")
	otherDay, _ := n.Next(ctx, "2025-03-16")

	if first != "TR-20250315-0001" {
		t.Errorf("first: got %q, want TR-20250315-0001", first)
	}
	if second != "TR-20250315-0002" {
		t.Errorf("second: got %q, want TR-20250315-0002", second)
	}
	if otherDay != "TR-20250316-0001" {
		t.Errorf("other day: got %q, want TR-20250316-0001", otherDay)
	}
}

func TestNumbererConcurrentCallsAreUnique(t *testing.T) {
	const calls = 50
	n := NewNumberer(newMemoryCounters())

	var wg sync.WaitGroup
	results := make(chan string, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := n.Next(context.Background(), "2025-03-15")
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for number := range results {
		if seen[number] {
			t.Errorf("duplicate invoice number %s", number)
		}
		seen[number] = true
	}
	for i := 1; i <= calls; i++ {
		want := fmt.Sprintf("TR-20250315-%04d", i)
		if !seen[want] {
			t.Errorf("missing invoice number %s", want)
		}
	}
}

func TestNumbererErrors(t *testing.T) {
	counters := newMemoryCounters()
	n := NewNumberer(counters)

	if _, err := n.Next(context.Background(), "15-03-2025"); err == nil {
		t.Error("expected invalid date error")
	}

	counters.err = errors.New("write conflict")
	if _, err := n.Next(context.Background(), "2025-03-15"); !errors.Is(err, ErrCounterConflict) {
		t.Errorf("expected ErrCounterConflict, got %v", err)
	}
}
