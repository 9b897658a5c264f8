package transfers

import (
	"context"
	"errors"
	"fmt"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// ErrCounterConflict is returned when the counter could not be advanced.
// The submission must be retried from scratch.
var ErrCounterConflict = errors.New("transfer counter conflict")

// CounterStore advances the per-day sequence atomically. It returns the
// value of next before the increment; an absent counter starts at 1.
type CounterStore interface {
	NextTransferSequence(ctx context.Context, dateKey string) (int, error)
}

// Numberer issues TR-YYYYMMDD-NNNN invoice numbers.
type Numberer struct {
	counters CounterStore
}

// NewNumberer wires a numberer over a counter store.
func NewNumberer(counters CounterStore) *Numberer {
	return &Numberer{counters: counters}
}

// Next issues the next invoice number for a YYYY-MM-DD date.
func (n *Numberer) Next(ctx context.Context, date string) (string, error) {
	key, err := DateKey(date)
	if err != nil {
		return "", err
	}

	seq, err := n.counters.NextTransferSequence(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCounterConflict, err)
	}
	if seq < 1 {
		return "", fmt.Errorf("%w: counter returned %d", ErrCounterConflict, seq)
	}

	return FormatInvoiceNumber(key, seq), nil
}

// DateKey turns YYYY-MM-DD into the YYYYMMDD counter key.
func DateKey(date string) (string, error) {
	t, err := models.ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format("20060102"), nil
}

// FormatInvoiceNumber renders a sequence for a counter key.
func FormatInvoiceNumber(dateKey string, seq int) string {
	return fmt.Sprintf("TR-%s-%04d", dateKey, seq)
}
