package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/domain/money"
)

// Source exposes the month-scoped queries the aggregator runs.
type Source interface {
	ListEntriesByMonth(ctx context.Context, storeID, month string) ([]models.Entry, error)
	ListCashInsByMonth(ctx context.Context, storeID, month string) ([]models.CashIn, error)
	ListDepositsByMonth(ctx context.Context, storeID, month string) ([]models.Deposit, error)
	// GetOpeningOverride returns models.ErrNotFound when no override exists.
	GetOpeningOverride(ctx context.Context, storeID, month string) (models.OpeningOverride, error)
	// EarliestActivityMonth returns the first month holding an entry, a
	// cash-in or an override. ok is false for a store without history.
	EarliestActivityMonth(ctx context.Context, storeID string) (month string, ok bool, err error)
}

// Aggregator derives month summaries from persisted records.
type Aggregator struct {
	src    Source
	floor  string
	logger *zap.Logger
}

// NewAggregator wires an aggregator. Months before floor never carry a balance.
func NewAggregator(src Source, floor string, logger *zap.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if floor != "" {
		if _, err := models.ParseMonth(floor); err != nil {
			return nil, fmt.Errorf("ledger floor: %w", err)
		}
	}
	return &Aggregator{src: src, floor: floor, logger: logger}, nil
}

type flows struct {
	cashIn  float64
	cashOut float64
	hst     float64
}

// run memoizes lookups for the lifetime of one call.
type run struct {
	a        *Aggregator
	storeID  string
	flows    map[string]flows
	openings map[string]opening
	earliest *string
}

type opening struct {
	amount     float64
	overridden bool
}

func (a *Aggregator) newRun(storeID string) *run {
	return &run{
		a:        a,
		storeID:  storeID,
		flows:    make(map[string]flows),
		openings: make(map[string]opening),
	}
}

// MonthSummary computes opening, flows and closing for one store month.
func (a *Aggregator) MonthSummary(ctx context.Context, storeID, month string) (models.MonthSummary, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return models.MonthSummary{}, err
	}
	return a.newRun(storeID).summary(ctx, month)
}

// Summaries computes consecutive month summaries from..to inclusive.
func (a *Aggregator) Summaries(ctx context.Context, storeID, from, to string) ([]models.MonthSummary, error) {
	if _, err := models.ParseMonth(from); err != nil {
		return nil, err
	}
	if _, err := models.ParseMonth(to); err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("%w: %s is after %s", models.ErrValidation, from, to)
	}

	r := a.newRun(storeID)
	var out []models.MonthSummary
	for month := from; month <= to; {
		summary, err := r.summary(ctx, month)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
		next, err := models.NextMonth(month)
		if err != nil {
			return nil, err
		}
		month = next
	}
	return out, nil
}

// Opening returns the starting balance of a store month.
func (a *Aggregator) Opening(ctx context.Context, storeID, month string) (float64, error) {
	if _, err := models.ParseMonth(month); err != nil {
		return 0, err
	}
	o, err := a.newRun(storeID).opening(ctx, month)
	return o.amount, err
}

// Closing returns round2(opening + cashIn - cashOut).
func (a *Aggregator) Closing(ctx context.Context, storeID, month string) (float64, error) {
	summary, err := a.MonthSummary(ctx, storeID, month)
	if err != nil {
		return 0, err
	}
	return summary.Closing, nil
}

func (r *run) summary(ctx context.Context, month string) (models.MonthSummary, error) {
	open, err := r.opening(ctx, month)
	if err != nil {
		return models.MonthSummary{}, err
	}
	f, err := r.monthFlows(ctx, month)
	if err != nil {
		return models.MonthSummary{}, err
	}

	deposits, err := r.a.src.ListDepositsByMonth(ctx, r.storeID, month)
	if err != nil {
		return models.MonthSummary{}, fmt.Errorf("load deposits %s: %w", month, err)
	}
	depositValues := make([]float64, 0, len(deposits))
	for _, d := range deposits {
		if d.Deleted {
			continue
		}
		depositValues = append(depositValues, d.Amount)
	}

	return models.MonthSummary{
		StoreID:    r.storeID,
		Month:      month,
		Opening:    open.amount,
		CashIn:     f.cashIn,
		CashOut:    f.cashOut,
		HSTTotal:   f.hst,
		Closing:    money.Sub(money.Sum(open.amount, f.cashIn), f.cashOut),
		Deposits:   money.Sum(depositValues...),
		Overridden: open.overridden,
	}, nil
}

// opening walks back month by month until it meets an override, the floor
// or the store's first activity, then carries the balance forward.
func (r *run) opening(ctx context.Context, month string) (opening, error) {
	if o, ok := r.openings[month]; ok {
		return o, nil
	}

	floor, hasHistory, err := r.effectiveFloor(ctx)
	if err != nil {
		return opening{}, err
	}

	var chain []string
	cursor := month
	var base opening
	for {
		if o, ok := r.openings[cursor]; ok {
			base = o
			break
		}

		override, err := r.a.src.GetOpeningOverride(ctx, r.storeID, cursor)
		if err == nil {
			base = opening{amount: money.Round2(override.Amount), overridden: true}
			r.openings[cursor] = base
			break
		}
		if !errors.Is(err, models.ErrNotFound) {
			return opening{}, fmt.Errorf("load opening override %s: %w", cursor, err)
		}

		if !hasHistory || cursor <= floor {
			base = opening{}
			r.openings[cursor] = base
			break
		}

		chain = append(chain, cursor)
		prev, err := models.PrevMonth(cursor)
		if err != nil {
			return opening{}, err
		}
		cursor = prev
	}

	if len(chain) > 0 {
		r.a.logger.Debug("carrying opening balance forward",
			zap.String("store", r.storeID),
			zap.String("from", cursor),
			zap.String("to", month),
			zap.Int("months", len(chain)))
	}

	balance := base.amount
	for i := len(chain) - 1; i >= 0; i-- {
		prev, err := models.PrevMonth(chain[i])
		if err != nil {
			return opening{}, err
		}
		f, err := r.monthFlows(ctx, prev)
		if err != nil {
			return opening{}, err
		}
		balance = money.Sub(money.Sum(balance, f.cashIn), f.cashOut)
		r.openings[chain[i]] = opening{amount: balance}
	}

	return r.openings[month], nil
}

// effectiveFloor is the later of the configured floor and the first month
// with activity.
func (r *run) effectiveFloor(ctx context.Context) (string, bool, error) {
	if r.earliest == nil {
		month, ok, err := r.a.src.EarliestActivityMonth(ctx, r.storeID)
		if err != nil {
			return "", false, fmt.Errorf("load earliest activity: %w", err)
		}
		if !ok {
			month = ""
		}
		r.earliest = &month
	}

	earliest := *r.earliest
	if earliest == "" {
		return "", false, nil
	}
	if r.a.floor != "" && r.a.floor > earliest {
		return r.a.floor, true, nil
	}
	return earliest, true, nil
}

func (r *run) monthFlows(ctx context.Context, month string) (flows, error) {
	if f, ok := r.flows[month]; ok {
		return f, nil
	}

	entries, err := r.a.src.ListEntriesByMonth(ctx, r.storeID, month)
	if err != nil {
		return flows{}, fmt.Errorf("load entries %s: %w", month, err)
	}
	cashIns, err := r.a.src.ListCashInsByMonth(ctx, r.storeID, month)
	if err != nil {
		return flows{}, fmt.Errorf("load cash-ins %s: %w", month, err)
	}

	var out, hst, in []float64
	for _, e := range entries {
		if e.Deleted {
			continue
		}
		out = append(out, e.Amount)
		hst = append(hst, e.HST)
	}
	for _, c := range cashIns {
		if c.Deleted {
			continue
		}
		in = append(in, c.Amount)
	}

	f := flows{cashIn: money.Sum(in...), cashOut: money.Sum(out...), hst: money.Sum(hst...)}
	r.flows[month] = f
	return f, nil
}
