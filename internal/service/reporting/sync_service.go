package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

const (
	summaryDataRange = "Summaries!A:I"
	summaryKeyRange  = "Summaries!A:B"
)

// SheetWriter is the slice of the sheets repository the sync uses.
type SheetWriter interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// StoreLister lists the stores to report on.
type StoreLister interface {
	ListStores(ctx context.Context, activeOnly bool) ([]models.Store, error)
}

// Summarizer derives the month summary of a store.
type Summarizer interface {
	MonthSummary(ctx context.Context, storeID, month string) (models.MonthSummary, error)
}

// Service mirrors closed month summaries into a spreadsheet for the
// accounting team.
type Service struct {
	sheet  SheetWriter
	stores StoreLister
	ledger Summarizer
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(sheet SheetWriter, stores StoreLister, ledger Summarizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sheet: sheet, stores: stores, ledger: ledger, logger: logger}
}

// SyncReport tells what a sync run did.
type SyncReport struct {
	Month    string
	Appended int
	Skipped  int
	Failed   int
}

// SyncMonth appends one row per active store for month. Stores already
// present in the sheet for that month are skipped, so reruns are safe.
func (s *Service) SyncMonth(ctx context.Context, month string) (SyncReport, error) {
	report := SyncReport{Month: month}
	if _, err := models.ParseMonth(month); err != nil {
		return report, err
	}

	existing, err := s.sheet.ReadRange(ctx, summaryKeyRange)
	if err != nil {
		return report, fmt.Errorf("load summary keys: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, row := range existing {
		if len(row) < 2 {
			continue
		}
		seen[rowKey(fmt.Sprint(row[0]), fmt.Sprint(row[1]))] = true
	}

	stores, err := s.stores.ListStores(ctx, true)
	if err != nil {
		return report, fmt.Errorf("list stores: %w", err)
	}

	var rows [][]interface{}
	for _, store := range stores {
		if seen[rowKey(store.ID, month)] {
			report.Skipped++
			continue
		}
		summary, err := s.ledger.MonthSummary(ctx, store.ID, month)
		if err != nil {
			s.logger.Warn("skip store summary", zap.String("store", store.ID), zap.String("month", month), zap.Error(err))
			report.Failed++
			continue
		}
		rows = append(rows, summaryRow(summary))
	}

	if err := s.sheet.AppendRows(ctx, summaryDataRange, rows); err != nil {
		return report, fmt.Errorf("append summaries: %w", err)
	}
	report.Appended = len(rows)

	s.logger.Info("month summaries synced",
		zap.String("month", month),
		zap.Int("appended", report.Appended),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))

	if report.Failed > 0 && report.Appended == 0 && report.Skipped == 0 {
		return report, errors.New("no store summary could be computed")
	}
	return report, nil
}

// SyncPreviousMonth syncs the month before the one containing now.
func (s *Service) SyncPreviousMonth(ctx context.Context, now time.Time) (SyncReport, error) {
	month, err := models.PrevMonth(now.Format(models.MonthLayout))
	if err != nil {
		return SyncReport{}, err
	}
	return s.SyncMonth(ctx, month)
}

func summaryRow(m models.MonthSummary) []interface{} {
	return []interface{}{
		m.StoreID,
		m.Month,
		m.Opening,
		m.CashIn,
		m.CashOut,
		m.HSTTotal,
		m.Closing,
		m.Deposits,
		m.Overridden,
	}
}

func rowKey(storeID, month string) string {
	return models.NormalizeStoreID(storeID) + "|" + month
}
