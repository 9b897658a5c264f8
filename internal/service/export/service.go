package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// Format selects an export layout.
type Format string

const (
	FormatCSV        Format = "csv"
	FormatXLSX       Format = "xlsx"
	FormatQuickBooks Format = "quickbooks"
)

// ParseFormat accepts the format names used on the export endpoint.
func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case FormatCSV, FormatXLSX, FormatQuickBooks:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", models.ErrValidation, v)
}

// ContentType is the response media type of a format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is the suggested download name for a store month.
func (f Format) Filename(storeID, month string) string {
	switch f {
	case FormatXLSX:
		return fmt.Sprintf("pettycash-%s-%s.xlsx", storeID, month)
	case FormatQuickBooks:
		return fmt.Sprintf("pettycash-%s-%s-quickbooks.csv", storeID, month)
	}
	return fmt.Sprintf("pettycash-%s-%s.csv", storeID, month)
}

// EntrySource lists the entries of a store month.
type EntrySource interface {
	ListEntriesByMonth(ctx context.Context, storeID, month string) ([]models.Entry, error)
}

// Service renders month exports.
type Service struct {
	entries EntrySource
	logger  *zap.Logger
}

func NewService(entries EntrySource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{entries: entries, logger: logger}
}

// Write renders the month of a store in the given format.
func (s *Service) Write(ctx context.Context, w io.Writer, storeID, month string, format Format) error {
	if _, err := models.ParseMonth(month); err != nil {
		return err
	}
	entries, err := s.entries.ListEntriesByMonth(ctx, storeID, month)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	switch format {
	case FormatXLSX:
		err = WriteJournalXLSX(w, storeID, month, entries)
	case FormatQuickBooks:
		err = WriteQuickBooksCSV(w, storeID, month, entries)
	default:
		err = WriteJournalCSV(w, entries)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s export: %w", format, err)
	}
	s.logger.Info("Month exported",
		zap.String("store", storeID),
		zap.String("month", month),
		zap.String("format", string(format)),
		zap.Int("entries", len(entries)))
	return nil
}
