package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// JournalColumns is the fixed layout of the generic journal export.
var JournalColumns = []string{"Date", "Vendor", "Description", "Department", "Account", "Gross", "HST", "Net", "Invoice"}

// liveEntries drops soft-deleted entries and orders the rest by date.
func liveEntries(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Deleted {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// JournalRows renders the journal body, one row per live entry.
func JournalRows(entries []models.Entry) [][]string {
	live := liveEntries(entries)
	rows := make([][]string, 0, len(live))
	for _, e := range live {
		rows = append(rows, []string{
			e.Date,
			e.Vendor,
			e.Description,
			string(e.Department),
			e.Account,
			formatAmount(e.Amount),
			formatAmount(e.HST),
			formatAmount(e.Net),
			e.InvoiceURL,
		})
	}
	return rows
}

// WriteJournalCSV writes the journal with its header row.
func WriteJournalCSV(w io.Writer, entries []models.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(JournalColumns); err != nil {
		return fmt.Errorf("write journal header: %w", err)
	}
	if err := cw.WriteAll(JournalRows(entries)); err != nil {
		return fmt.Errorf("write journal rows: %w", err)
	}
	return nil
}

// WriteJournalXLSX writes the journal as a single-sheet workbook named after
// the store and month. Money columns are numeric cells.
func WriteJournalXLSX(w io.Writer, storeID, month string, entries []models.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%s %s", storeID, month)
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(JournalColumns))
	for i, c := range JournalColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}

	for i, e := range liveEntries(entries) {
		row := []interface{}{
			e.Date, e.Vendor, e.Description, string(e.Department), e.Account,
			e.Amount, e.HST, e.Net, e.InvoiceURL,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
		from, _ := excelize.CoordinatesToCellName(6, i+2)
		to, _ := excelize.CoordinatesToCellName(8, i+2)
		if err := f.SetCellStyle(sheet, from, to, money); err != nil {
			return fmt.Errorf("style row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "B", "C", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "I", "I", 60); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
