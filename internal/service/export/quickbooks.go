package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/domain/money"
)

const (
	// PettyCashAccount is credited with the gross of every entry.
	PettyCashAccount = "Petty Cash"
	// HSTAccount is debited with the recoverable tax.
	HSTAccount = "HST Receivable"
	// UncategorizedAccount is used when an entry names no expense account.
	UncategorizedAccount = "Uncategorized Expense"

	quickBooksDateLayout = "01/02/2006"
)

// QuickBooksColumns is the journal import layout QuickBooks Online expects.
var QuickBooksColumns = []string{"JournalNo", "JournalDate", "AccountName", "Debits", "Credits", "Description", "Name", "Memo"}

// JournalNumber names the journal of the seq-th entry of a store month.
func JournalNumber(storeID, month string, seq int) string {
	return fmt.Sprintf("PC-%s-%s-%03d", strings.ToUpper(storeID), strings.ReplaceAll(month, "-", ""), seq)
}

// QuickBooksRows renders one balanced journal per live entry: a debit to the
// expense account for net, a debit to HST for the tax, a credit to petty
// cash for the gross.
func QuickBooksRows(storeID, month string, entries []models.Entry) ([][]string, error) {
	var rows [][]string
	for i, e := range liveEntries(entries) {
		date, err := models.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		no := JournalNumber(storeID, month, i+1)
		jdate := date.Format(quickBooksDateLayout)
		description := e.Description
		if description == "" {
			description = e.Vendor
		}
		account := e.Account
		if account == "" {
			account = UncategorizedAccount
		}

		line := func(acct, debit, credit string) []string {
			return []string{no, jdate, acct, debit, credit, description, e.Vendor, e.InvoiceURL}
		}

		// When net is floored at zero, the tax line absorbs the whole gross so
		// the journal still balances.
		taxDebit := money.Sub(e.Amount, e.Net)

		if e.Net > 0 {
			rows = append(rows, line(account, formatAmount(e.Net), ""))
		}
		if taxDebit > 0 {
			rows = append(rows, line(HSTAccount, formatAmount(taxDebit), ""))
		}
		rows = append(rows, line(PettyCashAccount, "", formatAmount(e.Amount)))
	}
	return rows, nil
}

// WriteQuickBooksCSV writes the journal import file.
func WriteQuickBooksCSV(w io.Writer, storeID, month string, entries []models.Entry) error {
	rows, err := QuickBooksRows(storeID, month, entries)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(QuickBooksColumns); err != nil {
		return fmt.Errorf("write quickbooks header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write quickbooks rows: %w", err)
	}
	return nil
}
