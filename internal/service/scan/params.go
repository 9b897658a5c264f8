package scan

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/domain/money"
)

// Params are the values the scanner page reads from its URL.
type Params struct {
	StoreID    string  `json:"store"`
	EntryID    string  `json:"entry"`
	Date       string  `json:"date"`
	Department string  `json:"dept"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Nonce      string  `json:"nonce"`
}

// ParseParams reads scanner parameters. A malformed date becomes today and
// a malformed amount becomes zero; nothing here fails.
func ParseParams(q url.Values, now time.Time) Params {
	p := Params{
		StoreID:    models.NormalizeStoreID(q.Get("store")),
		EntryID:    strings.TrimSpace(q.Get("entry")),
		Date:       strings.TrimSpace(q.Get("date")),
		Department: strings.ToUpper(strings.TrimSpace(q.Get("dept"))),
		Category:   strings.TrimSpace(q.Get("category")),
		Nonce:      strings.TrimSpace(q.Get("nonce")),
	}

	if _, err := models.ParseDate(p.Date); err != nil {
		p.Date = now.Format(models.DateLayout)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(q.Get("amount")), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		amount = 0
	}
	p.Amount = money.Round2(amount)

	return p
}

// ScannerURL renders the scanner address for a pending request.
func ScannerURL(baseURL string, req models.ScanRequest) string {
	q := url.Values{}
	q.Set("store", req.StoreID)
	q.Set("entry", req.EntryID)
	q.Set("date", req.Prefill.Date)
	q.Set("dept", req.Prefill.Department)
	q.Set("category", req.Prefill.Category)
	q.Set("amount", strconv.FormatFloat(req.Prefill.Amount, 'f', 2, 64))
	q.Set("nonce", req.Nonce)
	return strings.TrimSuffix(baseURL, "/") + "/scanner?" + q.Encode()
}
