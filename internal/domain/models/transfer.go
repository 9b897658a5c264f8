package models

import (
	"fmt"
	"strings"
	"time"
)

// TransferCategory classifies transferred inventory.
type TransferCategory string

const (
	CategoryFood   TransferCategory = "FOOD"
	CategoryBeer   TransferCategory = "BEER"
	CategoryWine   TransferCategory = "WINE"
	CategoryLiquor TransferCategory = "LIQUOR"
)

// ParseTransferCategory normalizes a transfer category.
func ParseTransferCategory(value string) (TransferCategory, error) {
	c := TransferCategory(strings.ToUpper(strings.TrimSpace(value)))
	switch c {
	case CategoryFood, CategoryBeer, CategoryWine, CategoryLiquor:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown transfer category %q", ErrValidation, value)
}

// EmailStatus tracks delivery of the transfer documents.
type EmailStatus string

const (
	EmailNotSent EmailStatus = "not_sent"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// TransferLine is one transferred item.
type TransferLine struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"qty" json:"qty"`
	Unit     string  `bson:"unit" json:"unit"`
	UnitCost float64 `bson:"unitCost" json:"unitCost"`
	Total    float64 `bson:"lineTotal" json:"lineTotal"`
	Comment  string  `bson:"comment,omitempty" json:"comment,omitempty"`
}

// BlobRef addresses an uploaded file.
type BlobRef struct {
	Key     string `bson:"key" json:"key"`
	URL     string `bson:"url" json:"url"`
	ViewURL string `bson:"viewUrl" json:"viewUrl"`
}

// Delivery records the email status of a transfer.
type Delivery struct {
	Status   EmailStatus `bson:"status" json:"status"`
	SentAt   *time.Time  `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	FailedAt *time.Time  `bson:"failedAt,omitempty" json:"failedAt,omitempty"`
	Error    string      `bson:"error,omitempty" json:"error,omitempty"`
}

// Flag marks a transfer for follow-up.
type Flag struct {
	Flagged   bool       `bson:"flagged" json:"flagged"`
	FlagNote  string     `bson:"flagNote,omitempty" json:"flagNote,omitempty"`
	FlaggedBy string     `bson:"flaggedBy,omitempty" json:"flaggedBy,omitempty"`
	FlaggedAt *time.Time `bson:"flaggedAt,omitempty" json:"flaggedAt,omitempty"`
}

// Transfer moves inventory between two stores. It lives outside any single
// store partition.
type Transfer struct {
	ID            string           `bson:"_id" json:"id"`
	InvoiceNumber string           `bson:"invoiceNumber" json:"invoiceNumber"`
	Date          string           `bson:"date" json:"date"`
	Month         string           `bson:"month" json:"month"`
	FromStore     string           `bson:"fromStore" json:"fromStore"`
	ToStore       string           `bson:"toStore" json:"toStore"`
	Category      TransferCategory `bson:"category" json:"category"`
	Lines         []TransferLine   `bson:"lines" json:"lines"`
	Amount        float64          `bson:"amount" json:"amount"`
	HST           float64          `bson:"hst" json:"hst"`
	Net           float64          `bson:"net" json:"net"`
	OutPDF        BlobRef          `bson:"outPdf" json:"outPdf"`
	InPDF         BlobRef          `bson:"inPdf" json:"inPdf"`
	Delivery      Delivery         `bson:"delivery" json:"delivery"`

	Flag       `bson:",inline"`
	SoftDelete `bson:",inline"`
	Audit      `bson:",inline"`
}

// TransferCounter issues per-day invoice sequences.
type TransferCounter struct {
	DateKey string `bson:"_id" json:"dateKey"`
	Next    int    `bson:"next" json:"next"`
}
