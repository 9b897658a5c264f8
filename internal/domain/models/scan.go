package models

import "time"

// ScanMode tells the opener what to do with an accepted scan.
type ScanMode string

const (
	// ScanModeNew keeps the attachment on the draft until the entry is saved.
	ScanModeNew ScanMode = "new"
	// ScanModeEdit writes the attachment straight onto the persisted entry.
	ScanModeEdit ScanMode = "edit"
)

// ScanCompleteType is the type tag of every completion payload.
const ScanCompleteType = "pc-scan-complete"

// ScanPrefill carries contextual values shown by the scanner.
type ScanPrefill struct {
	Date       string  `json:"date"`
	Department string  `json:"dept"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
}

// ScanRequest is the pending request latch of an opener.
type ScanRequest struct {
	Mode     ScanMode    `json:"mode"`
	StoreID  string      `json:"storeId"`
	EntryID  string      `json:"entryId"`
	Nonce    string      `json:"nonce"`
	Prefill  ScanPrefill `json:"prefill"`
	OpenedAt time.Time   `json:"openedAt"`
}

// ScanCompletion is emitted by the scanner once the PDF is uploaded.
type ScanCompletion struct {
	Type    string `json:"type"`
	StoreID string `json:"storeId"`
	EntryID string `json:"entryId"`
	URL     string `json:"url"`
	ViewURL string `json:"viewUrl"`
	Nonce   string `json:"nonce"`
}

// Attachment is an accepted invoice reference.
type Attachment struct {
	EntryID    string    `json:"entryId"`
	URL        string    `json:"url"`
	ViewURL    string    `json:"viewUrl"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

// ScanSession is the opener state shared by the delivery channels.
type ScanSession struct {
	ID      string       `json:"id"`
	StoreID string       `json:"storeId"`
	UserID  string       `json:"userId"`
	Pending *ScanRequest `json:"pending,omitempty"`
	Draft   *Attachment  `json:"draft,omitempty"`
	// LastAccepted fingerprints the most recently accepted completion.
	LastAccepted string    `json:"lastAccepted,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
