package models

import "time"

// Denominations counts bills by face value.
type Denominations struct {
	N5   int `bson:"n5" json:"n5"`
	N10  int `bson:"n10" json:"n10"`
	N20  int `bson:"n20" json:"n20"`
	N50  int `bson:"n50" json:"n50"`
	N100 int `bson:"n100" json:"n100"`
}

// BillsTotal is the dollar value of the counted bills.
func (d Denominations) BillsTotal() float64 {
	return float64(5*d.N5 + 10*d.N10 + 20*d.N20 + 50*d.N50 + 100*d.N100)
}

// DenominationAudit is a physical count of the float.
type DenominationAudit struct {
	ID      string `bson:"_id" json:"id"`
	StoreID string `bson:"storeId" json:"storeId"`
	Date    string `bson:"date" json:"date"`
	Month   string `bson:"month" json:"month"`

	Denominations `bson:",inline"`

	Change float64 `bson:"change" json:"change"`
	Total  float64 `bson:"total" json:"total"`

	// ClosingAtAudit snapshots the closing balance when the count was taken.
	ClosingAtAudit float64   `bson:"closingAtAudit" json:"closingAtAudit"`
	CreatedBy      string    `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// AuditView pairs an audit with the variance against the live closing balance.
type AuditView struct {
	DenominationAudit
	Closing         float64 `json:"closing"`
	Variance        float64 `json:"variance"`
	VarianceAtAudit float64 `json:"varianceAtAudit"`
}

// ClosingAudit is the simpler signed-amount reconciliation trail.
type ClosingAudit struct {
	ID        string    `bson:"_id" json:"id"`
	StoreID   string    `bson:"storeId" json:"storeId"`
	Date      string    `bson:"date" json:"date"`
	Month     string    `bson:"month" json:"month"`
	Amount    float64   `bson:"amount" json:"amount"`
	Note      string    `bson:"note" json:"note"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
