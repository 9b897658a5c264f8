package models

import "time"

// OpeningOverride pins the starting balance of a store for one month.
type OpeningOverride struct {
	ID        string    `bson:"_id" json:"id"`
	StoreID   string    `bson:"storeId" json:"storeId"`
	Month     string    `bson:"month" json:"month"`
	Amount    float64   `bson:"amount" json:"amount"`
	UpdatedBy string    `bson:"updatedBy" json:"updatedBy"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OpeningOverrideID is the document key of a (store, month) override.
func OpeningOverrideID(storeID, month string) string {
	return storeID + ":" + month
}

// MonthSummary is the derived balance sheet of the float for one month.
type MonthSummary struct {
	StoreID  string  `json:"storeId"`
	Month    string  `json:"month"`
	Opening  float64 `json:"opening"`
	CashIn   float64 `json:"cashIn"`
	CashOut  float64 `json:"cashOut"`
	HSTTotal float64 `json:"hstTotal"`
	Closing  float64 `json:"closing"`
	// Deposits is informational only.
	Deposits float64 `json:"deposits"`
	// Overridden is true when Opening comes from an explicit override.
	Overridden bool `json:"overridden"`
}
