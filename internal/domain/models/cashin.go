package models

// CashIn is a refill of the petty-cash float.
type CashIn struct {
	ID      string  `bson:"_id" json:"id"`
	StoreID string  `bson:"storeId" json:"storeId"`
	Date    string  `bson:"date" json:"date"`
	Month   string  `bson:"month" json:"month"`
	Amount  float64 `bson:"amount" json:"amount"`
	Source  string  `bson:"source" json:"source"`
	Note    string  `bson:"note" json:"note"`

	SoftDelete `bson:",inline"`
	Audit      `bson:",inline"`
}

// Deposit is a bank deposit kept for visibility. It never enters the closing balance.
type Deposit struct {
	ID        string  `bson:"_id" json:"id"`
	StoreID   string  `bson:"storeId" json:"storeId"`
	Date      string  `bson:"date" json:"date"`
	Month     string  `bson:"month" json:"month"`
	Amount    float64 `bson:"amount" json:"amount"`
	Reference string  `bson:"reference" json:"reference"`
	Note      string  `bson:"note" json:"note"`

	SoftDelete `bson:",inline"`
	Audit      `bson:",inline"`
}
