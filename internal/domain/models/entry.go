package models

import (
	"fmt"
	"strings"
	"time"
)

// Department tags an entry for reporting.
type Department string

const (
	DepartmentFOH    Department = "FOH"
	DepartmentBOH    Department = "BOH"
	DepartmentTravel Department = "TRAVEL"
	DepartmentOther  Department = "OTHER"
	DepartmentBank   Department = "BANK"
)

// ParseDepartment normalizes a department tag.
func ParseDepartment(value string) (Department, error) {
	d := Department(strings.ToUpper(strings.TrimSpace(value)))
	switch d {
	case DepartmentFOH, DepartmentBOH, DepartmentTravel, DepartmentOther, DepartmentBank:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown department %q", ErrValidation, value)
}

// Audit carries who touched a record and when.
type Audit struct {
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// SoftDelete marks a record logically removed.
type SoftDelete struct {
	Deleted   bool       `bson:"deleted" json:"deleted"`
	DeletedBy string     `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
}

// Entry is one petty-cash expenditure.
type Entry struct {
	ID          string     `bson:"_id" json:"id"`
	StoreID     string     `bson:"storeId" json:"storeId"`
	Date        string     `bson:"date" json:"date"`
	Month       string     `bson:"month" json:"month"`
	Vendor      string     `bson:"vendor" json:"vendor"`
	Description string     `bson:"description" json:"description"`
	Amount      float64    `bson:"amount" json:"amount"`
	HST         float64    `bson:"hst" json:"hst"`
	Net         float64    `bson:"net" json:"net"`
	Account     string     `bson:"account" json:"account"`
	Department  Department `bson:"dept" json:"dept"`
	InvoiceURL  string     `bson:"invoiceUrl" json:"invoiceUrl"`

	SoftDelete `bson:",inline"`
	Audit      `bson:",inline"`
}

// EntryUpdate is a partial update; nil fields are left untouched.
type EntryUpdate struct {
	Date        *string     `json:"date,omitempty"`
	Vendor      *string     `json:"vendor,omitempty"`
	Description *string     `json:"description,omitempty"`
	Amount      *float64    `json:"amount,omitempty"`
	HST         *float64    `json:"hst,omitempty"`
	Account     *string     `json:"account,omitempty"`
	Department  *Department `json:"dept,omitempty"`
	InvoiceURL  *string     `json:"invoiceUrl,omitempty"`

	// Derived by the service, never taken from callers.
	Month     *string   `json:"-"`
	Net       *float64  `json:"-"`
	UpdatedBy string    `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Empty reports whether the update carries any caller supplied field.
func (u EntryUpdate) Empty() bool {
	return u.Date == nil && u.Vendor == nil && u.Description == nil && u.Amount == nil &&
		u.HST == nil && u.Account == nil && u.Department == nil && u.InvoiceURL == nil
}
