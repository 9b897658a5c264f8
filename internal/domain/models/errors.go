package models

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrValidation wraps every input validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrInvoiceRequired indicates an entry was saved without an attached invoice.
	ErrInvoiceRequired = errors.New("invoice attachment is required")
	// ErrInvalidMonth indicates a month key that is not YYYY-MM.
	ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")
	// ErrInvalidDate indicates a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrForbidden is returned when a caller reaches outside its stores or role.
	ErrForbidden = errors.New("forbidden")
)
