package models

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format of every business date.
	DateLayout = "2006-01-02"
	// MonthLayout is the wire format of month keys.
	MonthLayout = "2006-01"
)

// ParseMonth validates a YYYY-MM key.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return t, nil
}

// ParseDate validates a YYYY-MM-DD date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// MonthOf derives the month key of a YYYY-MM-DD date.
func MonthOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format(MonthLayout), nil
}

// PrevMonth shifts a month key back by one calendar month.
func PrevMonth(month string) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, -1, 0).Format(MonthLayout), nil
}

// NextMonth shifts a month key forward by one calendar month.
func NextMonth(month string) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 1, 0).Format(MonthLayout), nil
}
