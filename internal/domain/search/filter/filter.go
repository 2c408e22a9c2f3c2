// Package filter holds the structured pre-filters a bylaw search may carry.
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted date format for DateFrom/DateTo.
const DateLayout = "2006-01-02"

// Filters narrow a search to a category, a bylaw, or an enactment date range.
// Field order is part of the cache key serialization; do not reorder.
type Filters struct {
	Category    string `json:"category,omitempty"`
	BylawNumber string `json:"bylawNumber,omitempty"`
	DateFrom    string `json:"dateFrom,omitempty"`
	DateTo      string `json:"dateTo,omitempty"`
}

// Validate checks bylaw number and date formats.
func (f Filters) Validate() error {
	if f.BylawNumber != "" && !isDigits(f.BylawNumber) {
		return fmt.Errorf("bylawNumber must be numeric, got %q", f.BylawNumber)
	}
	from, err := parseDate("dateFrom", f.DateFrom)
	if err != nil {
		return err
	}
	to, err := parseDate("dateTo", f.DateTo)
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("dateFrom %s is after dateTo %s", f.DateFrom, f.DateTo)
	}
	return nil
}

// Normalized returns a copy with surrounding whitespace removed and the
// category lowercased.
func (f Filters) Normalized() Filters {
	return Filters{
		Category:    strings.ToLower(strings.TrimSpace(f.Category)),
		BylawNumber: strings.TrimSpace(f.BylawNumber),
		DateFrom:    strings.TrimSpace(f.DateFrom),
		DateTo:      strings.TrimSpace(f.DateTo),
	}
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.Category == "" && f.BylawNumber == "" && f.DateFrom == "" && f.DateTo == ""
}

// HasDateRange reports whether either date bound is set.
func (f Filters) HasDateRange() bool {
	return f.DateFrom != "" || f.DateTo != ""
}

// DateKey converts a YYYY-MM-DD date to the numeric YYYYMMDD form stored in
// the index. Returns 0 for an empty or malformed date.
func DateKey(date string) int {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0
	}
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", name, value)
	}
	return t, nil
}

func isDigits(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
