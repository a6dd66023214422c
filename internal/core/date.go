package core

import (
	"strings"
	"time"
)

// ISODate is the canonical interchange format for transaction dates.
const ISODate = "2006-01-02"

// Date is a calendar date (year-month-day) used for period bucketing.
// The embedded time is always midnight UTC.
type Date struct {
	time.Time
}

// dateLayouts are the textual forms accepted from user input.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	ISODate,
	"2006/01/02",
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate accepts day-first (DD/MM/YYYY, DD-MM-YYYY) and year-first
// (YYYY-MM-DD, YYYY/MM/DD) forms. An empty string defaults to today.
// Years before 2000 or more than one year in the future are rejected.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Today(), nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < 2000 || t.Year() > time.Now().Year()+1 {
			return Date{}, ErrInvalidDate
		}
		return Date{Time: t.UTC()}, nil
	}
	return Date{}, ErrInvalidDate
}

// ParseISO parses the canonical YYYY-MM-DD form only, with no range policy.
// It is the inverse of ISO and is what the storage layer uses.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

// ISO renders the date in the canonical YYYY-MM-DD form.
func (d Date) ISO() string {
	return d.Format(ISODate)
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// In reports whether the date falls in the given (year, month) bucket.
func (d Date) In(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseISO(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
