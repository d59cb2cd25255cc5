package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKeyLayout is the yyyy-mm-dd layout used for availability keys.
const DateKeyLayout = "2006-01-02"

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Midnight returns the start of the date in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n calendar days later (or earlier for n < 0).
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, time.Month(d.Month), d.Day+n, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Key formats the date as yyyy-mm-dd.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DateKey formats t as the yyyy-mm-dd key of its calendar day in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return DateOf(t, loc).Key()
}

// ParseDateKey parses a yyyy-mm-dd key into local midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(key)
	if err != nil {
		return time.Time{}, err
	}
	return d.Midnight(loc), nil
}

// DaysBetween counts whole calendar days from start to end. Computed on
// calendar dates so DST shifts in loc never produce a fractional day.
func DaysBetween(start, end time.Time, loc *time.Location) int {
	return DateOf(end, loc).dayNumber() - DateOf(start, loc).dayNumber()
}

// dayNumber is the count of days since the Unix epoch.
func (d Date) dayNumber() int {
	return int(d.Midnight(time.UTC).Unix() / 86400)
}

// DateKeysInclusive lists every date key from start through end inclusive.
// Returns nil when end precedes start.
func DateKeysInclusive(start, end time.Time, loc *time.Location) []string {
	days := DaysBetween(start, end, loc)
	if days < 0 {
		return nil
	}
	first := DateOf(start, loc)
	keys := make([]string, 0, days+1)
	for i := 0; i <= days; i++ {
		keys = append(keys, first.AddDays(i).Key())
	}
	return keys
}
