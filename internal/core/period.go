package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type (
	// Period is a calendar month of a given year.
	Period struct {
		Year  int
		Month int
	}

	// DateRange is a closed [From, To] interval of dates.
	DateRange struct {
		From Date
		To   Date
	}
)

// NewPeriod validates and builds a Period.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidMonth
	}
	if year < 1000 || year > 9999 {
		return Period{}, ErrInvalidYear
	}
	return Period{Year: year, Month: month}, nil
}

// ParsePeriod parses month ("3" or "03") and year ("2024") query values.
// Both are required.
func ParsePeriod(month, year string) (Period, error) {
	month = strings.TrimSpace(month)
	year = strings.TrimSpace(year)
	if month == "" || year == "" {
		return Period{}, ErrMissingPeriod
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, ErrInvalidMonth
	}
	if len(year) != 4 {
		return Period{}, ErrInvalidYear
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, ErrInvalidYear
	}
	return NewPeriod(y, m)
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Range returns the first through last calendar day of the period, inclusive.
func (p Period) Range() DateRange {
	return DateRange{
		From: NewDate(p.Year, p.Month, 1),
		To:   NewDate(p.Year, p.Month, p.DaysIn()),
	}
}

// DaysIn returns the number of days in the period's month.
func (p Period) DaysIn() int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Contains reports whether d falls in the period.
func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

// Clamp returns the date for day in this period, moved back to the last day
// of the month when the month is shorter.
func (p Period) Clamp(day int) Date {
	if day < 1 {
		day = 1
	}
	if last := p.DaysIn(); day > last {
		day = last
	}
	return NewDate(p.Year, p.Month, day)
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Contains reports whether d is within the closed range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From.Time) && !d.After(r.To.Time)
}
