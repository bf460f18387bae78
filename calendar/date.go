/*
date.go - Date and grain primitives for the calendar engine

PURPOSE:
  Defines CalendarDate, the unit of work for every deriver in this package.
  A CalendarDate wraps a UTC instant plus a grain tag; at day grain and above
  the instant is normalized to midnight UTC, so two CalendarDates for the same
  civil day always compare equal.

KEY CONCEPTS IN THIS FILE:
  - Grain: the resolution of a spine entry (second ... year)
  - CalendarDate: an immutable instant + grain, with civil-date helpers
  - DateKey: integer YYYYMMDD key used to join facts to calendar rows

DESIGN PRINCIPLES:
  1. Immutability: all arithmetic returns new values
  2. UTC-only: timezone conversion happens exactly once, in the
     relative-period evaluator; derivation is timezone-free
  3. Civil-date semantics: month arithmetic never normalizes overflow
     (Jan 31 + 1 month is NOT Mar 3)

SEE ALSO:
  - spine.go: enumerates CalendarDates between two bounds
  - fiscal.go, retail.go: derive period attributes from a CalendarDate
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// GRAIN - Resolution of a spine entry
// =============================================================================

type Grain string

const (
	GrainSecond  Grain = "second"
	GrainMinute  Grain = "minute"
	GrainHour    Grain = "hour"
	GrainDay     Grain = "day"
	GrainWeek    Grain = "week"
	GrainMonth   Grain = "month"
	GrainQuarter Grain = "quarter"
	GrainYear    Grain = "year"
)

// Valid reports whether g is a known grain.
func (g Grain) Valid() bool {
	switch g {
	case GrainSecond, GrainMinute, GrainHour, GrainDay, GrainWeek, GrainMonth, GrainQuarter, GrainYear:
		return true
	}
	return false
}

// SubDay reports whether the grain is finer than a civil day.
func (g Grain) SubDay() bool {
	return g == GrainSecond || g == GrainMinute || g == GrainHour
}

// =============================================================================
// CALENDAR DATE - Immutable instant + grain
// =============================================================================

type CalendarDate struct {
	Time  time.Time `json:"time"`
	Grain Grain     `json:"grain"`
}

// NewDate constructs a day-grain CalendarDate.
func NewDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{
		Time:  time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Grain: GrainDay,
	}
}

// NewInstant constructs a CalendarDate at the given grain, truncating the
// instant to the grain's resolution.
func NewInstant(t time.Time, grain Grain) CalendarDate {
	u := t.UTC()
	switch grain {
	case GrainSecond:
		u = u.Truncate(time.Second)
	case GrainMinute:
		u = u.Truncate(time.Minute)
	case GrainHour:
		u = u.Truncate(time.Hour)
	default:
		u = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
	return CalendarDate{Time: u, Grain: grain}
}

// ParseDate parses a YYYY-MM-DD string into a day-grain CalendarDate.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// MustDate is ParseDate for tests and literals; panics on malformed input.
func MustDate(s string) CalendarDate {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Civil returns the same instant collapsed to day grain.
func (d CalendarDate) Civil() CalendarDate {
	return NewDate(d.Time.Year(), d.Time.Month(), d.Time.Day())
}

// Key returns the integer YYYYMMDD date key for the civil day.
func (d CalendarDate) Key() int {
	return d.Time.Year()*10000 + int(d.Time.Month())*100 + d.Time.Day()
}

// Comparison operates on the underlying instant.
func (d CalendarDate) Before(other CalendarDate) bool { return d.Time.Before(other.Time) }
func (d CalendarDate) After(other CalendarDate) bool  { return d.Time.After(other.Time) }
func (d CalendarDate) Equal(other CalendarDate) bool  { return d.Time.Equal(other.Time) }
func (d CalendarDate) BeforeOrEqual(other CalendarDate) bool {
	return d.Before(other) || d.Equal(other)
}
func (d CalendarDate) AfterOrEqual(other CalendarDate) bool {
	return d.After(other) || d.Equal(other)
}

// Arithmetic
func (d CalendarDate) AddDays(n int) CalendarDate {
	return CalendarDate{Time: d.Time.AddDate(0, 0, n), Grain: d.Grain}
}

func (d CalendarDate) AddYears(n int) CalendarDate {
	return CalendarDate{Time: d.Time.AddDate(n, 0, 0), Grain: d.Grain}
}

// AddMonthsClamped advances n months keeping the day-of-month, clamping to
// the target month's last day instead of letting time.AddDate normalize
// overflow (Jan 31 + 1 month = Feb 28/29, not Mar 3).
func (d CalendarDate) AddMonthsClamped(n int) CalendarDate {
	y, m, day := d.Time.Date()
	months := y*12 + int(m) - 1 + n
	ty, tm := months/12, time.Month(months%12+1)
	if day > DaysInMonth(ty, tm) {
		day = DaysInMonth(ty, tm)
	}
	return CalendarDate{
		Time:  time.Date(ty, tm, day, d.Time.Hour(), d.Time.Minute(), d.Time.Second(), 0, time.UTC),
		Grain: d.Grain,
	}
}

// Properties
func (d CalendarDate) Year() int             { return d.Time.Year() }
func (d CalendarDate) Month() time.Month     { return d.Time.Month() }
func (d CalendarDate) Day() int              { return d.Time.Day() }
func (d CalendarDate) Weekday() time.Weekday { return d.Time.Weekday() }
func (d CalendarDate) IsZero() bool          { return d.Time.IsZero() }

func (d CalendarDate) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d CalendarDate) IsWeekdayDate() bool { return !d.IsWeekend() }

func (d CalendarDate) String() string {
	if d.Grain.SubDay() {
		return d.Time.Format(time.RFC3339)
	}
	return d.Time.Format("2006-01-02")
}

// =============================================================================
// CIVIL DATE UTILITIES
// =============================================================================

// DaysBetween returns the signed number of civil days from 'from' to 'to'.
func DaysBetween(from, to CalendarDate) int {
	return int(to.Civil().Time.Sub(from.Civil().Time).Hours() / 24)
}

// DaysInMonth returns the length of a month in a given year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

func StartOfMonth(year int, month time.Month) CalendarDate {
	return NewDate(year, month, 1)
}

func EndOfMonth(year int, month time.Month) CalendarDate {
	return NewDate(year, month, DaysInMonth(year, month))
}

func StartOfQuarter(year int, quarter int) CalendarDate {
	return NewDate(year, time.Month((quarter-1)*3+1), 1)
}

func EndOfQuarter(year int, quarter int) CalendarDate {
	return EndOfMonth(year, time.Month(quarter*3))
}

func StartOfYear(year int) CalendarDate { return NewDate(year, time.January, 1) }
func EndOfYear(year int) CalendarDate   { return NewDate(year, time.December, 31) }

// QuarterOf returns the calendar quarter (1-4) for a month.
func QuarterOf(month time.Month) int { return (int(month)-1)/3 + 1 }

// KeyToDate converts a YYYYMMDD key back into a day-grain CalendarDate.
func KeyToDate(key int) (CalendarDate, error) {
	y, m, d := key/10000, (key/100)%100, key%100
	if m < 1 || m > 12 || d < 1 || d > DaysInMonth(y, time.Month(m)) {
		return CalendarDate{}, fmt.Errorf("invalid date key %d", key)
	}
	return NewDate(y, time.Month(m), d), nil
}
