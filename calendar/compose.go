/*
compose.go - Unified composer and the Calendar snapshot

PURPOSE:
  Joins standard + fiscal + retail attributes plus holiday flags per spine
  entry, derives is_weekday and is_trading_day, and wraps the result in an
  immutable Calendar snapshot that downstream arithmetic reads.

FAILURE ISOLATION:
  One date's derivation failure never drops the row and never aborts the
  batch: the failed attribute group is nil, the error is collected, and the
  rest of the batch proceeds.

SNAPSHOT SEMANTICS:
  A Calendar is never mutated after construction. Rebuilds produce a new
  Calendar and swap it in wholesale, so concurrent readers always see either
  the old or the new complete snapshot.
*/
package calendar

import (
	"sort"
	"time"
)

// =============================================================================
// UNIFIED ROW - The engine's principal output entity
// =============================================================================

// UnifiedRow joins every derived view of one spine entry. Attribute groups
// are pointers: nil means that group's derivation failed for this date.
type UnifiedRow struct {
	Date  CalendarDate `json:"date"`
	Key   int          `json:"date_key"`
	Grain Grain        `json:"grain"`

	Standard *StandardAttributes `json:"standard,omitempty"`
	Fiscal   *FiscalPeriod       `json:"fiscal,omitempty"`
	Retail   *RetailPeriod       `json:"retail,omitempty"`

	// Holiday flags: a set of jurisdictions plus the derived any-holiday
	// predicate, so new jurisdictions never grow the schema.
	IsHoliday            bool     `json:"is_holiday"`
	HolidayJurisdictions []string `json:"holiday_jurisdictions,omitempty"`
	HolidayNames         []string `json:"holiday_names,omitempty"`

	IsWeekday    bool `json:"is_weekday"`
	IsTradingDay bool `json:"is_trading_day"`
}

// Compose derives one UnifiedRow per spine entry. Holiday records are joined
// by exact civil-date match. Per-date failures come back as *DateError values
// alongside the (complete) row slice.
func Compose(dates []CalendarDate, fiscal FiscalConfig, retail RetailConfig, holidays []HolidayRecord) ([]UnifiedRow, []error) {
	idx := indexHolidays(holidays)
	rows := make([]UnifiedRow, 0, len(dates))
	var errs []error

	for _, d := range dates {
		row := UnifiedRow{
			Date:  d,
			Key:   d.Key(),
			Grain: d.Grain,
		}

		std := DeriveStandard(d)
		row.Standard = &std

		if fp, err := DeriveFiscal(d, fiscal); err != nil {
			errs = append(errs, &DateError{Key: row.Key, Step: "fiscal", Err: err})
		} else {
			row.Fiscal = &fp
		}

		if rp, err := DeriveRetail(d, retail); err != nil {
			errs = append(errs, &DateError{Key: row.Key, Step: "retail", Err: err})
		} else {
			row.Retail = &rp
		}

		for _, h := range idx[row.Key] {
			row.IsHoliday = true
			row.HolidayJurisdictions = append(row.HolidayJurisdictions, h.Jurisdiction)
			row.HolidayNames = append(row.HolidayNames, h.Name)
		}
		// Deterministic output: rebuilds with identical inputs must be
		// byte-identical.
		sort.Strings(row.HolidayJurisdictions)
		sort.Strings(row.HolidayNames)

		row.IsWeekday = !d.IsWeekend()
		row.IsTradingDay = row.IsWeekday && !row.IsHoliday

		rows = append(rows, row)
	}
	return rows, errs
}

// =============================================================================
// CALENDAR - Immutable composed snapshot
// =============================================================================

type dayEntry struct {
	key     int
	date    CalendarDate
	trading bool
	row     int // index of the first row for this civil day
}

// Calendar is the composed output of one build: rows in spine order plus a
// per-civil-day index with running trading-day counts. Read-only after
// construction.
type Calendar struct {
	fiscal FiscalConfig
	retail RetailConfig
	rows   []UnifiedRow
	index  map[int]int // date key -> first row index
	days   []dayEntry  // unique civil days, ascending
	prefix []int       // prefix[i] = trading days among days[0..i]
}

// NewCalendar wraps composed rows (already in spine order) in a snapshot.
func NewCalendar(rows []UnifiedRow, fiscal FiscalConfig, retail RetailConfig) *Calendar {
	c := &Calendar{
		fiscal: fiscal,
		retail: retail,
		rows:   rows,
		index:  make(map[int]int, len(rows)),
	}
	for i, r := range rows {
		if _, seen := c.index[r.Key]; seen {
			continue // sub-day grains share one day entry
		}
		c.index[r.Key] = i
		c.days = append(c.days, dayEntry{key: r.Key, date: r.Date.Civil(), trading: r.IsTradingDay, row: i})
	}
	c.prefix = make([]int, len(c.days))
	count := 0
	for i, d := range c.days {
		if d.trading {
			count++
		}
		c.prefix[i] = count
	}
	return c
}

// Len returns the number of rows in the snapshot.
func (c *Calendar) Len() int { return len(c.rows) }

// Rows returns the composed rows in spine order. Callers must not mutate.
func (c *Calendar) Rows() []UnifiedRow { return c.rows }

// Row returns the first row for a date key.
func (c *Calendar) Row(key int) (UnifiedRow, bool) {
	i, ok := c.index[key]
	if !ok {
		return UnifiedRow{}, false
	}
	return c.rows[i], true
}

// From returns the first materialized civil day.
func (c *Calendar) From() CalendarDate {
	if len(c.days) == 0 {
		return CalendarDate{}
	}
	return c.days[0].date
}

// To returns the last materialized civil day.
func (c *Calendar) To() CalendarDate {
	if len(c.days) == 0 {
		return CalendarDate{}
	}
	return c.days[len(c.days)-1].date
}

// FiscalConfig returns the configuration the snapshot was built with.
func (c *Calendar) FiscalConfig() FiscalConfig { return c.fiscal }

// RetailConfig returns the configuration the snapshot was built with.
func (c *Calendar) RetailConfig() RetailConfig { return c.retail }

// dayIndex locates a civil day in the day index.
func (c *Calendar) dayIndex(d CalendarDate) (int, bool) {
	key := d.Civil().Key()
	i := sort.Search(len(c.days), func(i int) bool { return c.days[i].key >= key })
	if i < len(c.days) && c.days[i].key == key {
		return i, true
	}
	return 0, false
}

// WeekStart returns the week-start weekday the snapshot was built with.
func (c *Calendar) WeekStart() time.Weekday { return c.retail.WeekStart }
