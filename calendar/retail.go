/*
retail.go - Retail (NRF-style) period derivation

PURPOSE:
  Maps a calendar date to a retail year / quarter / month / week under a
  4-4-5-family pattern anchored to a chosen weekday, with 52/53-week
  handling.

YEAR ANCHORING:
  The retail year labeled L starts on the first occurrence of the configured
  week-start weekday on or after the first day of (anchor_month + 1) in
  calendar year (L - 1). Consecutive years are contiguous: a year ends the
  day before the next year starts, so every year is a whole number of weeks
  and weeks_in_year (52 or 53) is always DERIVED from the two starts, never
  configured.

WEEK -> MONTH GROUPING:
  The pattern expands to 12 per-month week counts (4-4-5 repeated per
  quarter). Cumulative boundaries assign each week to a month. In a 53-week
  year the extra week is appended to month 12, and therefore quarter 4.
  This attribution is a compatibility rule, not a calendar fact; do not
  change it.

INVARIANTS:
  - year start always falls on the configured weekday
  - sum of weeks_in_month over a year equals weeks_in_year
  - every quarter has 13 weeks; in a 53-week year exactly Q4 has 14
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// PATTERN
// =============================================================================

// RetailPattern is the week grouping of the three months of each quarter.
type RetailPattern string

const (
	Pattern445 RetailPattern = "445"
	Pattern454 RetailPattern = "454"
	Pattern544 RetailPattern = "544"
)

// Valid reports whether p is a known pattern.
func (p RetailPattern) Valid() bool {
	return p == Pattern445 || p == Pattern454 || p == Pattern544
}

// quarterWeeks returns the per-month week counts of one quarter.
func (p RetailPattern) quarterWeeks() [3]int {
	switch p {
	case Pattern454:
		return [3]int{4, 5, 4}
	case Pattern544:
		return [3]int{5, 4, 4}
	default:
		return [3]int{4, 4, 5}
	}
}

// monthWeeks expands the pattern to 12 per-month week counts. When the year
// has 53 weeks the extra week is appended to month 12.
func (p RetailPattern) monthWeeks(weeksInYear int) [12]int {
	q := p.quarterWeeks()
	var months [12]int
	for i := 0; i < 12; i++ {
		months[i] = q[i%3]
	}
	if weeksInYear == 53 {
		months[11]++
	}
	return months
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// RetailConfig anchors the retail year. AnchorMonth is the approximate
// year-end month; WeekStart the weekday every retail week begins on.
type RetailConfig struct {
	Pattern     RetailPattern
	AnchorMonth time.Month
	WeekStart   time.Weekday
}

// Validate rejects unknown patterns and out-of-range anchors at build time.
func (c RetailConfig) Validate() error {
	if !c.Pattern.Valid() {
		return &ConfigError{Field: "retail_pattern", Reason: fmt.Sprintf("pattern %q not one of 445, 454, 544", c.Pattern)}
	}
	if c.AnchorMonth < time.January || c.AnchorMonth > time.December {
		return &ConfigError{Field: "retail_anchor_month", Reason: fmt.Sprintf("month %d out of range 1-12", c.AnchorMonth)}
	}
	if c.WeekStart < time.Sunday || c.WeekStart > time.Saturday {
		return &ConfigError{Field: "retail_week_start", Reason: fmt.Sprintf("weekday %d out of range 0-6", c.WeekStart)}
	}
	return nil
}

// YearStart returns the first day of the retail year carrying the label:
// the first WeekStart weekday on or after the first day of (AnchorMonth+1)
// in (label-1).
func (c RetailConfig) YearStart(label int) CalendarDate {
	y, m := label-1, int(c.AnchorMonth)+1
	if m > 12 {
		m = 1
		y++
	}
	d := NewDate(y, time.Month(m), 1)
	offset := (int(c.WeekStart) - int(d.Weekday()) + 7) % 7
	return d.AddDays(offset)
}

// YearEnd returns the last day of the retail year carrying the label.
func (c RetailConfig) YearEnd(label int) CalendarDate {
	return c.YearStart(label + 1).AddDays(-1)
}

// WeeksInYear derives the year length: always 52 or 53.
func (c RetailConfig) WeeksInYear(label int) int {
	return DaysBetween(c.YearStart(label), c.YearStart(label+1)) / 7
}

// YearFor returns the retail year label containing the date.
func (c RetailConfig) YearFor(d CalendarDate) int {
	d = d.Civil()
	label := d.Year()
	for d.Before(c.YearStart(label)) {
		label--
	}
	for d.AfterOrEqual(c.YearStart(label + 1)) {
		label++
	}
	return label
}

// MonthStart returns the first day of retail month rm (1-12) in retail year ry.
func (c RetailConfig) MonthStart(ry, rm int) CalendarDate {
	months := c.Pattern.monthWeeks(c.WeeksInYear(ry))
	weeks := 0
	for i := 0; i < rm-1; i++ {
		weeks += months[i]
	}
	return c.YearStart(ry).AddDays(weeks * 7)
}

// MonthEnd returns the last day of retail month rm (1-12) in retail year ry.
func (c RetailConfig) MonthEnd(ry, rm int) CalendarDate {
	if rm == 12 {
		return c.YearEnd(ry)
	}
	return c.MonthStart(ry, rm+1).AddDays(-1)
}

// QuarterStart returns the first day of retail quarter rq (1-4).
func (c RetailConfig) QuarterStart(ry, rq int) CalendarDate {
	return c.MonthStart(ry, (rq-1)*3+1)
}

// QuarterEnd returns the last day of retail quarter rq (1-4).
func (c RetailConfig) QuarterEnd(ry, rq int) CalendarDate {
	return c.MonthEnd(ry, rq*3)
}

// =============================================================================
// DERIVATION
// =============================================================================

// RetailPeriod is the retail view of one calendar date.
type RetailPeriod struct {
	Year        int          `json:"retail_year"`
	YearStart   CalendarDate `json:"retail_year_start_date"`
	YearEnd     CalendarDate `json:"retail_year_end_date"`
	WeeksInYear int          `json:"weeks_in_year"`
	Week        int          `json:"retail_week"`
	Month       int          `json:"retail_month"`
	Quarter     int          `json:"retail_quarter"`
	WeeksInMon  int          `json:"weeks_in_month"`

	IsYearStart    bool `json:"is_retail_year_start"`
	IsYearEnd      bool `json:"is_retail_year_end"`
	IsQuarterStart bool `json:"is_retail_quarter_start"`
	IsQuarterEnd   bool `json:"is_retail_quarter_end"`
	IsMonthStart   bool `json:"is_retail_month_start"`
	IsMonthEnd     bool `json:"is_retail_month_end"`
	IsWeekStart    bool `json:"is_retail_week_start"`
	IsWeekEnd      bool `json:"is_retail_week_end"`
}

// DeriveRetail computes the retail attributes for one date.
func DeriveRetail(d CalendarDate, cfg RetailConfig) (RetailPeriod, error) {
	if err := cfg.Validate(); err != nil {
		return RetailPeriod{}, err
	}

	d = d.Civil()
	ry := cfg.YearFor(d)
	start := cfg.YearStart(ry)
	end := cfg.YearEnd(ry)
	weeksInYear := cfg.WeeksInYear(ry)
	daysSince := DaysBetween(start, d)
	week := daysSince/7 + 1
	dayInWeek := daysSince % 7

	// Per-month week-count accumulation (canonical grouping rule).
	months := cfg.Pattern.monthWeeks(weeksInYear)
	rm, cum := 12, 0
	for i, w := range months {
		cum += w
		if week <= cum {
			rm = i + 1
			break
		}
	}
	rq := (rm-1)/3 + 1

	// Cumulative weeks before this month, for month-boundary flags.
	before := 0
	for i := 0; i < rm-1; i++ {
		before += months[i]
	}

	return RetailPeriod{
		Year:        ry,
		YearStart:   start,
		YearEnd:     end,
		WeeksInYear: weeksInYear,
		Week:        week,
		Month:       rm,
		Quarter:     rq,
		WeeksInMon:  months[rm-1],

		IsYearStart:    d.Equal(start),
		IsYearEnd:      d.Equal(end),
		IsQuarterStart: d.Equal(cfg.QuarterStart(ry, rq)),
		IsQuarterEnd:   d.Equal(cfg.QuarterEnd(ry, rq)),
		IsMonthStart:   dayInWeek == 0 && week == before+1,
		IsMonthEnd:     dayInWeek == 6 && week == before+months[rm-1],
		IsWeekStart:    dayInWeek == 0,
		IsWeekEnd:      dayInWeek == 6,
	}, nil
}
