/*
fiscal.go - Fiscal period derivation

PURPOSE:
  Maps a calendar date to a fiscal year / quarter / month / week under a
  configurable fiscal-year start month (and optional start day).

LABELING RULE:
  Fiscal years are labeled by the calendar year in which they END: the year
  starting at (fiscal_year-1, start_month, start_day) carries the label
  fiscal_year. With start day 1 this is equivalent to
  year(D + (13 - start_month) months).

START DAY > 1:
  Every period boundary inside the year is a month anchor stepped from the
  year-start anchor. When the configured day exceeds the length of an
  interior month (day 31 in April), that anchor clamps to the month's last
  day. The configured (month, day) pair itself is never clamped: a start day
  beyond the start month's length is rejected at build time (February counts
  as 28 so every year has an anchor).

INVARIANT:
  For a fixed configuration every date belongs to exactly one fiscal year;
  year starts are strictly increasing with no gaps or overlaps.
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// FiscalConfig anchors the fiscal year. StartDay defaults to 1.
type FiscalConfig struct {
	StartMonth time.Month
	StartDay   int
}

func (c FiscalConfig) day() int {
	if c.StartDay == 0 {
		return 1
	}
	return c.StartDay
}

// Validate rejects impossible anchors at build time rather than clamping.
func (c FiscalConfig) Validate() error {
	if c.StartMonth < time.January || c.StartMonth > time.December {
		return &ConfigError{Field: "fiscal_start_month", Reason: fmt.Sprintf("month %d out of range 1-12", c.StartMonth)}
	}
	maxDay := DaysInMonth(2023, c.StartMonth) // non-leap reference year
	if c.day() < 1 || c.day() > maxDay {
		return &ConfigError{
			Field:  "fiscal_start_day",
			Reason: fmt.Sprintf("day %d invalid for month %s (1-%d)", c.day(), c.StartMonth, maxDay),
		}
	}
	return nil
}

// =============================================================================
// PERIOD BOUNDARIES
// =============================================================================

// YearStart returns the first day of the fiscal year carrying the label.
func (c FiscalConfig) YearStart(label int) CalendarDate {
	return NewDate(label-1, c.StartMonth, c.day())
}

// YearEnd returns the last day of the fiscal year carrying the label.
func (c FiscalConfig) YearEnd(label int) CalendarDate {
	return c.YearStart(label + 1).AddDays(-1)
}

// YearFor returns the fiscal year label containing the date.
func (c FiscalConfig) YearFor(d CalendarDate) int {
	d = d.Civil()
	anchor := NewDate(d.Year(), c.StartMonth, c.day())
	if d.AfterOrEqual(anchor) {
		return d.Year() + 1
	}
	return d.Year()
}

// monthAnchor returns the k-th month boundary of a fiscal year (k=0 is the
// year start, k=12 the next year start). Interior anchors clamp the
// configured day to the month length.
func (c FiscalConfig) monthAnchor(label, k int) CalendarDate {
	months := int(c.StartMonth) - 1 + k
	y := label - 1 + months/12
	m := time.Month(months%12 + 1)
	day := c.day()
	if day > DaysInMonth(y, m) {
		day = DaysInMonth(y, m)
	}
	return NewDate(y, m, day)
}

// MonthStart returns the first day of fiscal month fm (1-12) in fiscal year fy.
func (c FiscalConfig) MonthStart(fy, fm int) CalendarDate { return c.monthAnchor(fy, fm-1) }

// MonthEnd returns the last day of fiscal month fm (1-12) in fiscal year fy.
func (c FiscalConfig) MonthEnd(fy, fm int) CalendarDate {
	return c.monthAnchor(fy, fm).AddDays(-1)
}

// QuarterStart returns the first day of fiscal quarter fq (1-4).
func (c FiscalConfig) QuarterStart(fy, fq int) CalendarDate {
	return c.monthAnchor(fy, (fq-1)*3)
}

// QuarterEnd returns the last day of fiscal quarter fq (1-4).
func (c FiscalConfig) QuarterEnd(fy, fq int) CalendarDate {
	return c.monthAnchor(fy, fq*3).AddDays(-1)
}

// =============================================================================
// DERIVATION
// =============================================================================

// FiscalPeriod is the fiscal view of one calendar date.
type FiscalPeriod struct {
	Year      int          `json:"fiscal_year"`
	YearStart CalendarDate `json:"fiscal_year_start_date"`
	YearEnd   CalendarDate `json:"fiscal_year_end_date"`
	Quarter   int          `json:"fiscal_quarter"`
	Month     int          `json:"fiscal_month"`
	Week      int          `json:"fiscal_week"`
	DayOfYear int          `json:"day_of_fiscal_year"`

	IsYearStart    bool `json:"is_fiscal_year_start"`
	IsYearEnd      bool `json:"is_fiscal_year_end"`
	IsQuarterStart bool `json:"is_fiscal_quarter_start"`
	IsQuarterEnd   bool `json:"is_fiscal_quarter_end"`
	IsMonthStart   bool `json:"is_fiscal_month_start"`
	IsMonthEnd     bool `json:"is_fiscal_month_end"`
}

// DeriveFiscal computes the fiscal attributes for one date.
func DeriveFiscal(d CalendarDate, cfg FiscalConfig) (FiscalPeriod, error) {
	if err := cfg.Validate(); err != nil {
		return FiscalPeriod{}, err
	}

	d = d.Civil()
	fy := cfg.YearFor(d)
	start := cfg.YearStart(fy)
	end := cfg.YearEnd(fy)
	daysSince := DaysBetween(start, d)

	// Fiscal month: the highest month anchor at or before the date.
	fm := 1
	for k := 12; k >= 1; k-- {
		if d.AfterOrEqual(cfg.monthAnchor(fy, k-1)) {
			fm = k
			break
		}
	}
	fq := (fm-1)/3 + 1

	return FiscalPeriod{
		Year:      fy,
		YearStart: start,
		YearEnd:   end,
		Quarter:   fq,
		Month:     fm,
		Week:      daysSince/7 + 1,
		DayOfYear: daysSince + 1,

		IsYearStart:    d.Equal(start),
		IsYearEnd:      d.Equal(end),
		IsQuarterStart: d.Equal(cfg.QuarterStart(fy, fq)),
		IsQuarterEnd:   d.Equal(cfg.QuarterEnd(fy, fq)),
		IsMonthStart:   d.Equal(cfg.MonthStart(fy, fm)),
		IsMonthEnd:     d.Equal(cfg.MonthEnd(fy, fm)),
	}, nil
}
