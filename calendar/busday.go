/*
busday.go - Business-day arithmetic over a composed Calendar

PURPOSE:
  Add/subtract/count trading days and compute "same day N periods ago" under
  calendar, fiscal, or retail period semantics. All operations read a fixed
  snapshot through its prefix trading-day counts; nothing here mutates state,
  so concurrent use needs no locking.

RUNNING-COUNT MODEL:
  prefix[i] is the number of trading days among days[0..i]. Stepping n
  business days forward from a day with prefix p lands on the unique trading
  day with prefix p+n; stepping backward is symmetric. A target prefix
  outside [1, prefix[last]] is a RangeError.

SAME-DAY POLICY:
  If the input is the LAST day of its period, the result is the last day of
  the target period rather than a day-count projection. Otherwise the
  day-of-period is matched and clamped to the target period's length
  (May 31 - 3 months = Feb 28; Feb 29 - 1 year = Feb 28).
*/
package calendar

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// PERIOD UNIT
// =============================================================================

type PeriodUnit string

const (
	UnitMonth   PeriodUnit = "MONTH"
	UnitQuarter PeriodUnit = "QUARTER"
	UnitYear    PeriodUnit = "YEAR"
)

// ParsePeriodUnit accepts the unit names case-insensitively.
func ParsePeriodUnit(s string) (PeriodUnit, error) {
	switch PeriodUnit(strings.ToUpper(s)) {
	case UnitMonth:
		return UnitMonth, nil
	case UnitQuarter:
		return UnitQuarter, nil
	case UnitYear:
		return UnitYear, nil
	}
	return "", fmt.Errorf("unknown period unit %q", s)
}

// =============================================================================
// RUNNING-COUNT ARITHMETIC
// =============================================================================

// tradingAt finds the trading day with the given running count.
func (c *Calendar) tradingAt(target int, op string, start CalendarDate) (CalendarDate, error) {
	if len(c.days) == 0 {
		return CalendarDate{}, ErrNoCalendar
	}
	if target < 1 || target > c.prefix[len(c.prefix)-1] {
		return CalendarDate{}, &RangeError{Op: op, Start: start, From: c.From(), To: c.To()}
	}
	j := sort.Search(len(c.prefix), func(i int) bool { return c.prefix[i] >= target })
	return c.days[j].date, nil
}

// AddBusinessDays returns the date n trading days after start.
func (c *Calendar) AddBusinessDays(start CalendarDate, n int) (CalendarDate, error) {
	if n < 0 {
		return c.SubtractBusinessDays(start, -n)
	}
	i, ok := c.dayIndex(start)
	if !ok {
		return CalendarDate{}, &RangeError{Op: "add_business_days", Start: start, From: c.From(), To: c.To()}
	}
	if n == 0 {
		return c.days[i].date, nil
	}
	return c.tradingAt(c.prefix[i]+n, "add_business_days", start)
}

// SubtractBusinessDays returns the date n trading days before start.
func (c *Calendar) SubtractBusinessDays(start CalendarDate, n int) (CalendarDate, error) {
	if n < 0 {
		return c.AddBusinessDays(start, -n)
	}
	i, ok := c.dayIndex(start)
	if !ok {
		return CalendarDate{}, &RangeError{Op: "subtract_business_days", Start: start, From: c.From(), To: c.To()}
	}
	if n == 0 {
		return c.days[i].date, nil
	}
	target := c.prefix[i] - n
	if !c.days[i].trading {
		target++ // first step back from a non-trading day lands on prefix[i]
	}
	return c.tradingAt(target, "subtract_business_days", start)
}

// CountBusinessDays counts trading days in the closed interval [from, to].
// An empty interval (from after to) counts zero.
func (c *Calendar) CountBusinessDays(from, to CalendarDate) (int, error) {
	if from.Civil().After(to.Civil()) {
		return 0, nil
	}
	i, ok := c.dayIndex(from)
	if !ok {
		return 0, &RangeError{Op: "count_business_days", Start: from, From: c.From(), To: c.To()}
	}
	j, ok := c.dayIndex(to)
	if !ok {
		return 0, &RangeError{Op: "count_business_days", Start: to, From: c.From(), To: c.To()}
	}
	count := c.prefix[j] - c.prefix[i]
	if c.days[i].trading {
		count++
	}
	return count, nil
}

// NextBusinessDay returns the nearest strictly greater trading day.
func (c *Calendar) NextBusinessDay(d CalendarDate) (CalendarDate, error) {
	i, ok := c.dayIndex(d)
	if !ok {
		return CalendarDate{}, &RangeError{Op: "next_business_day", Start: d, From: c.From(), To: c.To()}
	}
	return c.tradingAt(c.prefix[i]+1, "next_business_day", d)
}

// PreviousBusinessDay returns the nearest strictly lesser trading day.
func (c *Calendar) PreviousBusinessDay(d CalendarDate) (CalendarDate, error) {
	i, ok := c.dayIndex(d)
	if !ok {
		return CalendarDate{}, &RangeError{Op: "previous_business_day", Start: d, From: c.From(), To: c.To()}
	}
	target := c.prefix[i]
	if c.days[i].trading {
		target--
	}
	return c.tradingAt(target, "previous_business_day", d)
}

// =============================================================================
// SAME DAY PREVIOUS PERIOD - Calendar semantics
// =============================================================================

// SameDayPreviousPeriod returns the date n units earlier holding the same
// relative position in its period. Pure calendar math; needs no snapshot.
func SameDayPreviousPeriod(d CalendarDate, unit PeriodUnit, n int) (CalendarDate, error) {
	d = d.Civil()
	switch unit {
	case UnitMonth:
		if d.Day() == DaysInMonth(d.Year(), d.Month()) {
			t := StartOfMonth(d.Year(), d.Month()).AddMonthsClamped(-n)
			return EndOfMonth(t.Year(), t.Month()), nil
		}
		return d.AddMonthsClamped(-n), nil

	case UnitQuarter:
		q := QuarterOf(d.Month())
		if d.Equal(EndOfQuarter(d.Year(), q)) {
			t := StartOfQuarter(d.Year(), q).AddMonthsClamped(-3 * n)
			return EndOfQuarter(t.Year(), QuarterOf(t.Month())), nil
		}
		return d.AddMonthsClamped(-3 * n), nil

	case UnitYear:
		ty := d.Year() - n
		day := d.Day()
		if day > DaysInMonth(ty, d.Month()) {
			day = DaysInMonth(ty, d.Month()) // Feb 29 on a non-leap target
		}
		return NewDate(ty, d.Month(), day), nil
	}
	return CalendarDate{}, fmt.Errorf("unknown period unit %q", unit)
}

// SameBusinessDayPreviousPeriod computes SameDayPreviousPeriod and, when the
// result is not a trading day, advances to the next trading day.
func (c *Calendar) SameBusinessDayPreviousPeriod(d CalendarDate, unit PeriodUnit, n int) (CalendarDate, error) {
	res, err := SameDayPreviousPeriod(d, unit, n)
	if err != nil {
		return CalendarDate{}, err
	}
	return c.toTradingDay(res, "same_business_day_previous_period")
}

func (c *Calendar) toTradingDay(d CalendarDate, op string) (CalendarDate, error) {
	i, ok := c.dayIndex(d)
	if !ok {
		return CalendarDate{}, &RangeError{Op: op, Start: d, From: c.From(), To: c.To()}
	}
	if c.days[i].trading {
		return c.days[i].date, nil
	}
	return c.NextBusinessDay(d)
}

// =============================================================================
// SAME DAY PREVIOUS PERIOD - Fiscal and retail semantics
// =============================================================================

// periodBounds abstracts "start/end of the period n units back" for the
// fiscal and retail configurations.
type periodBounds struct {
	curStart, curEnd CalendarDate
	tgtStart, tgtEnd CalendarDate
}

// sameDayIn applies the shared offset-from-period-start policy.
func (b periodBounds) sameDayIn(d CalendarDate) CalendarDate {
	if d.Equal(b.curEnd) {
		return b.tgtEnd
	}
	offset := DaysBetween(b.curStart, d)
	if max := DaysBetween(b.tgtStart, b.tgtEnd); offset > max {
		offset = max
	}
	return b.tgtStart.AddDays(offset)
}

// SameDayPreviousFiscalPeriod locates the fiscal period n units back and
// returns the date at the same offset from the period start.
func (c *Calendar) SameDayPreviousFiscalPeriod(d CalendarDate, unit PeriodUnit, n int) (CalendarDate, error) {
	cfg := c.fiscal
	d = d.Civil()
	fp, err := DeriveFiscal(d, cfg)
	if err != nil {
		return CalendarDate{}, err
	}

	var b periodBounds
	switch unit {
	case UnitMonth:
		ord := fp.Year*12 + fp.Month - 1 - n
		ty, tm := ord/12, ord%12+1
		b = periodBounds{
			curStart: cfg.MonthStart(fp.Year, fp.Month), curEnd: cfg.MonthEnd(fp.Year, fp.Month),
			tgtStart: cfg.MonthStart(ty, tm), tgtEnd: cfg.MonthEnd(ty, tm),
		}
	case UnitQuarter:
		ord := fp.Year*4 + fp.Quarter - 1 - n
		ty, tq := ord/4, ord%4+1
		b = periodBounds{
			curStart: cfg.QuarterStart(fp.Year, fp.Quarter), curEnd: cfg.QuarterEnd(fp.Year, fp.Quarter),
			tgtStart: cfg.QuarterStart(ty, tq), tgtEnd: cfg.QuarterEnd(ty, tq),
		}
	case UnitYear:
		b = periodBounds{
			curStart: fp.YearStart, curEnd: fp.YearEnd,
			tgtStart: cfg.YearStart(fp.Year - n), tgtEnd: cfg.YearEnd(fp.Year - n),
		}
	default:
		return CalendarDate{}, fmt.Errorf("unknown period unit %q", unit)
	}
	return b.sameDayIn(d), nil
}

// SameDayPreviousRetailPeriod is the retail twin of
// SameDayPreviousFiscalPeriod.
func (c *Calendar) SameDayPreviousRetailPeriod(d CalendarDate, unit PeriodUnit, n int) (CalendarDate, error) {
	cfg := c.retail
	d = d.Civil()
	rp, err := DeriveRetail(d, cfg)
	if err != nil {
		return CalendarDate{}, err
	}

	var b periodBounds
	switch unit {
	case UnitMonth:
		ord := rp.Year*12 + rp.Month - 1 - n
		ty, tm := ord/12, ord%12+1
		b = periodBounds{
			curStart: cfg.MonthStart(rp.Year, rp.Month), curEnd: cfg.MonthEnd(rp.Year, rp.Month),
			tgtStart: cfg.MonthStart(ty, tm), tgtEnd: cfg.MonthEnd(ty, tm),
		}
	case UnitQuarter:
		ord := rp.Year*4 + rp.Quarter - 1 - n
		ty, tq := ord/4, ord%4+1
		b = periodBounds{
			curStart: cfg.QuarterStart(rp.Year, rp.Quarter), curEnd: cfg.QuarterEnd(rp.Year, rp.Quarter),
			tgtStart: cfg.QuarterStart(ty, tq), tgtEnd: cfg.QuarterEnd(ty, tq),
		}
	case UnitYear:
		b = periodBounds{
			curStart: rp.YearStart, curEnd: rp.YearEnd,
			tgtStart: cfg.YearStart(rp.Year - n), tgtEnd: cfg.YearEnd(rp.Year - n),
		}
	default:
		return CalendarDate{}, fmt.Errorf("unknown period unit %q", unit)
	}
	return b.sameDayIn(d), nil
}
