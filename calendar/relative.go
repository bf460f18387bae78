/*
relative.go - Relative-period evaluation ("as of now" flags)

PURPOSE:
  Computes, for a calendar date and an evaluation instant, boolean flags like
  is_today / is_last_month / is_ytd, rolling windows, signed period
  distances, and a human-readable label. Flags are ephemeral: "now" changes
  continuously, so nothing here is persisted and every call is independently
  consistent.

TIMEZONES:
  The instant is converted to a civil "today" once per timezone; after that
  the evaluation is pure date math. Two timezones can disagree on is_today
  when their local dates differ across the date line. Evaluations are
  independent and namespaced per timezone; there is no shared state.

WEEKS:
  Week boundaries use the configured week-start weekday (the same one the
  retail deriver uses), so "this week" and retail weeks agree.
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// RelativeConfig bounds the offset flags. PeriodsBack is the minus horizon,
// PeriodsAhead the (typically smaller) plus horizon.
type RelativeConfig struct {
	WeekStart    time.Weekday
	PeriodsBack  int
	PeriodsAhead int
}

// =============================================================================
// FLAGS
// =============================================================================

// RelativeFlags is the full relative view of one date from one timezone.
type RelativeFlags struct {
	Timezone string       `json:"timezone"`
	Today    CalendarDate `json:"today"`

	IsToday     bool `json:"is_today"`
	IsYesterday bool `json:"is_yesterday"`
	IsTomorrow  bool `json:"is_tomorrow"`

	IsThisWeek    bool `json:"is_this_week"`
	IsLastWeek    bool `json:"is_last_week"`
	IsNextWeek    bool `json:"is_next_week"`
	IsThisMonth   bool `json:"is_this_month"`
	IsLastMonth   bool `json:"is_last_month"`
	IsNextMonth   bool `json:"is_next_month"`
	IsThisQuarter bool `json:"is_this_quarter"`
	IsLastQuarter bool `json:"is_last_quarter"`
	IsNextQuarter bool `json:"is_next_quarter"`
	IsThisYear    bool `json:"is_this_year"`
	IsLastYear    bool `json:"is_last_year"`
	IsNextYear    bool `json:"is_next_year"`

	// To-date windows: period start through today, inclusive.
	IsWTD bool `json:"is_wtd"`
	IsMTD bool `json:"is_mtd"`
	IsQTD bool `json:"is_qtd"`
	IsYTD bool `json:"is_ytd"`

	// Rolling windows ending today, inclusive.
	IsLast7Days   bool `json:"is_last_7_days"`
	IsLast30Days  bool `json:"is_last_30_days"`
	IsLast90Days  bool `json:"is_last_90_days"`
	IsLast365Days bool `json:"is_last_365_days"`

	// Signed distances from today (negative = past).
	DaysFromToday     int `json:"days_from_today"`
	WeeksFromToday    int `json:"weeks_from_today"`
	MonthsFromToday   int `json:"months_from_today"`
	QuartersFromToday int `json:"quarters_from_today"`
	YearsFromToday    int `json:"years_from_today"`

	// Offset flags within the configured horizons: key -k is
	// "k periods back", key +k is "k periods forward". Zero is never
	// present (covered by the is_this_* flags).
	WeekOffsets    map[int]bool `json:"week_offsets,omitempty"`
	MonthOffsets   map[int]bool `json:"month_offsets,omitempty"`
	QuarterOffsets map[int]bool `json:"quarter_offsets,omitempty"`
	YearOffsets    map[int]bool `json:"year_offsets,omitempty"`

	Label string `json:"label"`
}

// =============================================================================
// EVALUATION
// =============================================================================

// EvaluateRelative computes the flags for one date at one instant in one
// location. Deterministic: identical inputs always yield identical flags.
func EvaluateRelative(d CalendarDate, now time.Time, loc *time.Location, cfg RelativeConfig) RelativeFlags {
	local := now.In(loc)
	today := NewDate(local.Year(), local.Month(), local.Day())
	d = d.Civil()

	days := DaysBetween(today, d)
	weeks := weekIndex(d, cfg.WeekStart) - weekIndex(today, cfg.WeekStart)
	months := (d.Year()*12 + int(d.Month())) - (today.Year()*12 + int(today.Month()))
	quarters := (d.Year()*4 + QuarterOf(d.Month())) - (today.Year()*4 + QuarterOf(today.Month()))
	years := d.Year() - today.Year()

	f := RelativeFlags{
		Timezone: loc.String(),
		Today:    today,

		IsToday:     days == 0,
		IsYesterday: days == -1,
		IsTomorrow:  days == 1,

		IsThisWeek:    weeks == 0,
		IsLastWeek:    weeks == -1,
		IsNextWeek:    weeks == 1,
		IsThisMonth:   months == 0,
		IsLastMonth:   months == -1,
		IsNextMonth:   months == 1,
		IsThisQuarter: quarters == 0,
		IsLastQuarter: quarters == -1,
		IsNextQuarter: quarters == 1,
		IsThisYear:    years == 0,
		IsLastYear:    years == -1,
		IsNextYear:    years == 1,

		IsWTD: weeks == 0 && days <= 0,
		IsMTD: months == 0 && days <= 0,
		IsQTD: quarters == 0 && days <= 0,
		IsYTD: years == 0 && days <= 0,

		IsLast7Days:   days <= 0 && days > -7,
		IsLast30Days:  days <= 0 && days > -30,
		IsLast90Days:  days <= 0 && days > -90,
		IsLast365Days: days <= 0 && days > -365,

		DaysFromToday:     days,
		WeeksFromToday:    weeks,
		MonthsFromToday:   months,
		QuartersFromToday: quarters,
		YearsFromToday:    years,

		WeekOffsets:    offsetFlags(weeks, cfg.PeriodsBack, cfg.PeriodsAhead),
		MonthOffsets:   offsetFlags(months, cfg.PeriodsBack, cfg.PeriodsAhead),
		QuarterOffsets: offsetFlags(quarters, cfg.PeriodsBack, cfg.PeriodsAhead),
		YearOffsets:    offsetFlags(years, cfg.PeriodsBack, cfg.PeriodsAhead),
	}
	f.Label = label(f)
	return f
}

// EvaluateRelativeZones evaluates the date independently in every timezone.
// Identifiers must resolve via time.LoadLocation.
func EvaluateRelativeZones(d CalendarDate, now time.Time, zones []string, cfg RelativeConfig) (map[string]RelativeFlags, error) {
	out := make(map[string]RelativeFlags, len(zones))
	for _, z := range zones {
		loc, err := time.LoadLocation(z)
		if err != nil {
			return nil, &ConfigError{Field: "timezones", Reason: fmt.Sprintf("unknown timezone %q", z)}
		}
		out[z] = EvaluateRelative(d, now, loc, cfg)
	}
	return out, nil
}

// weekIndex numbers weeks from the epoch given a week-start weekday, so week
// distance is a plain difference. Jan 1 1970 was a Thursday.
func weekIndex(d CalendarDate, weekStart time.Weekday) int {
	epochDays := DaysBetween(NewDate(1970, time.January, 1), d)
	// Shift so day 0 of each week is the configured weekday.
	shift := (4 - int(weekStart) + 7) % 7 // 4 = Thursday
	shifted := epochDays + shift
	if shifted < 0 {
		shifted -= 6
	}
	return shifted / 7
}

func offsetFlags(distance, back, ahead int) map[int]bool {
	m := make(map[int]bool, back+ahead)
	for k := 1; k <= back; k++ {
		m[-k] = distance == -k
	}
	for k := 1; k <= ahead; k++ {
		m[k] = distance == k
	}
	return m
}

// label picks the most specific matching description, in fixed precedence.
func label(f RelativeFlags) string {
	switch {
	case f.IsToday:
		return "Today"
	case f.IsYesterday:
		return "Yesterday"
	case f.IsTomorrow:
		return "Tomorrow"
	case f.IsThisWeek:
		return "This Week"
	case f.IsLastWeek:
		return "Last Week"
	case f.IsNextWeek:
		return "Next Week"
	case f.IsThisMonth:
		return "This Month"
	case f.IsLastMonth:
		return "Last Month"
	case f.IsNextMonth:
		return "Next Month"
	case f.IsThisQuarter:
		return "This Quarter"
	case f.IsLastQuarter:
		return "Last Quarter"
	case f.IsNextQuarter:
		return "Next Quarter"
	case f.IsThisYear:
		return "This Year"
	case f.IsLastYear:
		return "Last Year"
	case f.IsNextYear:
		return "Next Year"
	case f.IsLast7Days:
		return "Last 7 Days"
	case f.IsLast30Days:
		return "Last 30 Days"
	case f.IsLast90Days:
		return "Last 90 Days"
	case f.IsLast365Days:
		return "Last 365 Days"
	default:
		return "Other Period"
	}
}
