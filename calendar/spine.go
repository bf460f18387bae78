/*
spine.go - Date spine enumeration

PURPOSE:
  Produces the ordered, gap-free sequence of CalendarDates between two bounds
  at a chosen grain. Pure enumeration; every derivation downstream is a map
  over these entries.

The spine is bounded: a range that would enumerate more than MaxSpineEntries
is rejected as a configuration error so a build can never run unbounded.
*/
package calendar

import (
	"fmt"
	"time"
)

// MaxSpineEntries caps a single build. 200k covers ~550 years of daily rows
// or ~2 days of second-grain rows.
const MaxSpineEntries = 200_000

// Spine enumerates every instant in [from, to] at the given grain.
// Month, quarter and year grains step from the 'from' anchor with day-of-month
// clamping, so an end-of-month anchor stays at end of month.
func Spine(from, to CalendarDate, grain Grain) ([]CalendarDate, error) {
	if !grain.Valid() {
		return nil, &ConfigError{Field: "grain", Reason: fmt.Sprintf("unknown grain %q", grain)}
	}
	if from.After(to) {
		return nil, &ConfigError{Field: "range", Reason: fmt.Sprintf("start %s after end %s", from, to)}
	}

	from = NewInstant(from.Time, grain)
	to = NewInstant(to.Time, grain)

	// Every entry is computed from the 'from' anchor, never from the previous
	// entry: a clamped month boundary (Jan 31 -> Feb 29) must not shorten the
	// day-of-month of every later step.
	var dates []CalendarDate
	for i := 0; ; i++ {
		cur := entryAt(from, grain, i)
		if cur.After(to) {
			break
		}
		if len(dates) >= MaxSpineEntries {
			return nil, &ConfigError{
				Field:  "range",
				Reason: fmt.Sprintf("spine exceeds %d entries at grain %q", MaxSpineEntries, grain),
			}
		}
		dates = append(dates, cur)
	}
	return dates, nil
}

// entryAt returns the i-th spine entry stepped from the anchor.
func entryAt(anchor CalendarDate, grain Grain, i int) CalendarDate {
	switch grain {
	case GrainSecond:
		return CalendarDate{Time: anchor.Time.Add(time.Duration(i) * time.Second), Grain: grain}
	case GrainMinute:
		return CalendarDate{Time: anchor.Time.Add(time.Duration(i) * time.Minute), Grain: grain}
	case GrainHour:
		return CalendarDate{Time: anchor.Time.Add(time.Duration(i) * time.Hour), Grain: grain}
	case GrainWeek:
		return anchor.AddDays(7 * i)
	case GrainMonth:
		return anchor.AddMonthsClamped(i)
	case GrainQuarter:
		return anchor.AddMonthsClamped(3 * i)
	case GrainYear:
		return anchor.AddMonthsClamped(12 * i)
	default:
		return anchor.AddDays(i)
	}
}
