/*
holiday.go - Holiday collaborator interface

PURPOSE:
  The engine consumes holidays, it never computes them. A HolidayProvider
  hands back (date, name, jurisdiction) records for a range; absence of a
  record means "not a holiday". The HTTP catalog client lives in the
  holidays package; NoHolidays is the no-op default.
*/
package calendar

import "context"

// HolidayRecord is one public holiday in one jurisdiction.
type HolidayRecord struct {
	Date         CalendarDate `json:"date"`
	Name         string       `json:"name"`
	Jurisdiction string       `json:"jurisdiction"`
}

// HolidayProvider supplies holiday records for a closed date range.
// The engine never asks for dates outside the range it is building.
type HolidayProvider interface {
	HolidaysBetween(ctx context.Context, from, to CalendarDate) ([]HolidayRecord, error)
}

// NoHolidays is the provider used when holiday ingestion is disabled.
type NoHolidays struct{}

func (NoHolidays) HolidaysBetween(context.Context, CalendarDate, CalendarDate) ([]HolidayRecord, error) {
	return nil, nil
}

// holidayIndex groups records by date key for exact-date joins.
type holidayIndex map[int][]HolidayRecord

func indexHolidays(records []HolidayRecord) holidayIndex {
	idx := make(holidayIndex, len(records))
	for _, r := range records {
		key := r.Date.Key()
		idx[key] = append(idx[key], r)
	}
	return idx
}
