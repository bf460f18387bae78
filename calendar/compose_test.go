/*
compose_test.go - Unified composer and snapshot tests

Covers:
- Joined standard/fiscal/retail attributes and derived trading flags
- Holiday joins: multi-jurisdiction sets with deterministic ordering
- Failure isolation: one bad deriver config nils its group, keeps the row
- Snapshot lookups by date key
*/
package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestCompose_JoinsAllAttributeGroups(t *testing.T) {
	fiscal := FiscalConfig{StartMonth: time.July}
	retail := retail445Sunday()

	dates, err := Spine(MustDate("2020-07-01"), MustDate("2020-07-05"), GrainDay)
	if err != nil {
		t.Fatalf("spine: %v", err)
	}
	rows, errs := Compose(dates, fiscal, retail, nil)
	if len(errs) > 0 {
		t.Fatalf("compose: %v", errs)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}

	// Wednesday 2020-07-01 opens fiscal year 2021.
	row := rows[0]
	if row.Key != 20200701 {
		t.Fatalf("row key = %d, want 20200701", row.Key)
	}
	if row.Standard == nil || row.Fiscal == nil || row.Retail == nil {
		t.Fatal("all attribute groups must be present")
	}
	if row.Fiscal.Year != 2021 || !row.Fiscal.IsYearStart {
		t.Errorf("fiscal year = %d (start=%v), want 2021/true", row.Fiscal.Year, row.Fiscal.IsYearStart)
	}
	if !row.IsWeekday || !row.IsTradingDay || row.IsHoliday {
		t.Errorf("flags weekday/trading/holiday = %v/%v/%v, want true/true/false",
			row.IsWeekday, row.IsTradingDay, row.IsHoliday)
	}

	// Saturday 2020-07-04 is a weekend: not a weekday, not a trading day.
	sat := rows[3]
	if sat.IsWeekday || sat.IsTradingDay {
		t.Errorf("saturday weekday/trading = %v/%v, want false/false", sat.IsWeekday, sat.IsTradingDay)
	}
}

func TestCompose_HolidaySetsAreDeterministic(t *testing.T) {
	// GIVEN: one date observed as a holiday in two jurisdictions, supplied in
	// non-alphabetical order
	holidays := []HolidayRecord{
		{Date: MustDate("2024-12-25"), Name: "Weihnachten", Jurisdiction: "DE"},
		{Date: MustDate("2024-12-25"), Name: "Christmas Day", Jurisdiction: "AT"},
	}
	dates := []CalendarDate{MustDate("2024-12-25")}

	rows, errs := Compose(dates, FiscalConfig{StartMonth: time.January}, retail445Sunday(), holidays)
	if len(errs) > 0 {
		t.Fatalf("compose: %v", errs)
	}

	// THEN: the row carries a sorted jurisdiction set and is not a trading day
	row := rows[0]
	if !row.IsHoliday || row.IsTradingDay {
		t.Errorf("holiday/trading = %v/%v, want true/false", row.IsHoliday, row.IsTradingDay)
	}
	if len(row.HolidayJurisdictions) != 2 ||
		row.HolidayJurisdictions[0] != "AT" || row.HolidayJurisdictions[1] != "DE" {
		t.Errorf("jurisdictions = %v, want [AT DE]", row.HolidayJurisdictions)
	}
}

func TestCompose_HolidayOnWeekendStaysNonTrading(t *testing.T) {
	// 2024-12-01 is a Sunday; marking it a holiday must not resurrect it.
	holidays := []HolidayRecord{{Date: MustDate("2024-12-01"), Name: "First of Advent", Jurisdiction: "DE"}}
	rows, _ := Compose([]CalendarDate{MustDate("2024-12-01")},
		FiscalConfig{StartMonth: time.January}, retail445Sunday(), holidays)
	if rows[0].IsTradingDay || rows[0].IsWeekday {
		t.Error("weekend holiday must stay non-trading and non-weekday")
	}
}

func TestCompose_IsolatesPerDateFailures(t *testing.T) {
	// GIVEN: an invalid fiscal configuration but a valid retail one
	badFiscal := FiscalConfig{StartMonth: time.June, StartDay: 31}
	dates := []CalendarDate{MustDate("2024-05-01"), MustDate("2024-05-02")}

	rows, errs := Compose(dates, badFiscal, retail445Sunday(), nil)

	// THEN: every row survives with the failed group nil and the rest intact
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	for _, row := range rows {
		if row.Fiscal != nil {
			t.Error("fiscal group must be nil after a fiscal derivation failure")
		}
		if row.Standard == nil || row.Retail == nil {
			t.Error("surviving groups must still be derived")
		}
	}
	var de *DateError
	if !errors.As(errs[0], &de) || de.Step != "fiscal" {
		t.Errorf("error = %v, want *DateError for the fiscal step", errs[0])
	}
	if !errors.Is(errs[0], ErrConfiguration) {
		t.Errorf("error must unwrap to ErrConfiguration, got %v", errs[0])
	}
}

func TestCalendar_RowLookupByKey(t *testing.T) {
	cal := testCalendar(t)

	row, ok := cal.Row(20240215)
	if !ok {
		t.Fatal("materialized date not found")
	}
	if !row.Date.Equal(MustDate("2024-02-15")) {
		t.Errorf("row date = %s, want 2024-02-15", row.Date)
	}
	if _, ok := cal.Row(20300101); ok {
		t.Error("unmaterialized date must not resolve")
	}
	if got := cal.From(); !got.Equal(MustDate("2023-01-01")) {
		t.Errorf("From = %s, want 2023-01-01", got)
	}
	if got := cal.To(); !got.Equal(MustDate("2024-12-31")) {
		t.Errorf("To = %s, want 2024-12-31", got)
	}
}
