/*
standard.go - Gregorian attribute derivation

PURPOSE:
  Maps a CalendarDate to plain Gregorian attributes. Straightforward
  calendar-API calls; the interesting math lives in fiscal.go and retail.go.
*/
package calendar

// StandardAttributes are the Gregorian attributes of one calendar date.
type StandardAttributes struct {
	Year       int    `json:"year"`
	Quarter    int    `json:"quarter"`
	Month      int    `json:"month"`
	MonthName  string `json:"month_name"`
	ISOWeek    int    `json:"iso_week"`
	ISOYear    int    `json:"iso_year"`
	DayOfWeek  int    `json:"day_of_week"` // 0 = Sunday
	DayName    string `json:"day_name"`
	DayOfMonth int    `json:"day_of_month"`
	DayOfYear  int    `json:"day_of_year"`

	IsWeekend      bool `json:"is_weekend"`
	IsMonthStart   bool `json:"is_month_start"`
	IsMonthEnd     bool `json:"is_month_end"`
	IsQuarterStart bool `json:"is_quarter_start"`
	IsQuarterEnd   bool `json:"is_quarter_end"`
	IsYearStart    bool `json:"is_year_start"`
	IsYearEnd      bool `json:"is_year_end"`
}

// DeriveStandard computes the Gregorian attributes for one date.
func DeriveStandard(d CalendarDate) StandardAttributes {
	t := d.Civil().Time
	isoYear, isoWeek := t.ISOWeek()
	q := QuarterOf(t.Month())

	return StandardAttributes{
		Year:       t.Year(),
		Quarter:    q,
		Month:      int(t.Month()),
		MonthName:  t.Month().String(),
		ISOWeek:    isoWeek,
		ISOYear:    isoYear,
		DayOfWeek:  int(t.Weekday()),
		DayName:    t.Weekday().String(),
		DayOfMonth: t.Day(),
		DayOfYear:  t.YearDay(),

		IsWeekend:      d.IsWeekend(),
		IsMonthStart:   t.Day() == 1,
		IsMonthEnd:     t.Day() == DaysInMonth(t.Year(), t.Month()),
		IsQuarterStart: d.Civil().Equal(StartOfQuarter(t.Year(), q)),
		IsQuarterEnd:   d.Civil().Equal(EndOfQuarter(t.Year(), q)),
		IsYearStart:    t.Month() == 1 && t.Day() == 1,
		IsYearEnd:      t.Month() == 12 && t.Day() == 31,
	}
}
