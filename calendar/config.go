/*
config.go - Build configuration

PURPOSE:
  One explicit BuildConfig value travels into every build call. There are no
  ambient defaults and no process-wide configuration state: two builds with
  the same BuildConfig are interchangeable.

VALIDATION:
  Field-level rules are validator tags; cross-field rules (fiscal start day
  vs month length, resolvable timezones, ordered range) run afterwards.
  Every violation is a ConfigError and aborts the build before derivation.
*/
package calendar

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// BUILD CONFIG
// =============================================================================

// BuildConfig fully describes one calendar build.
type BuildConfig struct {
	RangeStart string `json:"range_start" toml:"range_start" validate:"required,datetime=2006-01-02"`
	RangeEnd   string `json:"range_end" toml:"range_end" validate:"required,datetime=2006-01-02"`
	Grain      string `json:"grain,omitempty" toml:"grain" validate:"omitempty,oneof=second minute hour day week month quarter year"`

	FiscalStartMonth int `json:"fiscal_start_month" toml:"fiscal_start_month" validate:"min=1,max=12"`
	FiscalStartDay   int `json:"fiscal_start_day,omitempty" toml:"fiscal_start_day" validate:"omitempty,min=1,max=31"`

	RetailPattern     string `json:"retail_pattern" toml:"retail_pattern" validate:"oneof=445 454 544"`
	RetailAnchorMonth int    `json:"retail_anchor_month" toml:"retail_anchor_month" validate:"min=1,max=12"`
	RetailWeekStart   int    `json:"retail_week_start" toml:"retail_week_start" validate:"min=0,max=6"`

	RelativePeriodsBack  int `json:"relative_periods_back,omitempty" toml:"relative_periods_back" validate:"omitempty,min=1"`
	RelativePeriodsAhead int `json:"relative_periods_ahead,omitempty" toml:"relative_periods_ahead" validate:"omitempty,min=0"`

	Timezones            []string `json:"timezones,omitempty" toml:"timezones" validate:"omitempty,dive,required"`
	HolidayJurisdictions []string `json:"holiday_jurisdictions,omitempty" toml:"holiday_jurisdictions" validate:"omitempty,dive,len=2"`
}

var validate = validator.New()

// Normalized returns a copy with defaults applied.
func (c BuildConfig) Normalized() BuildConfig {
	if c.Grain == "" {
		c.Grain = string(GrainDay)
	}
	if c.FiscalStartDay == 0 {
		c.FiscalStartDay = 1
	}
	if c.RelativePeriodsBack == 0 {
		c.RelativePeriodsBack = 12
	}
	if c.RelativePeriodsAhead == 0 {
		c.RelativePeriodsAhead = 4
	}
	if len(c.Timezones) == 0 {
		c.Timezones = []string{"UTC"}
	}
	return c
}

// Validate checks field rules, then the cross-field rules the tags cannot
// express. Call on a Normalized config.
func (c BuildConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			v := verrs[0]
			return &ConfigError{Field: v.Field(), Reason: fmt.Sprintf("failed %q rule (value %v)", v.Tag(), v.Value())}
		}
		return &ConfigError{Field: "config", Reason: err.Error()}
	}

	start, err := ParseDate(c.RangeStart)
	if err != nil {
		return &ConfigError{Field: "range_start", Reason: err.Error()}
	}
	end, err := ParseDate(c.RangeEnd)
	if err != nil {
		return &ConfigError{Field: "range_end", Reason: err.Error()}
	}
	if start.After(end) {
		return &ConfigError{Field: "range", Reason: fmt.Sprintf("start %s after end %s", start, end)}
	}

	if err := c.Fiscal().Validate(); err != nil {
		return err
	}
	if err := c.Retail().Validate(); err != nil {
		return err
	}

	for _, z := range c.Timezones {
		if _, err := time.LoadLocation(z); err != nil {
			return &ConfigError{Field: "timezones", Reason: fmt.Sprintf("unknown timezone %q", z)}
		}
	}
	return nil
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Fiscal returns the fiscal deriver configuration.
func (c BuildConfig) Fiscal() FiscalConfig {
	return FiscalConfig{StartMonth: time.Month(c.FiscalStartMonth), StartDay: c.FiscalStartDay}
}

// Retail returns the retail deriver configuration.
func (c BuildConfig) Retail() RetailConfig {
	return RetailConfig{
		Pattern:     RetailPattern(c.RetailPattern),
		AnchorMonth: time.Month(c.RetailAnchorMonth),
		WeekStart:   time.Weekday(c.RetailWeekStart),
	}
}

// Relative returns the relative-period evaluator configuration.
func (c BuildConfig) Relative() RelativeConfig {
	return RelativeConfig{
		WeekStart:    time.Weekday(c.RetailWeekStart),
		PeriodsBack:  c.RelativePeriodsBack,
		PeriodsAhead: c.RelativePeriodsAhead,
	}
}

// Range returns the parsed build bounds. Call after Validate.
func (c BuildConfig) Range() (CalendarDate, CalendarDate) {
	start, _ := ParseDate(c.RangeStart)
	end, _ := ParseDate(c.RangeEnd)
	return start, end
}

// GrainValue returns the parsed grain. Call after Validate.
func (c BuildConfig) GrainValue() Grain { return Grain(c.Grain) }
