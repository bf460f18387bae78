/*
errors.go - Centralized error types for the calendar engine

PURPOSE:
  All error kinds the engine can surface, in one place. Callers match with
  errors.Is against the sentinels; structured types carry context and
  unwrap to their sentinel.

ERROR CATEGORIES:
  1. Configuration errors - invalid build configuration (fatal, pre-derivation)
  2. Range errors         - arithmetic target outside the materialized range
  3. Upstream errors      - holiday collaborator unreachable or malformed
  4. Date errors          - a single date's derivation failed (isolated,
                            collected into the build result, never fatal)

Nothing in this package retries; transient upstream failures are the
caller's responsibility to retry as a whole build.
*/
package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is returned for any invalid build configuration.
	// A configuration error aborts the build before derivation starts.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrOutOfRange is returned when business-day arithmetic targets a date
	// outside the materialized calendar range.
	ErrOutOfRange = errors.New("target outside materialized range")

	// ErrUpstreamData is returned when the holiday collaborator is
	// unreachable or returns a malformed payload. Composition proceeds with
	// holiday flags defaulted to false; the condition is reported in the
	// build status.
	ErrUpstreamData = errors.New("upstream holiday data unavailable")

	// ErrDateNotMaterialized is returned when a lookup references a date key
	// absent from the active snapshot.
	ErrDateNotMaterialized = errors.New("date not materialized")

	// ErrNoCalendar is returned when a query arrives before any build has
	// produced a snapshot.
	ErrNoCalendar = errors.New("no calendar snapshot available")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError reports one invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// RangeError reports an arithmetic result that left the materialized range.
type RangeError struct {
	Op    string
	Start CalendarDate
	From  CalendarDate
	To    CalendarDate
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s from %s: %v [%s, %s]", e.Op, e.Start, ErrOutOfRange, e.From, e.To)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// DateError reports the failure of one date's derivation in one step.
// The row still exists with nil attributes for the failed step.
type DateError struct {
	Key  int
	Step string
	Err  error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: date %d: %v", e.Step, e.Key, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }
