/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes for the query interface. Most responses reuse the calendar
  package types directly (they carry stable json tags); the wrappers here
  exist where the API adds envelope fields or where domain types would
  overshare.

VALIDATION:
  Build configs validate inside the engine (ConfigError); handlers only
  translate errors to status codes. DTOs stay pure data carriers.
*/
package api

import (
	"github.com/warp/calendar-engine/calendar"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// BuildResponse summarizes one build call.
type BuildResponse struct {
	BuildID   string                `json:"build_id"`
	Status    calendar.BuildStatus  `json:"status"`
	RowCount  int                   `json:"row_count"`
	Steps     []calendar.StepResult `json:"steps"`
	Errors    []string              `json:"errors,omitempty"`
	Persisted bool                  `json:"persisted"`
}

// DateResponse is one arithmetic result.
type DateResponse struct {
	Date string `json:"date"`
	Key  int    `json:"date_key"`
}

// CountResponse is a trading-day count.
type CountResponse struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// RelativeResponse namespaces flags per timezone.
type RelativeResponse struct {
	Date  string                            `json:"date"`
	At    string                            `json:"at"`
	Zones map[string]calendar.RelativeFlags `json:"zones"`
}

func dateDTO(d calendar.CalendarDate) DateResponse {
	return DateResponse{Date: d.String(), Key: d.Key()}
}
