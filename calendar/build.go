/*
build.go - Build orchestration

PURPOSE:
  Runs one full calendar build: validate configuration, enumerate the spine,
  fetch holidays, compose rows, wrap the snapshot. Every build call returns a
  BuildResult describing per-step outcomes instead of throwing; only a
  ConfigurationError aborts before derivation.

FAILURE POLICY:
  - ConfigurationError: fatal, nothing derived.
  - UpstreamDataError (holiday fetch): composition proceeds with holiday
    flags defaulted to false; the step is marked degraded and reported.
  - Per-date derivation failures: isolated, collected, batch continues.
  Nothing is retried automatically.
*/
package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

type BuildStatus string

const (
	BuildSuccess BuildStatus = "success"
	BuildPartial BuildStatus = "partial"
	BuildError   BuildStatus = "error"
)

type StepStatus string

const (
	StepOK       StepStatus = "ok"
	StepDegraded StepStatus = "degraded"
	StepFailed   StepStatus = "failed"
	StepSkipped  StepStatus = "skipped"
)

// StepResult is the outcome of one build step.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Rows   int        `json:"rows,omitempty"`
	Errors []string   `json:"errors,omitempty"`
}

// BuildResult is the structured outcome of one build call.
type BuildResult struct {
	BuildID    string       `json:"build_id"`
	Config     BuildConfig  `json:"config"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Status     BuildStatus  `json:"status"`
	Steps      []StepResult `json:"steps"`
	RowCount   int          `json:"row_count"`
	Errors     []string     `json:"errors,omitempty"`

	// Calendar is the composed snapshot; nil when Status is BuildError.
	// Not serialized: rows are persisted by the store, not the status.
	Calendar *Calendar `json:"-"`
}

func (r *BuildResult) step(name string, status StepStatus, rows int, errs ...error) {
	s := StepResult{Name: name, Status: status, Rows: rows}
	for _, err := range errs {
		s.Errors = append(s.Errors, err.Error())
		r.Errors = append(r.Errors, err.Error())
	}
	r.Steps = append(r.Steps, s)
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder orchestrates builds. Zero value works: no holidays, default logger,
// wall clock.
type Builder struct {
	Holidays HolidayProvider
	Log      *logrus.Logger
	Clock    func() time.Time
}

func (b *Builder) log() *logrus.Logger {
	if b.Log != nil {
		return b.Log
	}
	return logrus.StandardLogger()
}

func (b *Builder) now() time.Time {
	if b.Clock != nil {
		return b.Clock()
	}
	return time.Now()
}

// Run executes one build. The returned result always reflects every step
// attempted; it never panics across this boundary.
func (b *Builder) Run(ctx context.Context, cfg BuildConfig) *BuildResult {
	cfg = cfg.Normalized()
	res := &BuildResult{
		BuildID:   uuid.NewString(),
		Config:    cfg,
		StartedAt: b.now(),
	}
	log := b.log().WithFields(logrus.Fields{
		"build_id": res.BuildID,
		"range":    cfg.RangeStart + ".." + cfg.RangeEnd,
		"grain":    cfg.Grain,
	})
	defer func() { res.FinishedAt = b.now() }()

	// Step 1: configuration. A failure here is fatal.
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("configuration rejected")
		res.step("config", StepFailed, 0, err)
		res.Status = BuildError
		return res
	}
	res.step("config", StepOK, 0)

	// Step 2: spine enumeration.
	from, to := cfg.Range()
	dates, err := Spine(from, to, cfg.GrainValue())
	if err != nil {
		log.WithError(err).Error("spine enumeration rejected")
		res.step("spine", StepFailed, 0, err)
		res.Status = BuildError
		return res
	}
	res.step("spine", StepOK, len(dates))

	// Step 3: holiday fetch. Unreachable or malformed upstream data degrades
	// to no holidays; it never aborts the build.
	holidays, holidayErr := b.fetchHolidays(ctx, from, to)
	if holidayErr != nil {
		log.WithError(holidayErr).Warn("holiday fetch degraded")
		res.step("holidays", StepDegraded, 0, holidayErr)
	} else {
		res.step("holidays", StepOK, len(holidays))
	}

	// Step 4: derive and compose. Per-date failures are isolated.
	rows, dateErrs := Compose(dates, cfg.Fiscal(), cfg.Retail(), holidays)
	if len(dateErrs) > 0 {
		log.WithField("failed_dates", len(dateErrs)).Warn("composition partially failed")
		res.step("compose", StepDegraded, len(rows), dateErrs...)
	} else {
		res.step("compose", StepOK, len(rows))
	}

	res.Calendar = NewCalendar(rows, cfg.Fiscal(), cfg.Retail())
	res.RowCount = len(rows)
	if len(res.Errors) > 0 {
		res.Status = BuildPartial
	} else {
		res.Status = BuildSuccess
	}
	log.WithFields(logrus.Fields{"rows": res.RowCount, "status": res.Status}).Info("build finished")
	return res
}

func (b *Builder) fetchHolidays(ctx context.Context, from, to CalendarDate) ([]HolidayRecord, error) {
	provider := b.Holidays
	if provider == nil {
		provider = NoHolidays{}
	}
	records, err := provider.HolidaysBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return records, nil
}
