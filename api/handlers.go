/*
handlers.go - HTTP handlers for the calendar query interface

PURPOSE:
  Implements the query surface over the active calendar snapshot plus the
  build trigger. Handlers follow one shape:
  1. Parse/validate input
  2. Grab the active snapshot (RWMutex-guarded pointer)
  3. Call engine functions
  4. Serialize response

SNAPSHOT HANDLING:
  The handler holds the active Calendar behind a read-write mutex. A build
  swaps the pointer only after the snapshot is complete and persisted, so
  queries running during a rebuild read the old snapshot, never a partial
  one.

ERROR HANDLING:
  - 400: malformed parameters, configuration errors, out-of-range arithmetic
  - 404: date key not materialized
  - 503: no calendar snapshot built yet
  - 500: storage failures
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Builder *calendar.Builder
	Log     *logrus.Logger

	mu    sync.RWMutex
	cal   *calendar.Calendar
	cfg   calendar.BuildConfig
	last  *calendar.BuildResult
	ready bool
}

// NewHandler creates a handler with the given store and builder.
func NewHandler(store *sqlite.Store, builder *calendar.Builder, log *logrus.Logger) *Handler {
	return &Handler{Store: store, Builder: builder, Log: log}
}

// LoadSnapshot restores the active snapshot from the store, if one exists.
// Called once at startup; a missing snapshot is not an error.
func (h *Handler) LoadSnapshot(ctx context.Context) error {
	cal, cfg, err := h.Store.LoadActiveWithConfig(ctx)
	if errors.Is(err, calendar.ErrNoCalendar) {
		return nil
	}
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.cal, h.cfg, h.ready = cal, cfg, true
	h.mu.Unlock()
	return nil
}

// snapshot returns the active calendar, or false when none is built yet.
func (h *Handler) snapshot() (*calendar.Calendar, calendar.BuildConfig, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cal, h.cfg, h.ready
}

// swap installs a freshly built snapshot. Called only after persistence.
func (h *Handler) swap(cal *calendar.Calendar, cfg calendar.BuildConfig, res *calendar.BuildResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cal, h.cfg, h.last, h.ready = cal, cfg, res, true
}

// =============================================================================
// BUILD HANDLERS
// =============================================================================

// RunBuild runs a full calendar build from a JSON config, persists the
// snapshot and swaps it in. The response always carries per-step outcomes.
func (h *Handler) RunBuild(w http.ResponseWriter, r *http.Request) {
	var cfg calendar.BuildConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed build config", err)
		return
	}

	res := h.Builder.Run(r.Context(), cfg)
	resp := BuildResponse{
		BuildID:  res.BuildID,
		Status:   res.Status,
		RowCount: res.RowCount,
		Steps:    res.Steps,
		Errors:   res.Errors,
	}

	if res.Status == calendar.BuildError {
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	if err := h.Store.ReplaceSnapshot(r.Context(), res); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist snapshot", err)
		return
	}
	resp.Persisted = true
	h.swap(res.Calendar, res.Config, res)

	writeJSON(w, http.StatusOK, resp)
}

// ListBuilds returns stored build records, newest first.
func (h *Handler) ListBuilds(w http.ResponseWriter, r *http.Request) {
	builds, err := h.Store.Builds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list builds", err)
		return
	}
	writeJSON(w, http.StatusOK, builds)
}

// LatestBuild returns the most recent build's status structure.
func (h *Handler) LatestBuild(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()
	if last == nil {
		writeError(w, http.StatusNotFound, "No build has run in this process", nil)
		return
	}
	writeJSON(w, http.StatusOK, BuildResponse{
		BuildID:   last.BuildID,
		Status:    last.Status,
		RowCount:  last.RowCount,
		Steps:     last.Steps,
		Errors:    last.Errors,
		Persisted: true,
	})
}

// =============================================================================
// LOOKUP HANDLERS
// =============================================================================

// GetDate returns the unified row for a YYYYMMDD date key.
func (h *Handler) GetDate(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.Atoi(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Date key must be an integer YYYYMMDD", err)
		return
	}

	cal, _, ok := h.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No calendar snapshot available", calendar.ErrNoCalendar)
		return
	}
	row, found := cal.Row(key)
	if !found {
		writeError(w, http.StatusNotFound, "Date not materialized", calendar.ErrDateNotMaterialized)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// =============================================================================
// BUSINESS-DAY HANDLERS
// =============================================================================

func (h *Handler) AddBusinessDays(w http.ResponseWriter, r *http.Request) {
	h.businessDayShift(w, r, func(c *calendar.Calendar, d calendar.CalendarDate, n int) (calendar.CalendarDate, error) {
		return c.AddBusinessDays(d, n)
	})
}

func (h *Handler) SubtractBusinessDays(w http.ResponseWriter, r *http.Request) {
	h.businessDayShift(w, r, func(c *calendar.Calendar, d calendar.CalendarDate, n int) (calendar.CalendarDate, error) {
		return c.SubtractBusinessDays(d, n)
	})
}

func (h *Handler) businessDayShift(w http.ResponseWriter, r *http.Request,
	op func(*calendar.Calendar, calendar.CalendarDate, int) (calendar.CalendarDate, error)) {

	start, err := calendar.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	n, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day count", err)
		return
	}

	cal, _, ok := h.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No calendar snapshot available", calendar.ErrNoCalendar)
		return
	}
	res, err := op(cal, start, n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dateDTO(res))
}

func (h *Handler) CountBusinessDays(w http.ResponseWriter, r *http.Request) {
	from, err := calendar.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return
	}
	to, err := calendar.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return
	}

	cal, _, ok := h.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No calendar snapshot available", calendar.ErrNoCalendar)
		return
	}
	count, err := cal.CountBusinessDays(from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{From: from.String(), To: to.String(), Count: count})
}

func (h *Handler) NextBusinessDay(w http.ResponseWriter, r *http.Request) {
	h.nearestBusinessDay(w, r, (*calendar.Calendar).NextBusinessDay)
}

func (h *Handler) PreviousBusinessDay(w http.ResponseWriter, r *http.Request) {
	h.nearestBusinessDay(w, r, (*calendar.Calendar).PreviousBusinessDay)
}

func (h *Handler) nearestBusinessDay(w http.ResponseWriter, r *http.Request,
	op func(*calendar.Calendar, calendar.CalendarDate) (calendar.CalendarDate, error)) {

	d, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	cal, _, ok := h.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No calendar snapshot available", calendar.ErrNoCalendar)
		return
	}
	res, err := op(cal, d)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dateDTO(res))
}

// SameDayPreviousPeriod answers (date, unit, n) under calendar, fiscal, or
// retail semantics; basis=calendar additionally supports business=true.
func (h *Handler) SameDayPreviousPeriod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	d, err := calendar.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	unit, err := calendar.ParsePeriodUnit(q.Get("unit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period unit", err)
		return
	}
	n := 1
	if raw := q.Get("n"); raw != "" {
		if n, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period count", err)
			return
		}
	}

	cal, _, ok := h.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No calendar snapshot available", calendar.ErrNoCalendar)
		return
	}

	var res calendar.CalendarDate
	switch basis := q.Get("basis"); basis {
	case "", "calendar":
		if q.Get("business") == "true" {
			res, err = cal.SameBusinessDayPreviousPeriod(d, unit, n)
		} else {
			res, err = calendar.SameDayPreviousPeriod(d, unit, n)
		}
	case "fiscal":
		res, err = cal.SameDayPreviousFiscalPeriod(d, unit, n)
	case "retail":
		res, err = cal.SameDayPreviousRetailPeriod(d, unit, n)
	default:
		writeError(w, http.StatusBadRequest, "Basis must be calendar, fiscal, or retail", nil)
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dateDTO(res))
}

// =============================================================================
// RELATIVE-PERIOD HANDLER
// =============================================================================

// RelativeFlags evaluates one date against "now" in one or more timezones.
// Defaults: at = current instant, tz = the active build's timezone list.
func (h *Handler) RelativeFlags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	d, err := calendar.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	at := time.Now()
	if raw := q.Get("at"); raw != "" {
		if at, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid evaluation instant (want RFC3339)", err)
			return
		}
	}

	_, cfg, ok := h.snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No calendar snapshot available", calendar.ErrNoCalendar)
		return
	}

	zones := cfg.Timezones
	if raw := q.Get("tz"); raw != "" {
		zones = strings.Split(raw, ",")
	}

	flags, err := calendar.EvaluateRelativeZones(d, at, zones, cfg.Relative())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RelativeResponse{
		Date:  d.String(),
		At:    at.UTC().Format(time.RFC3339),
		Zones: flags,
	})
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, _, ready := h.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "snapshot": ready})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine sentinels to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, "Target outside materialized range", err)
	case errors.Is(err, calendar.ErrDateNotMaterialized):
		writeError(w, http.StatusNotFound, "Date not materialized", err)
	case errors.Is(err, calendar.ErrConfiguration):
		writeError(w, http.StatusBadRequest, "Invalid configuration", err)
	case errors.Is(err, calendar.ErrNoCalendar):
		writeError(w, http.StatusServiceUnavailable, "No calendar snapshot available", err)
	default:
		// Anything the engine did not classify is our fault, not the client's.
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
