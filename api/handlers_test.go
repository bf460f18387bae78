/*
handlers_test.go - HTTP query interface tests

Full-stack: real router, real handlers, in-memory store, real engine. Covers
the build trigger, snapshot gating (503 before any build), lookup and
arithmetic endpoints, and the error-to-status mapping.
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	handler := NewHandler(store, &calendar.Builder{Log: log}, log)

	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv
}

var testBuildJSON = `{
	"range_start": "2024-01-01",
	"range_end": "2024-12-31",
	"fiscal_start_month": 7,
	"retail_pattern": "445",
	"retail_anchor_month": 1,
	"retail_week_start": 0
}`

func postBuild(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/builds", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post build: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, srv *httptest.Server, path string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d, want %d (body: %s)", path, resp.StatusCode, wantStatus, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: decode: %v", path, err)
		}
	}
}

func TestQueriesBeforeAnyBuildReturn503(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/dates/20240115",
		"/api/business-days/add?start=2024-01-05&days=1",
		"/api/business-days/count?from=2024-01-01&to=2024-01-31",
		"/api/periods/same-day?date=2024-03-31&unit=QUARTER&basis=fiscal",
		"/api/relative?date=2024-03-15",
	} {
		getJSON(t, srv, path, http.StatusServiceUnavailable, nil)
	}
}

func TestRunBuild_PersistsAndServes(t *testing.T) {
	srv := newTestServer(t)

	resp := postBuild(t, srv, testBuildJSON)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("build status %d (body: %s)", resp.StatusCode, body)
	}
	var build BuildResponse
	if err := json.NewDecoder(resp.Body).Decode(&build); err != nil {
		t.Fatalf("decode build response: %v", err)
	}
	if build.Status != calendar.BuildSuccess || !build.Persisted {
		t.Fatalf("build = %+v, want persisted success", build)
	}
	if build.RowCount != 366 { // 2024 is a leap year
		t.Errorf("row count = %d, want 366", build.RowCount)
	}

	// The snapshot is immediately queryable.
	var row calendar.UnifiedRow
	getJSON(t, srv, "/api/dates/20240701", http.StatusOK, &row)
	if row.Fiscal == nil || row.Fiscal.Year != 2025 || !row.Fiscal.IsYearStart {
		t.Errorf("2024-07-01 fiscal = %+v, want year 2025 start", row.Fiscal)
	}

	// Health reflects the installed snapshot.
	var health map[string]any
	getJSON(t, srv, "/api/health", http.StatusOK, &health)
	if health["snapshot"] != true {
		t.Errorf("health = %v, want snapshot true", health)
	}

	// Build history and latest status.
	var builds []sqlite.BuildRecord
	getJSON(t, srv, "/api/builds", http.StatusOK, &builds)
	if len(builds) != 1 || !builds[0].Active {
		t.Errorf("builds = %+v, want one active record", builds)
	}
	var latest BuildResponse
	getJSON(t, srv, "/api/builds/latest", http.StatusOK, &latest)
	if latest.BuildID != build.BuildID {
		t.Errorf("latest build id = %s, want %s", latest.BuildID, build.BuildID)
	}
}

func TestRunBuild_RejectsBadConfig(t *testing.T) {
	srv := newTestServer(t)

	resp := postBuild(t, srv, `{"range_start": "2024-01-01", "range_end": "2024-12-31",
		"fiscal_start_month": 2, "fiscal_start_day": 30,
		"retail_pattern": "445", "retail_anchor_month": 1, "retail_week_start": 0}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	// Nothing was installed: queries still gate on the missing snapshot.
	getJSON(t, srv, "/api/dates/20240115", http.StatusServiceUnavailable, nil)
}

func TestBusinessDayEndpoints(t *testing.T) {
	srv := newTestServer(t)
	resp := postBuild(t, srv, testBuildJSON)
	resp.Body.Close()

	var date DateResponse
	getJSON(t, srv, "/api/business-days/add?start=2024-01-05&days=1", http.StatusOK, &date)
	if date.Date != "2024-01-08" {
		t.Errorf("add = %s, want 2024-01-08", date.Date)
	}

	getJSON(t, srv, "/api/business-days/subtract?start=2024-01-08&days=1", http.StatusOK, &date)
	if date.Date != "2024-01-05" {
		t.Errorf("subtract = %s, want 2024-01-05", date.Date)
	}

	var count CountResponse
	getJSON(t, srv, "/api/business-days/count?from=2024-01-01&to=2024-01-07", http.StatusOK, &count)
	if count.Count != 5 { // no holiday feed in this build
		t.Errorf("count = %d, want 5", count.Count)
	}

	getJSON(t, srv, "/api/business-days/next?date=2024-01-06", http.StatusOK, &date)
	if date.Date != "2024-01-08" {
		t.Errorf("next = %s, want 2024-01-08", date.Date)
	}
	getJSON(t, srv, "/api/business-days/previous?date=2024-01-06", http.StatusOK, &date)
	if date.Date != "2024-01-05" {
		t.Errorf("previous = %s, want 2024-01-05", date.Date)
	}

	// Error mapping: arithmetic off the end of the snapshot is a 400.
	getJSON(t, srv, "/api/business-days/add?start=2024-12-30&days=50", http.StatusBadRequest, nil)
	// Malformed input is a 400 before the engine is consulted.
	getJSON(t, srv, "/api/business-days/add?start=tuesday&days=1", http.StatusBadRequest, nil)
	getJSON(t, srv, "/api/business-days/add?start=2024-01-05&days=soon", http.StatusBadRequest, nil)
}

func TestSameDayPreviousPeriodEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := postBuild(t, srv, testBuildJSON)
	resp.Body.Close()

	var date DateResponse
	getJSON(t, srv, "/api/periods/same-day?date=2024-03-31&unit=QUARTER&n=1", http.StatusOK, &date)
	if date.Date != "2023-12-31" {
		t.Errorf("calendar basis = %s, want 2023-12-31", date.Date)
	}

	// Fiscal basis: one fiscal month back from mid-August (July fiscal year).
	getJSON(t, srv, "/api/periods/same-day?date=2024-08-15&unit=MONTH&basis=fiscal", http.StatusOK, &date)
	if date.Date != "2024-07-15" {
		t.Errorf("fiscal basis = %s, want 2024-07-15", date.Date)
	}

	getJSON(t, srv, "/api/periods/same-day?date=2024-03-31&unit=DECADE", http.StatusBadRequest, nil)
	getJSON(t, srv, "/api/periods/same-day?date=2024-03-31&unit=MONTH&basis=lunar", http.StatusBadRequest, nil)
}

func TestRelativeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := postBuild(t, srv, testBuildJSON)
	resp.Body.Close()

	var rel RelativeResponse
	getJSON(t, srv, "/api/relative?date=2024-03-15&at=2024-03-15T12:00:00Z&tz=UTC", http.StatusOK, &rel)
	flags, ok := rel.Zones["UTC"]
	if !ok {
		t.Fatalf("zones = %v, want UTC entry", rel.Zones)
	}
	if !flags.IsToday || flags.Label != "Today" {
		t.Errorf("flags = IsToday:%v Label:%q, want today", flags.IsToday, flags.Label)
	}

	getJSON(t, srv, "/api/relative?date=2024-03-15&tz=Mars/Olympus", http.StatusBadRequest, nil)
	getJSON(t, srv, "/api/relative?date=2024-03-15&at=noonish", http.StatusBadRequest, nil)
}

func TestWriteEngineError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&calendar.RangeError{Op: "add_business_days"}, http.StatusBadRequest},
		{calendar.ErrDateNotMaterialized, http.StatusNotFound},
		{&calendar.ConfigError{Field: "grain", Reason: "unknown"}, http.StatusBadRequest},
		{calendar.ErrNoCalendar, http.StatusServiceUnavailable},
		// Unclassified errors are server faults, never the client's.
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeEngineError(rec, tc.err)
		if rec.Code != tc.status {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
	}
}

func TestGetDate_NotMaterialized(t *testing.T) {
	srv := newTestServer(t)
	resp := postBuild(t, srv, testBuildJSON)
	resp.Body.Close()

	getJSON(t, srv, "/api/dates/20300101", http.StatusNotFound, nil)
	getJSON(t, srv, "/api/dates/tomorrow", http.StatusBadRequest, nil)
}
