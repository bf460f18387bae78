/*
client_test.go - Holiday catalog client tests

Uses httptest to fake the catalog. Covers per-(year, country) paging, range
filtering, and the upstream error translation the builder's degradation
policy depends on.
*/
package holidays

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/warp/calendar-engine/calendar"
)

func catalogServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		var year int
		var country string
		if _, err := fmt.Sscanf(r.URL.Path, "/api/v3/PublicHolidays/%d/%s", &year, &country); err != nil {
			http.Error(w, "bad path", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `[
			{"date": "%d-01-01", "localName": "Neujahr", "name": "New Year's Day", "countryCode": %q},
			{"date": "%d-12-25", "localName": "Weihnachten", "name": "Christmas Day", "countryCode": %q}
		]`, year, country, year, country)
	}))
}

func TestClient_HolidaysBetween_PagesAndFilters(t *testing.T) {
	var hits int32
	srv := catalogServer(t, &hits)
	defer srv.Close()

	client := NewClient(srv.URL, []string{"DE", "AT"})

	// GIVEN: a range spanning the 2023/2024 boundary
	records, err := client.HolidaysBetween(context.Background(),
		calendar.MustDate("2023-12-01"), calendar.MustDate("2024-01-31"))
	if err != nil {
		t.Fatalf("holidays between: %v", err)
	}

	// THEN: one page per (year, country)
	if hits != 4 {
		t.Errorf("catalog hit %d times, want 4", hits)
	}
	// AND: only records inside the range survive (Dec 25 2023 + Jan 1 2024,
	// per country)
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4: %+v", len(records), records)
	}
	for _, r := range records {
		if r.Date.Before(calendar.MustDate("2023-12-01")) || r.Date.After(calendar.MustDate("2024-01-31")) {
			t.Errorf("record %s outside requested range", r.Date)
		}
		if r.Name == "" || r.Jurisdiction == "" {
			t.Errorf("record %+v missing name or jurisdiction", r)
		}
	}
}

func TestClient_UpstreamFailuresWrapSentinel(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed payload", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"not": "a list"}`)
		}},
		{"malformed date", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"date": "next tuesday", "name": "x", "countryCode": "DE"}]`)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := NewClient(srv.URL, []string{"DE"})
			_, err := client.HolidaysBetween(context.Background(),
				calendar.MustDate("2024-01-01"), calendar.MustDate("2024-12-31"))
			if !errors.Is(err, calendar.ErrUpstreamData) {
				t.Errorf("err = %v, want ErrUpstreamData", err)
			}
		})
	}
}

func TestClient_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, []string{"DE"})
	_, err := client.HolidaysBetween(context.Background(),
		calendar.MustDate("2024-01-01"), calendar.MustDate("2024-01-31"))
	if !errors.Is(err, calendar.ErrUpstreamData) {
		t.Errorf("err = %v, want ErrUpstreamData", err)
	}
}

func TestStatic_FiltersToRange(t *testing.T) {
	provider := Static{Records: []calendar.HolidayRecord{
		{Date: calendar.MustDate("2024-01-01"), Name: "New Year's Day", Jurisdiction: "US"},
		{Date: calendar.MustDate("2024-07-04"), Name: "Independence Day", Jurisdiction: "US"},
	}}

	records, err := provider.HolidaysBetween(context.Background(),
		calendar.MustDate("2024-06-01"), calendar.MustDate("2024-12-31"))
	if err != nil {
		t.Fatalf("static: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Independence Day" {
		t.Errorf("records = %+v, want only Independence Day", records)
	}
}
