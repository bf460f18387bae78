/*
Package holidays implements the holiday collaborator: a thin client for a
Nager.Date-style public-holiday catalog plus a static in-memory provider for
tests and offline builds.

The engine only ever asks for a closed date range; the client fetches one
catalog page per (year, country) and filters to the range. Transport failures
and malformed payloads surface as calendar.ErrUpstreamData so the builder can
degrade holiday flags instead of aborting.
*/
package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/calendar-engine/calendar"
)

// DefaultBaseURL is the public Nager.Date catalog.
const DefaultBaseURL = "https://date.nager.at"

// Client fetches public holidays over HTTP.
type Client struct {
	BaseURL   string
	Countries []string // ISO 3166-1 alpha-2 jurisdiction codes
	HTTP      *http.Client
	Log       *logrus.Logger
}

// NewClient builds a catalog client with a 10s default timeout.
func NewClient(baseURL string, countries []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   baseURL,
		Countries: countries,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

// catalog payload: GET /api/v3/PublicHolidays/{year}/{country}
type catalogHoliday struct {
	Date        string `json:"date"` // YYYY-MM-DD
	LocalName   string `json:"localName"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// HolidaysBetween implements calendar.HolidayProvider.
func (c *Client) HolidaysBetween(ctx context.Context, from, to calendar.CalendarDate) ([]calendar.HolidayRecord, error) {
	var records []calendar.HolidayRecord
	for year := from.Year(); year <= to.Year(); year++ {
		for _, country := range c.Countries {
			page, err := c.fetchYear(ctx, year, country)
			if err != nil {
				return nil, err
			}
			records = append(records, page...)
		}
	}

	// Filter to the requested range; the engine never wants more.
	out := records[:0]
	for _, r := range records {
		if r.Date.AfterOrEqual(from.Civil()) && r.Date.BeforeOrEqual(to.Civil()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Client) fetchYear(ctx context.Context, year int, country string) ([]calendar.HolidayRecord, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.BaseURL, year, country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calendar.ErrUpstreamData, err)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", calendar.ErrUpstreamData, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: status %d", calendar.ErrUpstreamData, url, resp.StatusCode)
	}

	var payload []catalogHoliday
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", calendar.ErrUpstreamData, url, err)
	}

	records := make([]calendar.HolidayRecord, 0, len(payload))
	for _, h := range payload {
		d, err := calendar.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", calendar.ErrUpstreamData, url, err)
		}
		name := h.Name
		if name == "" {
			name = h.LocalName
		}
		records = append(records, calendar.HolidayRecord{
			Date:         d,
			Name:         name,
			Jurisdiction: h.CountryCode,
		})
	}
	if c.Log != nil {
		c.Log.WithFields(logrus.Fields{"year": year, "country": country, "holidays": len(records)}).
			Debug("fetched holiday catalog page")
	}
	return records, nil
}

// Static serves a fixed record set. Used in tests and offline builds.
type Static struct {
	Records []calendar.HolidayRecord
}

// HolidaysBetween implements calendar.HolidayProvider.
func (s Static) HolidaysBetween(_ context.Context, from, to calendar.CalendarDate) ([]calendar.HolidayRecord, error) {
	var out []calendar.HolidayRecord
	for _, r := range s.Records {
		if r.Date.AfterOrEqual(from.Civil()) && r.Date.BeforeOrEqual(to.Civil()) {
			out = append(out, r)
		}
	}
	return out, nil
}
