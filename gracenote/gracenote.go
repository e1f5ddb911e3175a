// Package gracenote talks to the gracenote TV listings API and defines its
// wire types.
package gracenote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHost serves both the grid and the program overview endpoints.
const DefaultHost = "https://tvlistings.gracenote.com"

// One grid request covers a fixed three hour timespan.
const gridTimespanHours = 3

// httpClient is a shared HTTP client with connection pooling
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// GridParams identifies one lineup and one schedule slice.
type GridParams struct {
	LineupCode string
	Country    string
	Device     string
	PostalCode string
	Time       int64
}

// FetchGrid downloads the raw grid document for one three hour window.
func FetchGrid(ctx context.Context, host string, params GridParams) ([]byte, error) {
	query := url.Values{}
	query.Set("lineupId", "")
	query.Set("timespan", fmt.Sprintf("%d", gridTimespanHours))
	query.Set("headendId", params.LineupCode)
	query.Set("country", params.Country)
	query.Set("device", params.Device)
	query.Set("postalCode", params.PostalCode)
	query.Set("time", fmt.Sprintf("%d", params.Time))
	query.Set("pref", "-")
	query.Set("userId", "-")

	requestURL := fmt.Sprintf("%s/api/grid?%s", host, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building grid request: %w", err)
	}

	return do(req)
}

// FetchOverview downloads the raw overview document for one series.
func FetchOverview(ctx context.Context, host string, seriesID string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/api/program/overviewDetails", host)
	body := strings.NewReader("programSeriesID=" + url.QueryEscape(seriesID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("building overview request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(req)
}

func do(req *http.Request) ([]byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("did not receive a 200 OK status, received %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
