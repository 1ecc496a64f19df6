// Package marketdata queries daily stock bars from a Polygon-compatible REST API and
// exposes them as toolloop tools.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/skosovsky/toolloop"
)

// DefaultBaseURL is the public Polygon REST endpoint.
const DefaultBaseURL = "https://api.polygon.io"

const (
	serviceName  = "market data"
	dateLayout   = "2006-01-02"
	maxErrorBody = 4 << 10
)

// Bar is the open/close summary of one ticker on one trading day.
type Bar struct {
	Status     string  `json:"status"`
	Symbol     string  `json:"symbol"`
	From       string  `json:"from"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	AfterHours float64 `json:"afterHours,omitempty"`
	PreMarket  float64 `json:"preMarket,omitempty"`
}

// Client calls the open-close endpoint. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client. The default has a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client that authenticates with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenClose returns the split-adjusted daily bar of ticker on date (YYYY-MM-DD).
func (c *Client) OpenClose(ctx context.Context, ticker, date string) (*Bar, error) {
	return c.DailyBar(ctx, ticker, date, true)
}

// DailyBar returns the daily bar of ticker on date. Non-2xx responses are reported as
// ExternalCallError; a 404 means the ticker or date has no data.
func (c *Client) DailyBar(ctx context.Context, ticker, date string, adjusted bool) (*Bar, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if err := checkDate(date); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/open-close/%s/%s", c.baseURL, url.PathEscape(ticker), date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &toolloop.ExternalCallError{Service: serviceName, Message: "build request", Err: err}
	}
	q := req.URL.Query()
	q.Set("adjusted", strconv.FormatBool(adjusted))
	q.Set("apiKey", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &toolloop.ExternalCallError{Service: serviceName, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &toolloop.ExternalCallError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "not found for ticker " + ticker,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &toolloop.ExternalCallError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp),
		}
	}

	var bar Bar
	if err := json.NewDecoder(resp.Body).Decode(&bar); err != nil {
		return nil, &toolloop.ExternalCallError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "decode response",
			Err:        err,
		}
	}
	if bar.Status != "" && bar.Status != "OK" {
		return nil, &toolloop.ExternalCallError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %q for ticker %s", bar.Status, ticker),
		}
	}
	return &bar, nil
}

// errorMessage extracts the API's error text, falling back to the HTTP status text.
func errorMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.ToLower(http.StatusText(resp.StatusCode))
}

func normalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", &toolloop.ArgumentError{Field: "ticker", Reason: "must not be empty"}
	}
	return ticker, nil
}

func checkDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return &toolloop.ArgumentError{Field: "date", Reason: fmt.Sprintf("%q is not a date in YYYY-MM-DD format", date)}
	}
	return nil
}
