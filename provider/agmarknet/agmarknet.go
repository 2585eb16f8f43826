// Package agmarknet fetches daily mandi commodity prices from the data.gov.in
// open data API.
package agmarknet

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

	"github.com/hupe1980/agrimesh/logging"
)

// DefaultBaseURL is the "current daily price of various commodities" resource.
const DefaultBaseURL = "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070"

// Options configures a Client.
type Options struct {
	BaseURL    string
	MaxRecords int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client queries commodity prices per district.
type Client struct {
	apiKey string
	opts   Options
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		MaxRecords: 1000,
		Timeout:    10 * time.Second,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Client{apiKey: apiKey, opts: opts}
}

// Record is one market price row. Prices are kept as the API's text values.
type Record struct {
	State       string `json:"state"`
	District    string `json:"district"`
	Market      string `json:"market"`
	Commodity   string `json:"commodity"`
	Variety     string `json:"variety"`
	Grade       string `json:"grade"`
	ArrivalDate string `json:"arrival_date"`
	MinPrice    Price  `json:"min_price"`
	MaxPrice    Price  `json:"max_price"`
	ModalPrice  Price  `json:"modal_price"`
}

// Price is a price field that the API emits either as a number or a string.
type Price string

// UnmarshalJSON accepts numbers, strings and null.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null" || s == "":
		*p = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*p = Price(v)
	default:
		*p = Price(s)
	}
	return nil
}

func (p Price) String() string {
	if p == "" {
		return "N/A"
	}
	return string(p)
}

// Fetch returns the price records reported for district.
func (c *Client) Fetch(ctx context.Context, district string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("filters[district]", district)
	q.Set("limit", strconv.Itoa(c.opts.MaxRecords))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating price request: %w", err)
	}

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("price request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Records []Record `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding price response: %w", err)
	}

	c.opts.Logger.Debug("agmarknet.fetch", "district", district, "records", len(result.Records), "duration_ms", time.Since(start).Milliseconds())

	return result.Records, nil
}

// Format renders records for district as the text block shown to users: a
// header, the first five records and a trailer counting the rest.
func Format(district string, records []Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("No agriculture price data found for %s", district)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Agriculture Prices in %s:\n", district)
	fmt.Fprintf(&b, "Found %d records\n\n", len(records))

	for i, r := range records {
		if i == 5 {
			break
		}
		commodity := r.Commodity
		if commodity == "" {
			commodity = "Unknown"
		}
		fmt.Fprintf(&b, "%d. %s", i+1, commodity)
		if r.Variety != "" {
			fmt.Fprintf(&b, " (%s)", r.Variety)
		}
		market := r.Market
		if market == "" {
			market = "N/A"
		}
		fmt.Fprintf(&b, "\n   Market: %s\n", market)
		fmt.Fprintf(&b, "   Min: ₹%s, Max: ₹%s, Modal: ₹%s\n\n", r.MinPrice, r.MaxPrice, r.ModalPrice)
	}

	if len(records) > 5 {
		fmt.Fprintf(&b, "... and %d more records", len(records)-5)
	}
	return b.String()
}
