// Package openweather is a client for the OpenWeatherMap current weather API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/logging"
)

// DefaultBaseURL is the current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// ErrNotFound is returned when the API does not know the requested place.
var ErrNotFound = errors.New("location not found")

// Options configures a Client.
type Options struct {
	BaseURL string
	// Units is "metric", "imperial" or "standard".
	Units      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client queries current weather by city name or coordinates.
type Client struct {
	apiKey string
	opts   Options
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL: DefaultBaseURL,
		Units:   "metric",
		Timeout: 10 * time.Second,
		Logger:  logging.NoOpLogger{},
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

// Report is the subset of the current weather payload the service renders.
type Report struct {
	City        string
	Description string
	Temperature float64
	FeelsLike   float64
	Humidity    float64
	WindSpeed   *float64
}

// String renders the report as the multi-line text block shown to users.
func (r *Report) String() string {
	city := r.City
	if city == "" {
		city = "Unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s:\n", city)
	fmt.Fprintf(&b, "• Condition: %s\n", titleCase(r.Description))
	fmt.Fprintf(&b, "• Temperature: %s°C (feels like %s°C)\n", num(r.Temperature), num(r.FeelsLike))
	fmt.Fprintf(&b, "• Humidity: %s%%\n", num(r.Humidity))
	if r.WindSpeed != nil {
		fmt.Fprintf(&b, "• Wind Speed: %s m/s", num(*r.WindSpeed))
	}
	return b.String()
}

// ByCity fetches the current weather for an English city or district name.
func (c *Client) ByCity(ctx context.Context, city string) (*Report, error) {
	q := url.Values{}
	q.Set("q", city)
	return c.fetch(ctx, q)
}

// ByCoordinates fetches the current weather at lat/lon.
func (c *Client) ByCoordinates(ctx context.Context, lat, lon float64) (*Report, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetch(ctx, q)
}

// LocationName resolves coordinates to the name of the nearest place the
// weather service reports for them.
func (c *Client) LocationName(ctx context.Context, lat, lon float64) (string, error) {
	r, err := c.ByCoordinates(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(r.City) == "" {
		return "", ErrNotFound
	}
	return r.City, nil
}

type payload struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Name    string          `json:"name"`
	Main    *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

func (c *Client) fetch(ctx context.Context, q url.Values) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	q.Set("appid", c.apiKey)
	q.Set("units", c.opts.Units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating weather request: %w", err)
	}

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	c.opts.Logger.Debug("openweather.request", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("weather request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}
	if cod := parseCod(p.Cod); cod != http.StatusOK {
		return nil, ErrNotFound
	}
	if p.Main == nil || len(p.Weather) == 0 {
		return nil, fmt.Errorf("weather response missing main or weather data")
	}

	r := &Report{
		City:        p.Name,
		Description: p.Weather[0].Description,
		Temperature: p.Main.Temp,
		FeelsLike:   p.Main.FeelsLike,
		Humidity:    p.Main.Humidity,
	}
	if p.Wind != nil {
		r.WindSpeed = p.Wind.Speed
	}
	return r, nil
}

// parseCod accepts the status code as a number or a quoted string, both of
// which the API emits.
func parseCod(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
