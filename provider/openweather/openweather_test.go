package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suratPayload = `{
	"cod": 200,
	"name": "Surat",
	"main": {"temp": 31.5, "feels_like": 36, "humidity": 70},
	"weather": [{"description": "scattered clouds"}],
	"wind": {"speed": 4.12}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New("key", func(o *Options) { o.BaseURL = srv.URL })
}

func TestByCity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Surat", r.URL.Query().Get("q"))
		assert.Equal(t, "key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(suratPayload))
	})

	r, err := c.ByCity(context.Background(), "Surat")
	require.NoError(t, err)

	want := "Weather in Surat:\n" +
		"• Condition: Scattered Clouds\n" +
		"• Temperature: 31.5°C (feels like 36°C)\n" +
		"• Humidity: 70%\n" +
		"• Wind Speed: 4.12 m/s"
	assert.Equal(t, want, r.String())
}

func TestByCoordinates_AndLocationName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "21.17", r.URL.Query().Get("lat"))
		assert.Equal(t, "72.83", r.URL.Query().Get("lon"))
		_, _ = w.Write([]byte(`{"cod":200,"name":"Surat","main":{"temp":30,"feels_like":30,"humidity":50},"weather":[{"description":"clear sky"}]}`))
	})

	r, err := c.ByCoordinates(context.Background(), 21.17, 72.83)
	require.NoError(t, err)
	assert.Nil(t, r.WindSpeed)
	assert.NotContains(t, r.String(), "Wind Speed")

	name, err := c.LocationName(context.Background(), 21.17, 72.83)
	require.NoError(t, err)
	assert.Equal(t, "Surat", name)
}

func TestNotFound(t *testing.T) {
	t.Run("http 404", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		})
		_, err := c.ByCity(context.Background(), "Atlantis")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("string cod in body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		})
		_, err := c.ByCity(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("nameless coordinates", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"cod":200,"name":"","main":{"temp":1,"feels_like":1,"humidity":1},"weather":[{"description":"x"}]}`))
		})
		_, err := c.LocationName(context.Background(), 0, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	})
	_, err := c.ByCity(context.Background(), "Surat")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "status 401")
}

func TestParseCod(t *testing.T) {
	assert.Equal(t, 200, parseCod([]byte(`200`)))
	assert.Equal(t, 404, parseCod([]byte(`"404"`)))
	assert.Equal(t, 0, parseCod(nil))
}
