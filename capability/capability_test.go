package capability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/internal/testutil"
	"github.com/hupe1980/agrimesh/lang"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/provider/agmarknet"
	"github.com/hupe1980/agrimesh/provider/openweather"
	"github.com/hupe1980/agrimesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ WeatherProvider    = (*openweather.Client)(nil)
	_ Geocoder           = (*openweather.Client)(nil)
	_ PriceProvider      = (*agmarknet.Client)(nil)
	_ LocationNormalizer = (*lang.Normalizer)(nil)
)

type fixture struct {
	weather  *testutil.FakeWeather
	geocoder *testutil.FakeGeocoder
	prices   *testutil.FakePrices
	language *testutil.FakeLanguage
	model    *model.MockModel
	registry *tool.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		weather:  testutil.NewFakeWeather(),
		geocoder: &testutil.FakeGeocoder{Name: "Amreli"},
		prices: &testutil.FakePrices{Records: map[string][]agmarknet.Record{
			"Amreli": {{Market: "Amreli", Commodity: "Cotton", Variety: "Shanker 6", MinPrice: "6500", MaxPrice: "7200", ModalPrice: "7000"}},
			"Surat":  {{Market: "Surat", Commodity: "Banana", MinPrice: "900", MaxPrice: "1400", ModalPrice: "1200"}},
		}},
		language: &testutil.FakeLanguage{
			Languages:    map[string]string{"સુરત": "gu-IN", "अमरेली": "hi-IN"},
			Translations: map[string]string{"સુરત": "Surat.", "अमरेली": "Amreli"},
		},
		model: model.NewMockModel("mock", "test"),
	}

	k := NewToolkit(f.weather, f.geocoder, f.prices, f.model, lang.NewNormalizer(f.language, f.language))
	reg, err := k.NewRegistry()
	require.NoError(t, err)
	f.registry = reg
	return f
}

func (f *fixture) call(t *testing.T, name string, args map[string]any, optFns ...func(o *core.ToolContextOptions)) tool.Result {
	t.Helper()
	e, ok := f.registry.Lookup(name)
	require.True(t, ok, name)
	fns := append([]func(o *core.ToolContextOptions){func(o *core.ToolContextOptions) {
		o.Now = func() time.Time { return time.Date(2025, time.July, 14, 10, 0, 0, 0, time.UTC) }
	}}, optFns...)
	return e.Tool.Call(core.NewToolContext(context.Background(), "s1", "fc1", fns...), args)
}

func withCoords(lat, lon float64) func(o *core.ToolContextOptions) {
	return func(o *core.ToolContextOptions) { o.Coordinates = &core.Coordinates{Lat: lat, Lon: lon} }
}

func TestRegister_Palette(t *testing.T) {
	f := newFixture(t)

	var names []string
	for _, e := range f.registry.Exposed() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{ToolWeather, ToolWeatherByCoordinates, ToolPrices, ToolDiseases, ToolCrops, ToolExtractLocation}, names)

	e, ok := f.registry.Lookup(ToolTranslateLocation)
	require.True(t, ok)
	assert.True(t, e.Internal)

	for utterance, want := range map[string]string{
		"What is the weather in Surat?":       ToolWeather,
		"Will it rain tomorrow?":              ToolWeather,
		"Cotton prices in Amreli mandi":       ToolPrices,
		"Which crop should I sow this month?": ToolCrops,
		"Common plant diseases in Junagadh":   ToolDiseases,
		"સુરતમાં હવામાન કેવું છે":             ToolWeather,
	} {
		e, ok := f.registry.Match(utterance)
		require.True(t, ok, utterance)
		assert.Equal(t, want, e.Name(), utterance)
	}
}

// -------------------- weather --------------------

func TestWeather_ByCity(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, ToolWeather, map[string]any{"city": "Surat"})
	assert.False(t, res.Diagnostic)
	assert.Contains(t, res.Text, "Weather in Surat:")
	assert.Contains(t, res.Text, "• Temperature: 32°C (feels like 38.4°C)")
	assert.Equal(t, []string{"city:Surat"}, f.weather.Calls())
	assert.Empty(t, f.language.Calls())
}

func TestWeather_TranslatesNonEnglishCity(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, ToolWeather, map[string]any{"city": "સુરત"})
	assert.False(t, res.Diagnostic)
	assert.Contains(t, res.Text, "Weather in Surat:")
	assert.Equal(t, []string{"city:Surat"}, f.weather.Calls())
}

func TestWeather_FallsBackToCoordinates(t *testing.T) {
	f := newFixture(t)
	f.weather.Coords = &openweather.Report{City: "Kamrej", Description: "clear sky", Temperature: 30, FeelsLike: 31, Humidity: 40}

	res := f.call(t, ToolWeather, map[string]any{"city": "Atlantis", "lat": 21.27, "lon": 72.96})
	assert.False(t, res.Diagnostic)
	assert.Contains(t, res.Text, "Weather in Kamrej:")
	assert.Equal(t, []string{"city:Atlantis", "coords:21.27,72.96"}, f.weather.Calls())

	res = f.call(t, ToolWeather, map[string]any{}, withCoords(21.27, 72.96))
	assert.Contains(t, res.Text, "Weather in Kamrej:")
}

func TestWeather_Diagnostics(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, ToolWeather, map[string]any{"city": "Atlantis"})
	assert.True(t, res.Diagnostic)
	assert.Equal(t, "City not found and coordinates not provided.", res.Text)

	res = f.call(t, ToolWeather, map[string]any{})
	assert.Equal(t, "City not found and coordinates not provided.", res.Text)

	f.weather.Err = errors.New("connection refused")
	res = f.call(t, ToolWeather, map[string]any{"lat": 21.0, "lon": 72.0})
	assert.True(t, res.Diagnostic)
	assert.Equal(t, "Error fetching weather: connection refused", res.Text)

	res = f.call(t, ToolWeatherByCoordinates, map[string]any{"lat": 21.0, "lon": 72.0})
	assert.Equal(t, "Error fetching weather: connection refused", res.Text)
}

func TestWeatherByCoordinates_RejectsOutOfRange(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, ToolWeatherByCoordinates, map[string]any{"lat": 95.0, "lon": 72.0})
	assert.True(t, res.Diagnostic)
	assert.Contains(t, res.Text, tool.CodeValidation)
	assert.Empty(t, f.weather.Calls())
}

// -------------------- prices --------------------

func TestPrices_BarePlaceNameSkipsExtraction(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, ToolPrices, map[string]any{"city_or_text": "Amreli"})
	assert.False(t, res.Diagnostic)
	assert.Contains(t, res.Text, "Agriculture Prices in Amreli:\nFound 1 records")
	assert.Contains(t, res.Text, "Min: ₹6500, Max: ₹7200, Modal: ₹7000")
	assert.Empty(t, f.model.Requests())
}

func TestPrices_ExtractsFromSentence(t *testing.T) {
	f := newFixture(t)
	f.model.AddResponseContaining("what are cotton rates near surat", "Surat")

	res := f.call(t, ToolPrices, map[string]any{"city_or_text": "what are cotton rates near surat"})
	assert.False(t, res.Diagnostic)
	assert.Contains(t, res.Text, "Agriculture Prices in Surat:")
	require.Len(t, f.model.Requests(), 1)
	assert.Contains(t, f.model.Requests()[0].Contents[0].Text(), "Extract the name of a city or district")
}

func TestPrices_ReverseGeocodesCoordinates(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, ToolPrices, map[string]any{}, withCoords(21.6, 71.2))
	assert.Contains(t, res.Text, "Agriculture Prices in Amreli:")
	assert.Equal(t, []string{"21.60,71.20"}, f.geocoder.Calls())
}

func TestPrices_NoLocation(t *testing.T) {
	f := newFixture(t)
	f.model.AddResponseContaining("Extract", "None")

	res := f.call(t, ToolPrices, map[string]any{"city_or_text": "what are the prices?"})
	assert.True(t, res.Diagnostic)
	assert.Equal(t, "Unable to detect your location from input or coordinates.", res.Text)

	res = f.call(t, ToolPrices, map[string]any{})
	assert.Equal(t, "Unable to detect your location from input or coordinates.", res.Text)
	assert.Empty(t, f.prices.Calls())
}

func TestPrices_ProviderError(t *testing.T) {
	f := newFixture(t)
	f.prices.Err = errors.New("status 503")

	res := f.call(t, ToolPrices, map[string]any{"city_or_text": "अमरेली"})
	assert.True(t, res.Diagnostic)
	assert.Equal(t, "Error fetching agriculture prices: status 503", res.Text)
	assert.Equal(t, []string{"Amreli"}, f.prices.Calls())
}

// -------------------- advisories --------------------

func TestAdvisory_Prompts(t *testing.T) {
	f := newFixture(t)
	f.model.AddResponseContaining("common diseases", "Leaf curl and bollworm.")
	f.model.AddResponseContaining("Suggest suitable crops", "Paddy and groundnut.")

	res := f.call(t, ToolDiseases, map[string]any{"city_or_text": "Surat"})
	assert.Equal(t, "Leaf curl and bollworm.", res.Text)

	res = f.call(t, ToolCrops, map[string]any{"city_or_text": "Surat"})
	assert.Equal(t, "Paddy and groundnut.", res.Text)

	reqs := f.model.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "What are the common diseases or health concerns in Surat during July 2025?", reqs[0].Contents[0].Text())
	assert.Equal(t, "Suggest suitable crops to plant in Surat during July 2025, based on the typical season and climate of the region.", reqs[1].Contents[0].Text())
}

func TestAdvisory_Failures(t *testing.T) {
	f := newFixture(t)
	f.model.AddResponseContaining("Extract", "None")

	res := f.call(t, ToolCrops, map[string]any{"city_or_text": "what should i plant"})
	assert.True(t, res.Diagnostic)
	assert.Equal(t, "Unable to detect location.", res.Text)

	f.model.QueueError(errors.New("quota exceeded"))
	res = f.call(t, ToolDiseases, map[string]any{"city_or_text": "Surat"})
	assert.Equal(t, "Error detecting seasonal diseases: quota exceeded", res.Text)

	f.model.QueueError(errors.New("quota exceeded"))
	res = f.call(t, ToolCrops, map[string]any{"city_or_text": "Surat"})
	assert.Equal(t, "Error generating crop suggestion: quota exceeded", res.Text)
}

// -------------------- location --------------------

func TestExtractLocation(t *testing.T) {
	f := newFixture(t)
	f.model.AddResponseContaining("weather in rajkot", `"Rajkot".`)
	f.model.AddResponseContaining("hello there", "None")

	assert.Equal(t, "Rajkot", f.call(t, ToolExtractLocation, map[string]any{"user_input": "weather in rajkot"}).Text)
	assert.Equal(t, "None", f.call(t, ToolExtractLocation, map[string]any{"user_input": "hello there"}).Text)

	f.model.QueueError(errors.New("boom"))
	res := f.call(t, ToolExtractLocation, map[string]any{"user_input": "x"})
	assert.True(t, res.Diagnostic)
	assert.Equal(t, "Error extracting location: boom", res.Text)
}

func TestTranslateLocation(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Surat", f.call(t, ToolTranslateLocation, map[string]any{"location": "સુરત"}).Text)
	assert.Equal(t, "Surat", f.call(t, ToolTranslateLocation, map[string]any{"location": "Surat"}).Text)
}

func TestIsPlaceName(t *testing.T) {
	for _, s := range []string{"Surat", "Navi Mumbai", "सूरत", "Sri Ganganagar"} {
		assert.True(t, IsPlaceName(s), s)
	}
	for _, s := range []string{"", "surat", "what are the prices?", "Weather in Surat today please", "3 Surat"} {
		assert.False(t, IsPlaceName(s), s)
	}
}
