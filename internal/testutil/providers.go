package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agrimesh/provider/agmarknet"
	"github.com/hupe1980/agrimesh/provider/openweather"
	"github.com/hupe1980/agrimesh/speech"
)

// callLog records provider invocations for assertions.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) record(format string, args ...any) {
	c.mu.Lock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

// Calls returns the recorded invocations in order.
func (c *callLog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// FakeWeather serves canned reports keyed by city (case-insensitive) and a
// single report for any coordinates.
type FakeWeather struct {
	callLog
	Cities map[string]*openweather.Report
	Coords *openweather.Report
	Err    error
}

// NewFakeWeather returns a FakeWeather that knows Surat.
func NewFakeWeather() *FakeWeather {
	wind := 3.6
	return &FakeWeather{
		Cities: map[string]*openweather.Report{
			"surat": {City: "Surat", Description: "haze", Temperature: 32, FeelsLike: 38.4, Humidity: 66, WindSpeed: &wind},
		},
	}
}

// ByCity implements capability.WeatherProvider.
func (f *FakeWeather) ByCity(_ context.Context, city string) (*openweather.Report, error) {
	f.record("city:%s", city)
	if f.Err != nil {
		return nil, f.Err
	}
	if r, ok := f.Cities[strings.ToLower(city)]; ok {
		return r, nil
	}
	return nil, openweather.ErrNotFound
}

// ByCoordinates implements capability.WeatherProvider.
func (f *FakeWeather) ByCoordinates(_ context.Context, lat, lon float64) (*openweather.Report, error) {
	f.record("coords:%.2f,%.2f", lat, lon)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Coords == nil {
		return nil, openweather.ErrNotFound
	}
	return f.Coords, nil
}

// FakeGeocoder resolves every coordinate to Name, or fails with Err.
type FakeGeocoder struct {
	callLog
	Name string
	Err  error
}

// LocationName implements capability.Geocoder.
func (f *FakeGeocoder) LocationName(_ context.Context, lat, lon float64) (string, error) {
	f.record("%.2f,%.2f", lat, lon)
	return f.Name, f.Err
}

// FakePrices serves canned records keyed by district.
type FakePrices struct {
	callLog
	Records map[string][]agmarknet.Record
	Err     error
}

// Fetch implements capability.PriceProvider.
func (f *FakePrices) Fetch(_ context.Context, district string) ([]agmarknet.Record, error) {
	f.record("%s", district)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Records[district], nil
}

// FakeLanguage is a dictionary backed lang.Detector and lang.Translator.
// Texts listed in Languages are detected as that code, everything else as
// Default. Translations are looked up by source text; unknown texts are
// returned with a "[target] " prefix.
type FakeLanguage struct {
	callLog
	Default      string
	Languages    map[string]string
	Translations map[string]string
	DetectErr    error
	TranslateErr error
}

// DetectLanguage implements lang.Detector.
func (f *FakeLanguage) DetectLanguage(_ context.Context, text string) (string, error) {
	f.record("detect:%s", text)
	if f.DetectErr != nil {
		return "", f.DetectErr
	}
	if code, ok := f.Languages[text]; ok {
		return code, nil
	}
	if f.Default == "" {
		return "en-IN", nil
	}
	return f.Default, nil
}

// Translate implements lang.Translator.
func (f *FakeLanguage) Translate(_ context.Context, text, source, target string) (string, error) {
	f.record("translate:%s:%s>%s", text, source, target)
	if f.TranslateErr != nil {
		return "", f.TranslateErr
	}
	if t, ok := f.Translations[text]; ok {
		return t, nil
	}
	return "[" + target + "] " + text, nil
}

// FakeSpeech transcribes every clip to Transcript and synthesizes a fixed
// MP3 payload.
type FakeSpeech struct {
	callLog
	Transcript string
	Err        error
}

// Transcribe implements speech.Transcriber.
func (f *FakeSpeech) Transcribe(_ context.Context, audio []byte, filename string) (string, error) {
	f.record("stt:%s:%d", filename, len(audio))
	if f.Err != nil {
		return "", f.Err
	}
	return f.Transcript, nil
}

// Synthesize implements speech.Synthesizer.
func (f *FakeSpeech) Synthesize(_ context.Context, text, language string) (*speech.Audio, error) {
	f.record("tts:%s:%s", language, text)
	if f.Err != nil {
		return nil, f.Err
	}
	return &speech.Audio{Data: []byte("ID3" + text), ContentType: "audio/mpeg", Extension: ".mp3"}, nil
}
