// Package capability implements the agent's fixed tool palette: weather,
// mandi prices, seasonal disease and crop advisories, location extraction and
// location translation.
//
// Every tool reports failures as diagnostic text; none of them returns an
// error past the tool boundary.
package capability

import (
	"context"

	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/provider/agmarknet"
	"github.com/hupe1980/agrimesh/provider/openweather"
	"github.com/hupe1980/agrimesh/tool"
)

// Model-facing tool names.
const (
	ToolWeather              = "get_weather"
	ToolWeatherByCoordinates = "get_weather_by_coordinates"
	ToolPrices               = "get_agriculture_prices"
	ToolDiseases             = "get_common_diseases"
	ToolCrops                = "get_crop_suggestion"
	ToolExtractLocation      = "extract_location"
	ToolTranslateLocation    = "translate_location_to_english"
)

// WeatherProvider returns current weather reports.
type WeatherProvider interface {
	ByCity(ctx context.Context, city string) (*openweather.Report, error)
	ByCoordinates(ctx context.Context, lat, lon float64) (*openweather.Report, error)
}

// Geocoder resolves coordinates to a place name.
type Geocoder interface {
	LocationName(ctx context.Context, lat, lon float64) (string, error)
}

// PriceProvider returns mandi price records for a district.
type PriceProvider interface {
	Fetch(ctx context.Context, district string) ([]agmarknet.Record, error)
}

// LocationNormalizer renders a place name in English.
type LocationNormalizer interface {
	NormalizeLocation(ctx context.Context, location string) string
}

// Options configures a Toolkit.
type Options struct {
	Logger logging.Logger
}

// Toolkit binds the palette to its providers.
type Toolkit struct {
	weather    WeatherProvider
	geocoder   Geocoder
	prices     PriceProvider
	model      model.Model
	normalizer LocationNormalizer
	opts       Options
}

// NewToolkit creates a Toolkit. The model answers location extraction and
// advisory questions.
func NewToolkit(weather WeatherProvider, geocoder Geocoder, prices PriceProvider, m model.Model, normalizer LocationNormalizer, optFns ...func(o *Options)) *Toolkit {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Toolkit{
		weather:    weather,
		geocoder:   geocoder,
		prices:     prices,
		model:      m,
		normalizer: normalizer,
		opts:       opts,
	}
}

// Register adds the whole palette to reg.
func (k *Toolkit) Register(reg *tool.Registry) error {
	regs := []struct {
		t   tool.Tool
		opt func(e *tool.Entry)
	}{
		{k.weatherTool(), func(e *tool.Entry) {
			e.Intent = tool.IntentWeather
			e.NeedsLocation = true
			e.Triggers = []string{
				"weather", "temperature", "rain", "forecast", "humid", "wind", "sunny", "cloud",
				"mausam", "havaman", "barish", "मौसम", "तापमान", "बारिश", "હવામાન", "વરસાદ", "તાપમાન",
			}
		}},
		{k.weatherByCoordinatesTool(), func(e *tool.Entry) {
			e.Intent = tool.IntentWeather
			e.Priority = 1
		}},
		{k.pricesTool(), func(e *tool.Entry) {
			e.Intent = tool.IntentPrices
			e.NeedsLocation = true
			e.Triggers = []string{
				"price", "rate", "mandi", "market", "cost", "commodit", "bhav",
				"भाव", "दाम", "कीमत", "મંડી", "ભાવ",
			}
		}},
		{k.diseasesTool(), func(e *tool.Entry) {
			e.Intent = tool.IntentDiseases
			e.NeedsLocation = true
			e.Triggers = []string{
				"disease", "pest", "infection", "illness", "health", "blight", "fung",
				"बीमारी", "रोग", "કીટ", "રોગ",
			}
		}},
		{k.cropsTool(), func(e *tool.Entry) {
			e.Intent = tool.IntentCrops
			e.NeedsLocation = true
			e.Priority = 1
			e.Triggers = []string{
				"crop", "plant", "sow", "grow", "cultivat", "seed", "harvest", "fasal", "kheti",
				"फसल", "खेती", "બીજ", "પાક", "ખેતી",
			}
		}},
		{k.extractLocationTool(), func(e *tool.Entry) {
			e.Intent = tool.IntentLocation
		}},
		{k.translateLocationTool(), func(e *tool.Entry) {
			e.Intent = tool.IntentTranslation
			e.Internal = true
		}},
	}

	for _, r := range regs {
		if err := reg.Register(r.t, r.opt); err != nil {
			return err
		}
	}
	k.opts.Logger.Debug("capability.registered", "tools", len(regs))
	return nil
}

// NewRegistry returns a registry holding the palette.
func (k *Toolkit) NewRegistry() (*tool.Registry, error) {
	reg := tool.NewRegistry()
	if err := k.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
