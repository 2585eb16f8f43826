package capability

import (
	"errors"
	"strings"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/provider/openweather"
	"github.com/hupe1980/agrimesh/tool"
)

type weatherArgs struct {
	City string   `json:"city,omitempty" description:"City or district name in any language"`
	Lat  *float64 `json:"lat,omitempty" minimum:"-90" maximum:"90" description:"Latitude, used when the city is unknown"`
	Lon  *float64 `json:"lon,omitempty" minimum:"-180" maximum:"180" description:"Longitude, used when the city is unknown"`
}

func (k *Toolkit) weatherTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolWeather,
		"Get the current weather for a city or for coordinates. City names in any language are translated automatically. Call once per question.",
		weatherArgs{},
		func(tc *core.ToolContext, args tool.Args) tool.Result {
			ctx := tc.Context()
			coords, ok := args.Coordinates("lat", "lon")
			if !ok {
				coords = tc.Coordinates()
			}

			var cityErr error
			if city := args.String("city"); city != "" {
				city = k.english(ctx, city)
				report, err := k.weather.ByCity(ctx, city)
				if err == nil {
					return tool.Success(report.String())
				}
				cityErr = err
				tc.LogDebug("capability.weather.city_failed", "city", city, "error", err.Error())
			}

			if coords != nil {
				report, err := k.weather.ByCoordinates(ctx, coords.Lat, coords.Lon)
				if err != nil {
					return tool.Diagnosticf("Error fetching weather: %v", err)
				}
				return tool.Success(report.String())
			}

			if cityErr != nil && !errors.Is(cityErr, openweather.ErrNotFound) {
				return tool.Diagnosticf("Error fetching weather: %v", cityErr)
			}
			return tool.Diagnostic("City not found and coordinates not provided.")
		},
	)
}

type coordinatesArgs struct {
	Lat float64 `json:"lat" minimum:"-90" maximum:"90" description:"Latitude"`
	Lon float64 `json:"lon" minimum:"-180" maximum:"180" description:"Longitude"`
}

func (k *Toolkit) weatherByCoordinatesTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolWeatherByCoordinates,
		"Get the current weather at a latitude/longitude.",
		coordinatesArgs{},
		func(tc *core.ToolContext, args tool.Args) tool.Result {
			coords, ok := args.Coordinates("lat", "lon")
			if !ok {
				return tool.Diagnostic("Error fetching weather: invalid coordinates")
			}
			report, err := k.weather.ByCoordinates(tc.Context(), coords.Lat, coords.Lon)
			if err != nil {
				return tool.Diagnosticf("Error fetching weather: %v", err)
			}
			return tool.Success(strings.TrimSpace(report.String()))
		},
	)
}
