package capability

import (
	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/provider/agmarknet"
	"github.com/hupe1980/agrimesh/tool"
)

type pricesArgs struct {
	CityOrText string   `json:"city_or_text,omitempty" description:"District name, or the user's question when it names a place"`
	Lat        *float64 `json:"lat,omitempty" minimum:"-90" maximum:"90" description:"Latitude, used when no district is named"`
	Lon        *float64 `json:"lon,omitempty" minimum:"-180" maximum:"180" description:"Longitude, used when no district is named"`
}

func (k *Toolkit) pricesTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolPrices,
		"Get current mandi (market) prices of agricultural commodities for a district. Pass the district name, or leave it empty to use the user's coordinates.",
		pricesArgs{},
		func(tc *core.ToolContext, args tool.Args) tool.Result {
			coords, _ := args.Coordinates("lat", "lon")

			district, err := k.locate(tc, args.String("city_or_text"), coords)
			if err != nil {
				return tool.Diagnosticf("Error fetching agriculture prices: %v", err)
			}
			if district == "" {
				return tool.Diagnostic("Unable to detect your location from input or coordinates.")
			}

			records, err := k.prices.Fetch(tc.Context(), district)
			if err != nil {
				return tool.Diagnosticf("Error fetching agriculture prices: %v", err)
			}
			return tool.Success(agmarknet.Format(district, records))
		},
	)
}
