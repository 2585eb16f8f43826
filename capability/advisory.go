package capability

import (
	"fmt"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/tool"
)

type advisoryArgs struct {
	CityOrText string `json:"city_or_text" description:"Location name, or the user's question when it names a place"`
}

// advisory describes a seasonal question answered by the model.
type advisory struct {
	name        string
	description string
	prompt      string // receives location, month, year
	failure     string
}

var (
	diseasesAdvisory = advisory{
		name:        ToolDiseases,
		description: "Describe the common crop and livestock diseases or health concerns for a location in the current month. Uses the current month and year automatically.",
		prompt:      "What are the common diseases or health concerns in %s during %s %d?",
		failure:     "Error detecting seasonal diseases: %v",
	}
	cropsAdvisory = advisory{
		name:        ToolCrops,
		description: "Suggest crops suitable to plant now in a location, based on the current season. Uses the current month and year automatically.",
		prompt:      "Suggest suitable crops to plant in %s during %s %d, based on the typical season and climate of the region.",
		failure:     "Error generating crop suggestion: %v",
	}
)

func (k *Toolkit) diseasesTool() tool.Tool { return k.advisoryTool(diseasesAdvisory) }

func (k *Toolkit) cropsTool() tool.Tool { return k.advisoryTool(cropsAdvisory) }

func (k *Toolkit) advisoryTool(a advisory) tool.Tool {
	return tool.NewFunctionToolFromStruct(a.name, a.description, advisoryArgs{},
		func(tc *core.ToolContext, args tool.Args) tool.Result {
			location, err := k.locate(tc, args.String("city_or_text"), nil)
			if err != nil {
				return tool.Diagnosticf(a.failure, err)
			}
			if location == "" {
				return tool.Diagnostic("Unable to detect location.")
			}

			now := tc.Now()
			prompt := fmt.Sprintf(a.prompt, location, now.Month().String(), now.Year())

			answer, err := model.Complete(tc.Context(), k.model, "", prompt)
			if err != nil {
				return tool.Diagnosticf(a.failure, err)
			}
			return tool.Success(answer)
		},
	)
}
