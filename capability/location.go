package capability

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/lang"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/tool"
)

const extractPrompt = "Extract the name of a city or district from the following text. " +
	"If none is found, reply with 'None'.\n\n" +
	"Text: \"%s\"\n\n" +
	"Location:"

// ExtractLocation asks the model for the single city or district named in
// text. It returns "" when the model finds none.
func (k *Toolkit) ExtractLocation(ctx context.Context, text string) (string, error) {
	answer, err := model.Complete(ctx, k.model, "", fmt.Sprintf(extractPrompt, text))
	if err != nil {
		return "", err
	}
	loc := strings.Trim(strings.TrimSpace(answer), `"'.`)
	if loc == "" || strings.EqualFold(loc, "none") {
		return "", nil
	}
	return loc, nil
}

// locate turns a free-text argument into an English place name. A bare place
// name is used as is; longer text goes through model extraction. When the
// text names nothing, coordinates (explicit or from the request) are reverse
// geocoded. It returns "" when no location can be found.
func (k *Toolkit) locate(tc *core.ToolContext, text string, coords *core.Coordinates) (string, error) {
	ctx := tc.Context()

	var loc string
	if text = strings.TrimSpace(text); text != "" {
		if IsPlaceName(text) {
			loc = text
		} else {
			extracted, err := k.ExtractLocation(ctx, text)
			if err != nil {
				return "", err
			}
			loc = extracted
		}
	}

	if loc == "" {
		if coords == nil {
			coords = tc.Coordinates()
		}
		if coords != nil && k.geocoder != nil {
			name, err := k.geocoder.LocationName(ctx, coords.Lat, coords.Lon)
			if err != nil {
				tc.LogWarn("capability.geocode.failed", "coords", coords.String(), "error", err.Error())
			}
			loc = name
		}
	}

	if loc == "" {
		return "", nil
	}
	return k.english(ctx, loc), nil
}

func (k *Toolkit) english(ctx context.Context, loc string) string {
	if k.normalizer == nil || !lang.IsNonEnglish(loc) {
		return loc
	}
	return k.normalizer.NormalizeLocation(ctx, loc)
}

// IsPlaceName reports whether text already is a bare place name ("Surat",
// "Navi Mumbai", "सूरत") rather than a sentence that must be searched.
func IsPlaceName(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, "?!.,:;\"") {
		return false
	}
	words := strings.Fields(text)
	if len(words) > 3 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if unicode.IsDigit(r[0]) {
			return false
		}
		if unicode.IsLetter(r[0]) && unicode.In(r[0], unicode.Latin) && !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}

type extractArgs struct {
	UserInput string `json:"user_input" description:"Free text that may mention a city or district"`
}

func (k *Toolkit) extractLocationTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolExtractLocation,
		"Extract the city or district mentioned in free text. Returns 'None' when the text names no place. Only use this when the location is not already clear from the conversation.",
		extractArgs{},
		func(tc *core.ToolContext, args tool.Args) tool.Result {
			loc, err := k.ExtractLocation(tc.Context(), args.String("user_input"))
			if err != nil {
				return tool.Diagnosticf("Error extracting location: %v", err)
			}
			if loc == "" {
				return tool.Success("None")
			}
			return tool.Success(loc)
		},
	)
}

type translateArgs struct {
	Location string `json:"location" description:"Place name in any language"`
}

func (k *Toolkit) translateLocationTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolTranslateLocation,
		"Translate a place name to English.",
		translateArgs{},
		func(tc *core.ToolContext, args tool.Args) tool.Result {
			loc := args.String("location")
			if k.normalizer == nil {
				return tool.Success(loc)
			}
			return tool.Success(k.normalizer.NormalizeLocation(tc.Context(), loc))
		},
	)
}
