package agent

import (
	"context"
	"testing"

	"github.com/hupe1980/agrimesh/capability"
	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/internal/testutil"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep(t *testing.T) {
	assert.True(t, Answer("done").Final())

	s := Call(capability.ToolWeather, `{"city":"Surat"}`)
	assert.False(t, s.Final())
	require.Len(t, s.Calls, 1)
	assert.NotEmpty(t, s.Calls[0].ID)
}

func TestTurnState_Helpers(t *testing.T) {
	s := &TurnState{SessionID: "s1", Now: turnClock}
	_, ok := s.LastCall()
	assert.False(t, ok)

	s.Calls = append(s.Calls, CallRecord{Call: core.FunctionCall{Name: "extract_location"}})
	assert.True(t, s.Called("extract_location"))
	assert.False(t, s.Called("get_weather"))

	data := s.TemplateData()
	assert.Equal(t, "July", data["Month"])
	assert.Equal(t, 2025, data["Year"])
}

func TestModelPlanner_BuildRequest(t *testing.T) {
	e := newEnv(t)
	p := NewModelPlanner(e.model, e.registry, func(o *ModelPlannerOptions) { o.MaxHistory = 2 })

	state := &TurnState{
		SessionID:   "s1",
		Utterance:   "And the prices?",
		Coordinates: &core.Coordinates{Lat: 21.17, Lon: 72.83},
		History: []core.Message{
			{Role: core.RoleHuman, Content: "old question"},
			{Role: core.RoleHuman, Content: "weather in Surat"},
			{Role: core.RoleAgent, Content: "Weather in Surat: haze"},
		},
		Calls: []CallRecord{
			{Call: core.FunctionCall{ID: "a", Name: capability.ToolPrices}, Result: tool.Diagnostic("Error fetching agriculture prices: boom"), Round: 0},
		},
		Now: turnClock,
	}

	req, err := p.BuildRequest(state)
	require.NoError(t, err)

	assert.Contains(t, req.Instructions, "Today is July 2025.")
	require.Len(t, req.Contents, 6)

	assert.Equal(t, core.RoleSystem, req.Contents[0].Role)
	assert.Equal(t, "weather in Surat", req.Contents[1].Text())
	assert.Equal(t, core.RoleAssistant, req.Contents[2].Role)
	assert.Equal(t, core.RoleUser, req.Contents[3].Role)
	assert.Contains(t, req.Contents[3].Text(), "And the prices?")
	assert.Contains(t, req.Contents[3].Text(), "lat=21.1700, lon=72.8300")

	calls := req.Contents[4].FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, capability.ToolPrices, calls[0].Name)

	resp, ok := req.Contents[5].Parts[0].(core.FunctionResponsePart)
	require.True(t, ok)
	assert.Equal(t, "a", resp.FunctionResponse.ID)
	assert.True(t, resp.FunctionResponse.Diagnostic)

	var names []string
	for _, d := range req.Tools {
		assert.Equal(t, "function", d.Type)
		names = append(names, d.Function.Name)
	}
	assert.Equal(t, []string{
		capability.ToolWeather, capability.ToolWeatherByCoordinates, capability.ToolPrices,
		capability.ToolDiseases, capability.ToolCrops, capability.ToolExtractLocation,
	}, names)
}

func TestScratchpadProcessor_GroupsRounds(t *testing.T) {
	state := &TurnState{Calls: []CallRecord{
		{Call: core.FunctionCall{ID: "1", Name: "a"}, Round: 0},
		{Call: core.FunctionCall{ID: "2", Name: "b"}, Round: 0},
		{Call: core.FunctionCall{ID: "3", Name: "c"}, Round: 1},
	}}

	req := new(model.Request)
	require.NoError(t, NewScratchpadProcessor().ProcessRequest(state, req))

	var roles []string
	for _, c := range req.Contents {
		roles = append(roles, c.Role)
	}
	assert.Equal(t, []string{core.RoleAssistant, core.RoleTool, core.RoleTool, core.RoleAssistant, core.RoleTool}, roles)
	assert.Len(t, req.Contents[0].FunctionCalls(), 2)
}

func TestInstructionsProcessor_ProviderError(t *testing.T) {
	p := NewInstructionsProcessor(NewInstructionFromFunc(func(*TurnState) (string, error) {
		return "", assert.AnError
	}))
	err := p.ProcessRequest(&TurnState{}, new(model.Request))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestKeywordClassifier(t *testing.T) {
	e := newEnv(t)
	c := NewKeywordClassifier(e.registry)

	tests := []struct {
		name      string
		utterance string
		history   []core.Message
		want      tool.Intent
		found     bool
	}{
		{name: "weather", utterance: "What is the weather in Surat?", want: tool.IntentWeather, found: true},
		{name: "prices", utterance: "mandi bhav for cotton", want: tool.IntentPrices, found: true},
		{name: "crops", utterance: "Which crop should I sow now?", want: tool.IntentCrops, found: true},
		{name: "general", utterance: "Who is the PM of India?", found: false},
		{
			name:      "follow-up inherits intent",
			utterance: "What about Ahmedabad?",
			history: []core.Message{
				{Role: core.RoleHuman, Content: "mandi prices in Surat"},
				{Role: core.RoleAgent, Content: "Agriculture prices in Surat: ..."},
			},
			want:  tool.IntentPrices,
			found: true,
		},
		{
			name:      "non follow-up does not inherit",
			utterance: "Tell me a joke",
			history:   []core.Message{{Role: core.RoleHuman, Content: "mandi prices in Surat"}},
			found:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := c.Classify(tt.utterance, tt.history)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, e.Intent)
			}
		})
	}
}

func TestLocationResolver(t *testing.T) {
	var r LocationResolver

	assert.Equal(t, "Surat", r.Resolve("What is the weather in Surat?", nil))
	assert.Equal(t, "Navi Mumbai", r.Resolve("prices near Navi Mumbai today", nil))
	assert.Equal(t, "", r.Resolve("Answer in Hindi please", nil))
	assert.Equal(t, "", r.Resolve("What will happen on Monday in July", nil))

	history := testutil.NewSessionBuilder("s1").
		Turn("weather in Rajkot", "Weather in Surat:\n• Condition: Haze").
		Messages()
	assert.Equal(t, "Surat", r.Resolve("What about the temperature?", history))
	assert.Equal(t, "Amreli", r.Resolve("And for Amreli?", history))

	assert.Equal(t, "Rajkot", r.Resolve("What is the price of Wheat in Rajkot?", nil))
	assert.Equal(t, "Rajkot", r.Resolve("Give me the rate for Cotton at Rajkot", nil))
	assert.Equal(t, "", r.Resolve("Compare prices in Surat and in Rajkot", nil))
	assert.Equal(t, "", r.Resolve("Tell me more", []core.Message{
		{Role: core.RoleAgent, Content: "Narendra Modi is the Prime Minister of India."},
	}))
}

func TestIntentPlanner_CommodityAndDistrict(t *testing.T) {
	e := newEnv(t)
	p := NewIntentPlanner(e.model, e.registry)

	step, err := p.Next(context.Background(), &TurnState{
		SessionID: "s1",
		Utterance: "What is the price of Wheat in Rajkot?",
		Now:       turnClock,
	})
	require.NoError(t, err)
	require.Len(t, step.Calls, 1)
	assert.Equal(t, capability.ToolPrices, step.Calls[0].Name)
	assert.JSONEq(t, `{"city_or_text":"Rajkot"}`, step.Calls[0].Arguments)
}

func TestIntentPlanner_SeveralPlacesPassUtterance(t *testing.T) {
	e := newEnv(t)
	p := NewIntentPlanner(e.model, e.registry)

	step, err := p.Next(context.Background(), &TurnState{
		SessionID:   "s1",
		Utterance:   "Compare mandi prices in Surat and in Rajkot",
		Coordinates: &core.Coordinates{Lat: 21.17, Lon: 72.83},
		Now:         turnClock,
	})
	require.NoError(t, err)
	require.Len(t, step.Calls, 1)
	assert.Equal(t, capability.ToolPrices, step.Calls[0].Name)
	assert.JSONEq(t, `{"city_or_text":"Compare mandi prices in Surat and in Rajkot"}`, step.Calls[0].Arguments)
}

func TestBuildArgs(t *testing.T) {
	e := newEnv(t)
	weather, _ := e.registry.Lookup(capability.ToolWeather)
	prices, _ := e.registry.Lookup(capability.ToolPrices)
	crops, _ := e.registry.Lookup(capability.ToolCrops)
	coords := &core.Coordinates{Lat: 21.17, Lon: 72.83}

	assert.Equal(t, map[string]any{"city": "Surat"}, buildArgs(weather, "Surat", "", nil))
	assert.Equal(t, map[string]any{"city_or_text": "Surat"}, buildArgs(prices, "Surat", "", nil))
	assert.Equal(t, map[string]any{"lat": 21.17, "lon": 72.83}, buildArgs(weather, "", "", coords))
	assert.Equal(t, map[string]any{"lat": 21.17, "lon": 72.83, "city_or_text": ""}, buildArgs(prices, "", "", coords))
	assert.Equal(t, map[string]any{"city_or_text": ""}, buildArgs(crops, "", "", coords))
	assert.Equal(t, map[string]any{"city_or_text": "what to sow?"}, buildArgs(crops, "", "what to sow?", nil))
}
