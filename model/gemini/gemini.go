// Package gemini provides an implementation of model.Model backed by the
// Google Gen AI SDK (Gemini API or Vertex AI).
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/model"
	"google.golang.org/genai"
)

// Options configures the Gemini model adapter. When Project and Location are
// set the Vertex AI backend is used, otherwise the Gemini API with APIKey.
type Options struct {
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
	APIKey          string
	Project         string
	Location        string
}

// Model wraps genai.Client behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		TopP:            0.9,
		MaxOutputTokens: 1000,
	}
}

// NewModel creates a Gemini model and its client.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := &genai.ClientConfig{APIKey: opts.APIKey, Backend: genai.BackendGeminiAPI}
	if opts.Project != "" && opts.Location != "" {
		cfg = &genai.ClientConfig{Project: opts.Project, Location: opts.Location, Backend: genai.BackendVertexAI}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single final chunk.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		temp := m.opts.Temperature
		topP := m.opts.TopP
		cfg := &genai.GenerateContentConfig{
			Temperature:     &temp,
			TopP:            &topP,
			MaxOutputTokens: m.opts.MaxOutputTokens,
		}
		if system := systemText(req); system != "" {
			cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}
		if len(req.Tools) > 0 {
			cfg.Tools = buildTools(req.Tools)
		}

		res, err := m.client.Models.GenerateContent(ctx, m.opts.Model, buildContents(req.Contents), cfg)
		if err != nil {
			errCh <- fmt.Errorf("gemini generate content: %w", err)
			return
		}

		var parts []core.Part
		if text := res.Text(); text != "" {
			parts = append(parts, core.TextPart{Text: text})
		}
		for _, fc := range res.FunctionCalls() {
			args, _ := json.Marshal(fc.Args)
			id := fc.ID
			if id == "" {
				id = core.NewID()
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        id,
				Name:      fc.Name,
				Arguments: string(args),
			}})
		}

		resp := model.Response{
			ID:           res.ResponseID,
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: "stop",
		}
		if len(res.Candidates) > 0 && res.Candidates[0].FinishReason != "" {
			resp.FinishReason = string(res.Candidates[0].FinishReason)
		}
		if u := res.UsageMetadata; u != nil {
			resp.Usage = &model.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
			}
		}
		out <- resp
	}()

	return out, errCh
}

func systemText(req model.Request) string {
	for _, c := range req.Contents {
		if c.Role == core.RoleSystem {
			return c.Text()
		}
	}
	return req.Instructions
}

// buildContents maps contents onto user / model turns. Function responses are
// sent as user turns following the model turn that requested them.
func buildContents(contents []core.Content) []*genai.Content {
	var out []*genai.Content
	for _, c := range contents {
		switch c.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			var parts []*genai.Part
			if text := c.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, fc := range c.FunctionCalls() {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(fc.Arguments), &args)
				parts = append(parts, genai.NewPartFromFunctionCall(fc.Name, args))
			}
			if len(parts) > 0 {
				out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case core.RoleTool:
			var parts []*genai.Part
			for _, p := range c.Parts {
				if fr, ok := p.(core.FunctionResponsePart); ok {
					key := "output"
					if fr.FunctionResponse.Diagnostic {
						key = "error"
					}
					parts = append(parts, genai.NewPartFromFunctionResponse(fr.FunctionResponse.Name, map[string]any{key: fr.FunctionResponse.Response}))
				}
			}
			if len(parts) > 0 {
				out = append(out, genai.NewContentFromParts(parts, genai.RoleUser))
			}
		default:
			if text := c.Text(); text != "" {
				out = append(out, genai.NewContentFromText(text, genai.RoleUser))
			}
		}
	}
	return out
}

func buildTools(tools []model.ToolDefinition) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  toSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// toSchema converts the minimal JSON schema maps used by tools into genai.Schema.
func toSchema(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Type: schemaType(s["type"])}
	if d, ok := s["description"].(string); ok {
		out.Description = d
	}
	if enum, ok := s["enum"].([]string); ok {
		out.Enum = enum
	}
	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				out.Properties[name] = toSchema(pm)
			}
		}
	}
	if items, ok := s["items"].(map[string]any); ok {
		out.Items = toSchema(items)
	}
	switch req := s["required"].(type) {
	case []string:
		out.Required = req
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	return out
}

func schemaType(v any) genai.Type {
	switch v {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
