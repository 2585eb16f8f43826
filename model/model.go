package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agrimesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by planners.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by planners and capability tools.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrEmptyResponse is returned by Collect when the model produced no final chunk.
var ErrEmptyResponse = errors.New("model returned no final response")

// Collect drains a Generate call and returns the final (non-partial) response.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		found bool
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final = r
				found = true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}
	if !found {
		return Response{}, ErrEmptyResponse
	}
	return final, nil
}

// Complete sends a single-prompt request without tools and returns the trimmed text answer.
func Complete(ctx context.Context, m Model, instructions, prompt string) (string, error) {
	req := Request{Instructions: instructions}
	if instructions != "" {
		req.Contents = append(req.Contents, core.NewTextContent(core.RoleSystem, instructions))
	}
	req.Contents = append(req.Contents, core.NewTextContent(core.RoleUser, prompt))

	resp, err := Collect(ctx, m, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content.Text()), nil
}

// MockModel is a lightweight in‑memory Model for tests and examples. It answers
// from three sources, in order: a queued script (one response per Generate
// call), prompt matchers registered with AddResponse, and an echo fallback.
type MockModel struct {
	info Info

	mu        sync.Mutex
	script    []scripted
	responses map[string]string
	matchers  []matcher
	requests  []Request
}

type scripted struct {
	content core.Content
	err     error
}

type matcher struct {
	substr   string
	response string
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic completion for an exact input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// AddResponseContaining registers a completion for any prompt containing substr.
func (m *MockModel) AddResponseContaining(substr, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchers = append(m.matchers, matcher{substr: substr, response: response})
}

// QueueText queues a plain text answer for the next Generate call.
func (m *MockModel) QueueText(text string) {
	m.queue(scripted{content: core.NewTextContent(core.RoleAssistant, text)})
}

// QueueCall queues a function call request for the next Generate call.
func (m *MockModel) QueueCall(name, arguments string) {
	m.queue(scripted{content: core.Content{
		Role: core.RoleAssistant,
		Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        core.NewID(),
			Name:      name,
			Arguments: arguments,
		}}},
	}})
}

// QueueError queues a failure for the next Generate call.
func (m *MockModel) QueueError(err error) {
	m.queue(scripted{err: err})
}

func (m *MockModel) queue(s scripted) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, s)
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var next *scripted
	if len(m.script) > 0 {
		s := m.script[0]
		m.script = m.script[1:]
		next = &s
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}
		if next != nil {
			if next.err != nil {
				errCh <- next.err
				return
			}
			respCh <- Response{Content: next.content, FinishReason: finishReason(next.content)}
			return
		}
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		input := req.Contents[len(req.Contents)-1].Text()
		respCh <- Response{
			Content:      core.NewTextContent(core.RoleAssistant, m.lookup(input)),
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

func (m *MockModel) lookup(input string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.responses[input]; ok {
		return r
	}
	for _, mt := range m.matchers {
		if strings.Contains(input, mt.substr) {
			return mt.response
		}
	}
	return fmt.Sprintf("Mock response to: %s", input)
}

func finishReason(c core.Content) string {
	if len(c.FunctionCalls()) > 0 {
		return "tool_calls"
	}
	return "stop"
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
