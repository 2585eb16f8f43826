package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agrimesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Model = (*MockModel)(nil)

func TestMockModel_ScriptIsConsumedInOrder(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.QueueCall("get_weather", `{"city":"Surat"}`)
	m.QueueText("It is sunny in Surat.")

	first, err := Collect(context.Background(), m, Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "weather?")}})
	require.NoError(t, err)
	calls := first.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "get_weather", calls[0].Name)
	assert.Equal(t, "tool_calls", first.FinishReason)

	second, err := Collect(context.Background(), m, Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "weather?")}})
	require.NoError(t, err)
	assert.Equal(t, "It is sunny in Surat.", second.Content.Text())
	assert.Len(t, m.Requests(), 2)
}

func TestMockModel_QueuedError(t *testing.T) {
	m := NewMockModel("mock", "mock")
	boom := errors.New("rate limited")
	m.QueueError(boom)

	_, err := Collect(context.Background(), m, Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "x")}})
	assert.ErrorIs(t, err, boom)
}

func TestComplete_MatchersAndFallback(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("exact prompt", "exact answer")
	m.AddResponseContaining("city or district", "Surat")

	out, err := Complete(context.Background(), m, "", "exact prompt")
	require.NoError(t, err)
	assert.Equal(t, "exact answer", out)

	out, err = Complete(context.Background(), m, "system", "Extract the name of a city or district from: hi")
	require.NoError(t, err)
	assert.Equal(t, "Surat", out)

	out, err = Complete(context.Background(), m, "", "unknown")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: unknown", out)

	reqs := m.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, core.RoleSystem, reqs[1].Contents[0].Role)
}

func TestCollect_CancelledContext(t *testing.T) {
	m := NewMockModel("mock", "mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, m, Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "x")}})
	assert.ErrorIs(t, err, context.Canceled)
}

type partialOnlyModel struct{}

func (partialOnlyModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	r := make(chan Response, 1)
	e := make(chan error)
	r <- Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, "a")}
	close(r)
	close(e)
	return r, e
}

func (partialOnlyModel) Info() Info { return Info{Name: "partial"} }

func TestCollect_NoFinalResponse(t *testing.T) {
	_, err := Collect(context.Background(), partialOnlyModel{}, Request{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
