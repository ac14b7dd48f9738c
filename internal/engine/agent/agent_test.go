package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

func newTestContext(t *testing.T) (*ectx.ExecutionContext, *event.Sender) {
	t.Helper()
	sender := event.NewSender(128)
	c, err := ectx.NewBuilder().WithGoContext(context.Background()).WithWriter(sender).Build()
	require.NoError(t, err)
	return c, sender
}

func drain(sender *event.Sender) []event.Event {
	sender.Close()
	var events []event.Event
	for e := range sender.Events() {
		events = append(events, e)
	}
	return events
}

// scriptedProvider returns one canned ChatResponse per call, in order.
type scriptedProvider struct {
	responses []contract.ChatResponse
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []contract.ChatMessage, tools []contract.ToolSchema, toolChoice *contract.ToolChoice, reasoning *contract.ReasoningConfig) (contract.ChatResponse, error) {
	if p.calls >= len(p.responses) {
		return contract.ChatResponse{}, errors.New("scriptedProvider: no more responses")
	}
	r := p.responses[p.calls]
	p.calls++
	return r, nil
}

func (p *scriptedProvider) Embeddings(ctx context.Context, texts []string, model string, dims int) ([][]float32, error) {
	return nil, nil
}

type echoDispatcher struct {
	calls int32
}

func (d *echoDispatcher) Dispatch(ctx *ectx.ExecutionContext, call contract.ToolCall) (output.Output, error) {
	atomic.AddInt32(&d.calls, 1)
	return output.Text{Text: "result:" + call.Name}, nil
}

func TestCoreStopsWhenModelReturnsNoToolCalls(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	provider := &scriptedProvider{responses: []contract.ChatResponse{
		{Message: "final answer"},
	}}
	core := NewCore(provider, &echoDispatcher{}, Config{})

	result, err := core.Execute(ctx, []contract.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "final answer", result.(output.Single).Output.(output.Text).Text)
	assert.Equal(t, 1, provider.calls, "expected exactly one model call")
}

func TestCoreDispatchesToolCallsThenLoops(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	provider := &scriptedProvider{responses: []contract.ChatResponse{
		{Message: "", ToolCalls: []contract.ToolCall{{ID: "1", Name: "lookup"}}},
		{Message: "done"},
	}}
	dispatcher := &echoDispatcher{}
	core := NewCore(provider, dispatcher, Config{ToolConcurrencyLimit: 2})

	result, err := core.Execute(ctx, []contract.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "done", result.(output.Single).Output.(output.Text).Text)
	assert.EqualValues(t, 1, dispatcher.calls, "expected one tool dispatch")
	assert.Equal(t, 2, provider.calls, "expected two model calls")
}

func TestCoreRespectsMaxTurns(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	// Always returns tool calls, so without MaxTurns this would loop
	// forever (and exhaust scriptedProvider's canned responses).
	provider := &scriptedProvider{responses: []contract.ChatResponse{
		{ToolCalls: []contract.ToolCall{{ID: "1", Name: "lookup"}}},
		{ToolCalls: []contract.ToolCall{{ID: "2", Name: "lookup"}}},
	}}
	core := NewCore(provider, &echoDispatcher{}, Config{MaxTurns: 2})

	_, err := core.Execute(ctx, []contract.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls, "expected exactly MaxTurns model calls")
}

func TestRoutingFallbackUsesFallbackWhenPrimaryUnuseful(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	primaryProvider := &scriptedProvider{responses: []contract.ChatResponse{{Message: ""}}}
	fallbackProvider := &scriptedProvider{responses: []contract.ChatResponse{{Message: "fallback answer"}}}

	primary := NewCore(primaryProvider, &echoDispatcher{}, Config{})
	fallback := NewCore(fallbackProvider, &echoDispatcher{}, Config{})

	router := NewRoutingFallback(primary, fallback, RouterConfig{
		ResponseIsUseful: func(c output.Container) bool {
			return c.(output.Single).Output.(output.Text).Text != ""
		},
	})

	result, err := router.Execute(ctx, []contract.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", result.(output.Single).Output.(output.Text).Text)
}

func TestRoutingFallbackKeepsPrimaryWhenUseful(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	primaryProvider := &scriptedProvider{responses: []contract.ChatResponse{{Message: "good answer"}}}
	fallbackProvider := &scriptedProvider{responses: []contract.ChatResponse{{Message: "should not run"}}}

	primary := NewCore(primaryProvider, &echoDispatcher{}, Config{})
	fallback := NewCore(fallbackProvider, &echoDispatcher{}, Config{})

	router := NewRoutingFallback(primary, fallback, RouterConfig{
		ResponseIsUseful: func(c output.Container) bool { return true },
	})

	result, err := router.Execute(ctx, []contract.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "good answer", result.(output.Single).Output.(output.Text).Text)
	assert.Zero(t, fallbackProvider.calls, "expected fallback never called")
}

type fixedSampleExecutable struct {
	texts []string
	idx   int32
}

func (f *fixedSampleExecutable) Execute(ctx *ectx.ExecutionContext, messages []contract.ChatMessage) (output.Container, error) {
	i := atomic.AddInt32(&f.idx, 1) - 1
	return output.Single{Output: output.Text{Text: f.texts[i]}}, nil
}

func TestConsistencySamplerPicksMajority(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	inner := &fixedSampleExecutable{texts: []string{"A", "B", "A", "A", "C"}}
	sampler := NewConsistencySampler(inner, 5, 0, nil)

	result, err := sampler.Execute(ctx, []contract.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	consistency := result.(output.Consistency)
	assert.Equal(t, 5, consistency.N)
	assert.Equal(t, "A", consistency.Value.(output.Single).Output.(output.Text).Text, "expected majority answer A")
}
