package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
)

func newTestContext(t *testing.T) (*ectx.ExecutionContext, *event.Sender) {
	t.Helper()
	sender := event.NewSender(64)
	c, err := ectx.NewBuilder().
		WithGoContext(context.Background()).
		WithWriter(sender).
		WithSource(event.NewRoot("test")).
		Build()
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

func TestRegistryDispatchesToRegisteredExecutor(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	registry := NewRegistry(nil)
	executor := NewFunctionExecutor("lookup", "lookup-fn", func(ctx *ectx.ExecutionContext, rawInput string) (output.Container, error) {
		return output.Single{Output: output.Text{Text: "handled:" + rawInput}}, nil
	})
	registry.Register([]Type{"lookup"}, executor)

	result, err := registry.Dispatch(ctx, contract.ToolCall{ID: "1", Name: "lookup", Arguments: "query"})
	require.NoError(t, err)
	assert.Equal(t, "handled:query", result.(output.Text).Text)
}

func TestRegistryReturnsErrorForUnregisteredType(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	registry := NewRegistry(nil)
	_, err := registry.Dispatch(ctx, contract.ToolCall{ID: "1", Name: "unknown"})
	require.Error(t, err, "expected error for unregistered tool type")
	assert.Equal(t, enginerr.ArgumentError, enginerr.Kind(err))
}

func TestRegistryRegisterIgnoresTypeExecutorCannotHandle(t *testing.T) {
	registry := NewRegistry(nil)
	executor := NewFunctionExecutor("lookup", "lookup-fn", nil)
	registry.Register([]Type{"other"}, executor)

	_, ok := registry.Lookup("other")
	assert.False(t, ok, "expected registration to be rejected for a type the executor cannot handle")
}

func TestScriptExecutorRunsScriptAndEmitsLogs(t *testing.T) {
	ctx, sender := newTestContext(t)

	renderer := render.NewScriptRenderer()
	executor := NewScriptExecutor(renderer, render.New(), []ScriptConfig{
		{Type: "double", Script: `console.log("doubling"); input * 2`},
	})

	require.True(t, executor.CanHandle("double"))

	result, err := executor.Execute(ctx, "double", "21")
	require.NoError(t, err)
	assert.Equal(t, "42", result.(output.Single).Output.(output.Text).Text)

	events := drain(sender)
	found := false
	for _, e := range events {
		if msg, ok := e.Kind.(event.Message); ok && msg.Message == "[doubling]" {
			found = true
		}
	}
	assert.True(t, found, "expected a Message event carrying the script's console.log output")
}

func TestScriptExecutorRejectsUnknownType(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	executor := NewScriptExecutor(render.NewScriptRenderer(), render.New(), nil)
	assert.False(t, executor.CanHandle("anything"), "expected CanHandle to be false with no configured scripts")

	_, err := executor.Execute(ctx, "anything", "")
	assert.Error(t, err, "expected error executing an unregistered script type")
}
