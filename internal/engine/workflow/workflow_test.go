package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
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

type fakeConnector struct {
	schema []contract.QuerySchemaField
	rows   [][]any
}

func (c *fakeConnector) RunQuery(ctx context.Context, sql string) (string, error) { return "", nil }

func (c *fakeConnector) RunQueryAndLoad(ctx context.Context, sql string) ([]contract.QueryBatch, []contract.QuerySchemaField, error) {
	return []contract.QueryBatch{{Rows: c.rows}}, c.schema, nil
}

func (c *fakeConnector) ExplainQuery(ctx context.Context, sql string) (string, error) { return "", nil }

func (c *fakeConnector) DatabaseInfo(ctx context.Context, datasets []string) (map[string]any, error) {
	return nil, nil
}

type fakeConnectorFactory struct {
	conn *fakeConnector
}

func (f *fakeConnectorFactory) FromDatabase(ctx context.Context, name string, cfg any, secrets contract.SecretsManager, overrides, filters map[string]any) (contract.Connector, error) {
	return f.conn, nil
}

func TestExecuteSQLReturnsTable(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	conn := &fakeConnector{
		schema: []contract.QuerySchemaField{{Name: "id", Type: "int"}},
		rows:   [][]any{{1}, {2}},
	}
	factory := &fakeConnectorFactory{conn: conn}
	templates := render.NewTemplateRegistry()

	task := NewExecuteSQL(ExecuteSQLConfig{
		TaskName:      "rows",
		Database:      "analytics",
		QueryTemplate: "select * from t where id = {{.id}}",
	}, templates, factory)

	ctx = ctx.WithRenderValue(map[string]any{"id": 7})
	result, err := task.Execute(ctx)
	require.NoError(t, err)
	single, ok := result.(output.Single)
	require.True(t, ok, "expected Single, got %T", result)
	table, ok := single.Output.(output.Table)
	require.True(t, ok, "expected Table output, got %T", single.Output)
	assert.Equal(t, 2, table.RowCount())
}

func TestFormatterRendersTemplate(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	templates := render.NewTemplateRegistry()
	task := NewFormatter(FormatterConfig{TaskName: "summary", Template: "hello {{.name}}"}, templates, render.NewScriptRenderer())

	ctx = ctx.WithRenderValue(map[string]any{"name": "oxy"})
	result, err := task.Execute(ctx)
	require.NoError(t, err)
	single := result.(output.Single)
	text := single.Output.(output.Text)
	assert.Equal(t, "hello oxy", text.Text)
}

func TestFormatterRunsScript(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	templates := render.NewTemplateRegistry()
	task := NewFormatter(FormatterConfig{TaskName: "summary", Script: `"n=" + ctx.n`}, templates, render.NewScriptRenderer())

	ctx = ctx.WithRenderValue(map[string]any{"n": 3.0})
	result, err := task.Execute(ctx)
	require.NoError(t, err)
	text := result.(output.Single).Output.(output.Text)
	assert.Equal(t, "n=3", text.Text)
}

func TestConditionalRunsThenBranch(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	then := TaskFunc{TaskName: "then", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		return output.Single{Output: output.Text{Text: "yes"}}, nil
	}}
	elseTask := TaskFunc{TaskName: "else", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		return output.Single{Output: output.Text{Text: "no"}}, nil
	}}

	cond := NewConditional(ConditionalConfig{TaskName: "c", IfExpr: "score > 5", Then: then, Else: elseTask}, render.NewExprEvaluator())

	ctx = ctx.WithRenderValue(map[string]any{"score": 10.0})
	result, err := cond.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "yes", result.(output.Single).Output.(output.Text).Text, "expected then branch")
}

func TestConditionalRunsElseBranchWithoutElseTask(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	then := TaskFunc{TaskName: "then", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		return output.Single{Output: output.Bool{Value: true}}, nil
	}}
	cond := NewConditional(ConditionalConfig{TaskName: "c", IfExpr: "score > 5", Then: then}, render.NewExprEvaluator())

	ctx = ctx.WithRenderValue(map[string]any{"score": 1.0})
	result, err := cond.Execute(ctx)
	require.NoError(t, err)
	assert.False(t, result.(output.Single).Output.(output.Bool).Value, "expected default false Bool")
}

func TestLoopSequentialPreservesOrderAndDoesNotShortCircuit(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	body := TaskFunc{TaskName: "echo", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		v, _ := ctx.Render.Get(DefaultLoopVarName)
		s := v.(string)
		if s == "bad" {
			return nil, errors.New("boom")
		}
		return output.Single{Output: output.Text{Text: s}}, nil
	}}

	loop := NewLoopSequential(LoopSequentialConfig{
		TaskName:    "loop",
		ItemsExpr:   `["x", "bad", "z"]`,
		Concurrency: 3,
		Body:        body,
	}, render.NewExprEvaluator())

	result, err := loop.Execute(ctx)
	require.NoError(t, err)
	list := result.(output.List)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "x", list.Items[0].(output.Single).Output.(output.Text).Text, "expected item 0 = x")
	_, ok := list.Items[1].(output.Single).Output.(output.Err)
	assert.True(t, ok, "expected item 1 to carry an Err output, got %#v", list.Items[1])
	assert.Equal(t, "z", list.Items[2].(output.Single).Output.(output.Text).Text, "expected item 2 = z")
}

type fakeAgentRunner struct {
	calledAgent string
}

func (f *fakeAgentRunner) RunAgent(ctx *ectx.ExecutionContext, agentRef, promptTemplate string) (output.Container, error) {
	f.calledAgent = agentRef
	return output.Single{Output: output.Text{Text: "agent reply"}}, nil
}

func TestAgentTaskDelegatesToRunner(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	runner := &fakeAgentRunner{}
	task := NewAgent(AgentConfig{TaskName: "ask", AgentRef: "support-agent", PromptTemplate: "hi"}, runner)

	result, err := task.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "support-agent", runner.calledAgent, "expected runner invoked with agent ref")
	assert.Equal(t, "agent reply", result.(output.Single).Output.(output.Text).Text)
}

func TestVisualizeEmitsArtifactEvents(t *testing.T) {
	ctx, sender := newTestContext(t)

	inner := TaskFunc{TaskName: "chart-data", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		return output.Single{Output: output.Text{Text: "chart"}}, nil
	}}
	viz := NewVisualize(VisualizeConfig{TaskName: "viz", ArtifactName: "chart", Inner: inner})

	result, err := viz.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chart", result.(output.Single).Output.(output.Text).Text)

	events := drain(sender)
	require.Len(t, events, 3, "expected ArtifactStarted, ArtifactValue and ArtifactDone")
	_, ok := events[0].Kind.(event.ArtifactStarted)
	assert.True(t, ok, "expected first event ArtifactStarted, got %#v", events[0].Kind)
}

type fakeTranslator struct{}

func (fakeTranslator) TranslateOmniQuery(ctx *ectx.ExecutionContext, params map[string]any) (string, string, error) {
	return "select 1", "analytics", nil
}

func (fakeTranslator) TranslateSemanticQuery(ctx *ectx.ExecutionContext, params map[string]any) (string, string, error) {
	return "select 2", "analytics", nil
}

func TestOmniQueryDispatchesThroughTranslatorAndConnector(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	conn := &fakeConnector{schema: []contract.QuerySchemaField{{Name: "n", Type: "int"}}, rows: [][]any{{1}}}
	factory := &fakeConnectorFactory{conn: conn}

	task := NewOmniQuery(OmniQueryConfig{TaskName: "oq", Params: map[string]any{"metric": "revenue"}}, fakeTranslator{}, factory)
	result, err := task.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.(output.Single).Output.(output.Table).RowCount())
}

func TestWorkflowThreadsResultsIntoRenderContext(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	first := TaskFunc{TaskName: "greeting", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		return output.Single{Output: output.Text{Text: "hello"}}, nil
	}}
	templates := render.NewTemplateRegistry()
	second := NewFormatter(FormatterConfig{TaskName: "echo", Template: "{{.greeting}} world"}, templates, render.NewScriptRenderer())

	wf := NewWorkflow("greet", []Task{first, second})
	result, err := wf.Execute(ctx)
	require.NoError(t, err)

	m := result.(output.Map)
	greeting, ok := m.Get("greeting")
	require.True(t, ok, "expected greeting entry")
	assert.Equal(t, "hello", greeting.(output.Single).Output.(output.Text).Text)

	echo, ok := m.Get("echo")
	require.True(t, ok, "expected echo entry")
	assert.Equal(t, "hello world", echo.(output.Single).Output.(output.Text).Text, "expected second task to see first task's result")
}

func TestWorkflowStopsOnTaskError(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	boom := errors.New("boom")
	failing := TaskFunc{TaskName: "fails", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		return nil, boom
	}}
	neverRuns := false
	after := TaskFunc{TaskName: "after", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
		neverRuns = true
		return output.Single{Output: output.Text{}}, nil
	}}

	wf := NewWorkflow("wf", []Task{failing, after})
	_, err := wf.Execute(ctx)
	assert.Error(t, err, "expected workflow to surface task error")
	assert.False(t, neverRuns, "expected workflow to stop before running the second task")
}

func TestSubWorkflowNestsAsTask(t *testing.T) {
	ctx, sender := newTestContext(t)
	defer drain(sender)

	inner := NewWorkflow("inner", []Task{
		TaskFunc{TaskName: "a", Fn: func(ctx *ectx.ExecutionContext) (output.Container, error) {
			return output.Single{Output: output.Text{Text: "inner-a"}}, nil
		}},
	})
	outer := NewWorkflow("outer", []Task{inner})

	result, err := outer.Execute(ctx)
	require.NoError(t, err)
	m := result.(output.Map)
	nested, ok := m.Get("inner")
	require.True(t, ok, "expected nested workflow entry keyed by its name")
	_, ok = nested.(output.Map)
	assert.True(t, ok, "expected nested result to be a Map, got %T", nested)
}
