package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
)

// ExecuteSQLConfig configures one ExecuteSQL task.
type ExecuteSQLConfig struct {
	TaskName      string
	Database      string
	QueryTemplate string
}

// ExecuteSQL renders a SQL template against the render context and runs
// it through the opaque contract.Connector boundary (spec §4.F
// ExecuteSQL; the engine never translates dialects — non-goal, §6).
type ExecuteSQL struct {
	cfg       ExecuteSQLConfig
	templates *render.TemplateRegistry
	factory   contract.ConnectorFactory
}

// NewExecuteSQL builds an ExecuteSQL task.
func NewExecuteSQL(cfg ExecuteSQLConfig, templates *render.TemplateRegistry, factory contract.ConnectorFactory) *ExecuteSQL {
	return &ExecuteSQL{cfg: cfg, templates: templates, factory: factory}
}

// Name returns the task's configured name.
func (t *ExecuteSQL) Name() string { return t.cfg.TaskName }

// Execute renders the query, opens a connector for the configured
// database, and loads the result into an output.Table.
func (t *ExecuteSQL) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	sql, err := t.templates.RenderString(t.cfg.QueryTemplate, ctx.Render, nil)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.RuntimeError, "rendering sql template", err)
	}

	conn, err := t.factory.FromDatabase(ctx.GoContext(), t.cfg.Database, nil, ctx.Secrets, nil, nil)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.DBError, "resolving connector", err)
	}

	_ = ctx.Emit(event.SQLQueryGenerated{Query: sql, Database: t.cfg.Database})

	batches, schema, err := conn.RunQueryAndLoad(ctx.GoContext(), sql)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.DBError, "running query", err)
	}

	table := output.Table{Schema: toOutputSchema(schema)}
	for _, b := range batches {
		table.Batches = append(table.Batches, output.RecordBatch{Rows: b.Rows})
	}

	return output.Single{Output: table}, nil
}

func toOutputSchema(fields []contract.QuerySchemaField) output.Schema {
	out := output.Schema{Fields: make([]output.Field, len(fields))}
	for i, f := range fields {
		out.Fields[i] = output.Field{Name: f.Name, Type: f.Type}
	}
	return out
}
