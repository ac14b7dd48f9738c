package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// QueryTranslator turns an engine-level OmniQuery/SemanticQuery
// parameter set into a connector-ready SQL string. The engine core only
// dispatches through this boundary; translating a specific dialect is
// the embedding application's concern (spec §4.F non-goal, unchanged).
type QueryTranslator interface {
	TranslateOmniQuery(ctx *ectx.ExecutionContext, params map[string]any) (sql string, database string, err error)
	TranslateSemanticQuery(ctx *ectx.ExecutionContext, params map[string]any) (sql string, database string, err error)
}

// OmniQueryConfig configures one OmniQuery task.
type OmniQueryConfig struct {
	TaskName string
	Params   map[string]any
}

// OmniQuery dispatches a cross-database query through QueryTranslator
// then a contract.Connector, exactly like ExecuteSQL once the SQL has
// been produced.
type OmniQuery struct {
	cfg        OmniQueryConfig
	translator QueryTranslator
	factory    contract.ConnectorFactory
}

// NewOmniQuery builds an OmniQuery task.
func NewOmniQuery(cfg OmniQueryConfig, translator QueryTranslator, factory contract.ConnectorFactory) *OmniQuery {
	return &OmniQuery{cfg: cfg, translator: translator, factory: factory}
}

// Name returns the task's configured name.
func (t *OmniQuery) Name() string { return t.cfg.TaskName }

// Execute translates and runs the query.
func (t *OmniQuery) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	sql, database, err := t.translator.TranslateOmniQuery(ctx, t.cfg.Params)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.RuntimeError, "translating omni_query", err)
	}
	return runTranslatedQuery(ctx, t.factory, sql, database)
}

// SemanticQueryConfig configures one SemanticQuery task.
type SemanticQueryConfig struct {
	TaskName string
	Params   map[string]any
}

// SemanticQuery dispatches a semantic-layer query through QueryTranslator
// then a contract.Connector.
type SemanticQuery struct {
	cfg        SemanticQueryConfig
	translator QueryTranslator
	factory    contract.ConnectorFactory
}

// NewSemanticQuery builds a SemanticQuery task.
func NewSemanticQuery(cfg SemanticQueryConfig, translator QueryTranslator, factory contract.ConnectorFactory) *SemanticQuery {
	return &SemanticQuery{cfg: cfg, translator: translator, factory: factory}
}

// Name returns the task's configured name.
func (t *SemanticQuery) Name() string { return t.cfg.TaskName }

// Execute translates and runs the query.
func (t *SemanticQuery) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	sql, database, err := t.translator.TranslateSemanticQuery(ctx, t.cfg.Params)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.RuntimeError, "translating semantic_query", err)
	}
	return runTranslatedQuery(ctx, t.factory, sql, database)
}

func runTranslatedQuery(ctx *ectx.ExecutionContext, factory contract.ConnectorFactory, sql, database string) (output.Container, error) {
	conn, err := factory.FromDatabase(ctx.GoContext(), database, nil, ctx.Secrets, nil, nil)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.DBError, "resolving connector", err)
	}

	batches, schema, err := conn.RunQueryAndLoad(ctx.GoContext(), sql)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.DBError, "running translated query", err)
	}

	table := output.Table{Schema: toOutputSchema(schema)}
	for _, b := range batches {
		table.Batches = append(table.Batches, output.RecordBatch{Rows: b.Rows})
	}
	return output.Single{Output: table}, nil
}
