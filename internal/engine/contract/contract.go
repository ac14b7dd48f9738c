// Package contract defines the boundary the execution engine consumes
// from its embedding application (spec §6): project configuration,
// secrets, database connectors, and the LLM provider adapter. The engine
// treats all of these as opaque handles — it never implements them
// itself, only dispatches through them.
package contract

import "context"

// ProjectConfig is the resolved project configuration the engine treats
// as an opaque handle.
type ProjectConfig interface {
	ResolveDatabase(name string) (any, error)
	ResolveAgent(ref string) (any, error)
	ResolveWorkflow(ref string) (any, error)
	ResolveFile(path string) ([]byte, error)
	ListDatabases() []string
	ProjectPath() string
}

// SecretsManager resolves and manages named secrets.
type SecretsManager interface {
	ResolveSecret(ctx context.Context, name string) (string, bool, error)
	CreateSecret(ctx context.Context, name, value string) error
	RemoveSecret(ctx context.Context, name string) error
	// ResolveConfigValue resolves a config value from a direct literal, a
	// secret-name variable, or a default, in that priority order.
	ResolveConfigValue(ctx context.Context, direct *string, varName *string, fieldName string, def *string) (string, error)
}

// QueryBatch is one page of query-result rows, matching output.RecordBatch
// in shape without importing the output package (keeps this a one-way
// boundary contract).
type QueryBatch struct {
	Rows [][]any
}

// QuerySchemaField mirrors output.Field.
type QuerySchemaField struct {
	Name string
	Type string
}

// Connector executes queries against one configured database.
type Connector interface {
	RunQuery(ctx context.Context, sql string) (filePath string, err error)
	RunQueryAndLoad(ctx context.Context, sql string) (batches []QueryBatch, schema []QuerySchemaField, err error)
	ExplainQuery(ctx context.Context, sql string) (string, error)
	DatabaseInfo(ctx context.Context, datasets []string) (map[string]any, error)
}

// ConnectorFactory builds Connectors from a named database entry in the
// project configuration.
type ConnectorFactory interface {
	FromDatabase(ctx context.Context, name string, cfg any, secrets SecretsManager, overrides map[string]any, filters map[string]any) (Connector, error)
}

// ChatMessage is one turn of LLM conversation history.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a single tool invocation the LLM requested.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// ToolSchema describes one tool the LLM may call.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema
}

// ToolChoice forces or disables tool calling.
type ToolChoice struct {
	Forced bool
	Name   string // required when Forced is true
	None   bool
}

// ChatUsage reports token accounting for one LLM call.
type ChatUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// ChatResponse is the LLM provider's reply to one chat call.
type ChatResponse struct {
	Message   string
	ToolCalls []ToolCall
	Usage     ChatUsage
}

// ReasoningConfig tunes provider-specific reasoning effort.
type ReasoningConfig struct {
	Effort string
}

// LLMProvider adapts to a concrete LLM backend.
type LLMProvider interface {
	Chat(ctx context.Context, messages []ChatMessage, tools []ToolSchema, toolChoice *ToolChoice, reasoning *ReasoningConfig) (ChatResponse, error)
	Embeddings(ctx context.Context, texts []string, model string, dims int) ([][]float32, error)
}
