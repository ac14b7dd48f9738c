package retrieval

import (
	"context"
	"encoding/json"

	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/tool"
)

// Embedder embeds free text into vectors, step 1 of spec §4.H's search
// algorithm. Satisfied directly by contract.LLMProvider.Embeddings.
type Embedder interface {
	Embeddings(ctx context.Context, texts []string, model string, dims int) ([][]float32, error)
}

// Query is the raw JSON shape a retrieval tool call's arguments take:
// the free-text question plus how many hits to return.
type Query struct {
	Text  string `json:"text"`
	TopK  int    `json:"top_k"`
	Model string `json:"model"`
	Dims  int    `json:"dims"`
}

// ToolType is the fixed Type this package's Executor registers for.
const ToolType tool.Type = "retrieval_search"

// Executor implements tool.Executor by embedding the query, narrowing the
// candidate sources with the parameterized-routing Automaton when one is
// configured, and running the Store's search over the (possibly
// narrowed) row set.
type Executor struct {
	store     *Store
	automaton *Automaton
	embedder  Embedder
}

// NewExecutor builds a retrieval Executor. automaton may be nil, which
// skips parameterized source-routing and searches every ingested row.
func NewExecutor(store *Store, automaton *Automaton, embedder Embedder) *Executor {
	return &Executor{store: store, automaton: automaton, embedder: embedder}
}

// CanHandle implements tool.Executor.
func (e *Executor) CanHandle(t tool.Type) bool { return t == ToolType }

// Name implements tool.Executor.
func (e *Executor) Name() string { return "retrieval" }

// Execute implements tool.Executor: parses the query, embeds it, narrows
// by routed sources if an automaton is configured, searches, and returns
// a Metadata container carrying a Retrieval Reference so callers can cite
// the hit documents (spec §3 Reference/Documents shape).
func (e *Executor) Execute(ctx *ectx.ExecutionContext, _ tool.Type, rawInput string) (output.Container, error) {
	var q Query
	if err := json.Unmarshal([]byte(rawInput), &q); err != nil {
		return nil, enginerr.Wrap(enginerr.SerializerError, "failed to parse retrieval query", err)
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}

	vectors, err := e.embedder.Embeddings(ctx.GoContext(), []string{q.Text}, q.Model, q.Dims)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.LLMError, "embedding retrieval query", err)
	}
	if len(vectors) == 0 {
		return nil, enginerr.New(enginerr.RuntimeError, "embedder returned no vectors")
	}
	query := Embedding(vectors[0])

	searchStore := e.store
	if e.automaton != nil {
		routed := e.automaton.RouteSources(q.Text)
		if len(routed) > 0 {
			searchStore = e.narrowedStore(routed)
		}
	}

	records := searchStore.Search(query, q.TopK)
	docs := make([]output.Document, len(records))
	for i, r := range records {
		docs[i] = r.Document
	}

	return output.Metadata{
		Output:     output.Documents{Documents: docs},
		References: []output.Reference{output.RetrievalReference(docs)},
	}, nil
}

// narrowedStore builds a throwaway Store containing only rows whose
// SourceIdentifier is in sources, so a parameterized-routing hit searches
// just the matched sources instead of the whole index.
func (e *Executor) narrowedStore(sources []string) *Store {
	allowed := make(map[string]bool, len(sources))
	for _, s := range sources {
		allowed[s] = true
	}

	narrowed := NewStore(e.store.ann, e.store.minRows)
	for _, row := range e.store.rows {
		if allowed[row.SourceIdentifier] {
			narrowed.Ingest(row)
		}
	}
	return narrowed
}

var _ Embedder = (contract.LLMProvider)(nil)
