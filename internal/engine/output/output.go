// Package output implements the engine's typed Output sum type and its
// merge semantics (spec component B).
package output

import "fmt"

// Output is a closed sum type flowing between execution stages.
type Output interface {
	isOutput()
	// Kind returns a stable discriminant for switch dispatch and logging.
	Kind() string
}

// Text is free-form natural-language output, e.g. an LLM's final message.
type Text struct {
	Text string
}

func (Text) isOutput()     {}
func (Text) Kind() string  { return "text" }

// SQL is a generated query prior to execution.
type SQL struct {
	Query string
}

func (SQL) isOutput()    {}
func (SQL) Kind() string { return "sql" }

// Field describes one column of a Table's schema.
type Field struct {
	Name string
	Type string
}

// Schema is the ordered column layout of a Table.
type Schema struct {
	Fields []Field
}

// Equal reports whether two schemas have identical field name/type pairs,
// in order — the condition under which two Table outputs may be merged.
func (s Schema) Equal(other Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f != other.Fields[i] {
			return false
		}
	}
	return true
}

// RecordBatch is one chunk of rows sharing a Table's schema.
type RecordBatch struct {
	Rows [][]any
}

// Table is query-result data: record batches sharing a schema, and a flag
// marking a truncated result. It carries no reference back to the query
// that produced it.
type Table struct {
	Batches   []RecordBatch
	Schema    Schema
	Truncated bool
}

func (Table) isOutput()    {}
func (Table) Kind() string { return "table" }

// RowCount returns the total number of rows across all batches.
func (t Table) RowCount() int {
	n := 0
	for _, b := range t.Batches {
		n += len(b.Rows)
	}
	return n
}

// Document is a single retrieved or ingested document.
type Document struct {
	ID      string
	Kind    string
	Content string
}

// Documents wraps a list of retrieved documents.
type Documents struct {
	Documents []Document
}

func (Documents) isOutput()    {}
func (Documents) Kind() string { return "documents" }

// Prompt is a rendered prompt string handed to an LLM call.
type Prompt struct {
	Prompt string
}

func (Prompt) isOutput()    {}
func (Prompt) Kind() string { return "prompt" }

// Bool is a boolean result, e.g. from a Conditional task's predicate.
type Bool struct {
	Value bool
}

func (Bool) isOutput()    {}
func (Bool) Kind() string { return "bool" }

// Err carries one LoopSequential iteration's failure in place of a
// result, so a failing iteration shows up in the List's result vector at
// its original position instead of short-circuiting the whole loop
// (spec §4.F loop semantics).
type Err struct {
	Message string
}

func (Err) isOutput()    {}
func (Err) Kind() string { return "error" }

// OmniQuery carries parameters for an engine-level cross-database query
// prior to SQL translation by the connector factory.
type OmniQuery struct {
	Params map[string]any
}

func (OmniQuery) isOutput()    {}
func (OmniQuery) Kind() string { return "omni_query" }

// SemanticQuery carries parameters for a semantic-layer query prior to SQL
// translation.
type SemanticQuery struct {
	Params map[string]any
}

func (SemanticQuery) isOutput()    {}
func (SemanticQuery) Kind() string { return "semantic_query" }

// Merge combines two outputs of (usually) the same kind, per spec §4.B:
// Text+Text concatenates; Table+Table with identical schemas concatenates
// batches and ORs "truncated"; otherwise b replaces a.
func Merge(a, b Output) Output {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	switch av := a.(type) {
	case Text:
		if bv, ok := b.(Text); ok {
			return Text{Text: av.Text + bv.Text}
		}
	case Table:
		if bv, ok := b.(Table); ok && av.Schema.Equal(bv.Schema) {
			batches := make([]RecordBatch, 0, len(av.Batches)+len(bv.Batches))
			batches = append(batches, av.Batches...)
			batches = append(batches, bv.Batches...)
			return Table{
				Batches:   batches,
				Schema:    av.Schema,
				Truncated: av.Truncated || bv.Truncated,
			}
		}
	}
	return b
}

// String renders a human-readable summary, used for logging and Message
// events.
func String(o Output) string {
	switch v := o.(type) {
	case Text:
		return v.Text
	case SQL:
		return v.Query
	case Table:
		return fmt.Sprintf("table(%d rows, truncated=%v)", v.RowCount(), v.Truncated)
	case Documents:
		return fmt.Sprintf("documents(%d)", len(v.Documents))
	case Prompt:
		return v.Prompt
	case Bool:
		return fmt.Sprintf("%v", v.Value)
	case Err:
		return v.Message
	default:
		if o == nil {
			return ""
		}
		return o.Kind()
	}
}
