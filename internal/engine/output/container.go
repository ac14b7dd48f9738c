package output

import (
	"fmt"
	"strings"
)

// Container is the closed OutputContainer sum type (spec §3/§4.B): it
// wraps Output with metadata, nesting, and consensus bookkeeping.
type Container interface {
	isContainer()
}

// Single wraps one Output with no extra metadata.
type Single struct {
	Output Output
}

func (Single) isContainer() {}

// MapEntry is one key/value pair of a Map container, preserving the order
// in which entries were inserted — tasks are keyed into the parent map by
// name in declaration/execution order.
type MapEntry struct {
	Key   string
	Value Container
}

// Map is an ordered map of named sub-containers, the shape produced by a
// sequence of named workflow tasks (spec scenario S1).
type Map struct {
	Entries []MapEntry
}

func (Map) isContainer() {}

// Get looks up an entry by key.
func (m Map) Get(key string) (Container, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the insertion-ordered list of keys.
func (m Map) Keys() []string {
	keys := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return keys
}

// With returns a new Map with key set to value, preserving existing order
// and appending new keys, mirroring how a task's result is keyed into its
// parent's accumulator.
func (m Map) With(key string, value Container) Map {
	for i, e := range m.Entries {
		if e.Key == key {
			entries := append([]MapEntry(nil), m.Entries...)
			entries[i].Value = value
			return Map{Entries: entries}
		}
	}
	entries := append(append([]MapEntry(nil), m.Entries...), MapEntry{Key: key, Value: value})
	return Map{Entries: entries}
}

// NewMap builds a Map container from an ordered list of entries.
func NewMap(entries ...MapEntry) Map {
	return Map{Entries: entries}
}

// List is a sequence of sub-containers, the shape produced by a
// LoopSequential task (spec scenario S2): the order of List.Items is the
// order items were dispatched, not the order they completed.
type List struct {
	Items []Container
}

func (List) isContainer() {}

// Metadata wraps an Output with references and a string-keyed metadata
// bag, per spec §3.
type Metadata struct {
	Output     Output
	References []Reference
	Metadata   map[string]string
}

func (Metadata) isContainer() {}

// Consistency wraps the consensus value from n concurrently-sampled agent
// runs (spec §4.G consistency sampling).
type Consistency struct {
	Value Container
	N     int
}

func (Consistency) isContainer() {}

// ProjectRef descends a Map/List container by a dotted key path. Hitting a
// List pivots the remaining path over every element and returns a List of
// results, per spec §4.B.
func ProjectRef(c Container, path string) (Container, error) {
	if path == "" {
		return c, nil
	}

	switch v := c.(type) {
	case List:
		results := make([]Container, len(v.Items))
		for i, item := range v.Items {
			r, err := ProjectRef(item, path)
			if err != nil {
				return nil, fmt.Errorf("project_ref index %d: %w", i, err)
			}
			results[i] = r
		}
		return List{Items: results}, nil

	case Map:
		parts := strings.SplitN(path, ".", 2)
		key := parts[0]
		rest := ""
		if len(parts) > 1 {
			rest = parts[1]
		}
		entry, ok := v.Get(key)
		if !ok {
			return nil, fmt.Errorf("project_ref: key %q not found", key)
		}
		return ProjectRef(entry, rest)

	default:
		return nil, fmt.Errorf("project_ref: cannot descend into leaf container for path %q", path)
	}
}

// TryIntoEvaluationTarget extracts (text, taskDescription, relevantContexts)
// from Single/Metadata/Consistency containers, used by the evaluation
// subsystem; it fails on Map/List containers per spec §4.B.
type EvaluationTarget struct {
	Text             string
	TaskDescription  string
	RelevantContexts []string
}

func TryIntoEvaluationTarget(c Container) (EvaluationTarget, error) {
	switch v := c.(type) {
	case Single:
		return EvaluationTarget{Text: String(v.Output)}, nil
	case Metadata:
		contexts := make([]string, 0, len(v.References))
		for _, ref := range v.References {
			if ref.Kind == ReferenceRetrieval {
				for _, d := range ref.Documents {
					contexts = append(contexts, d.Content)
				}
			}
		}
		return EvaluationTarget{
			Text:             String(v.Output),
			TaskDescription:  v.Metadata["task_description"],
			RelevantContexts: contexts,
		}, nil
	case Consistency:
		return TryIntoEvaluationTarget(v.Value)
	default:
		return EvaluationTarget{}, fmt.Errorf("cannot extract evaluation target from %T", c)
	}
}

// MergeContainer merges two containers of matching shape: Single+Single
// merges the wrapped Output; Map+Map merges entry-wise, appending new
// keys; otherwise b replaces a. This backs Chunk accumulation (delta
// merging) for Updated events.
func MergeContainer(a, b Container) Container {
	if a == nil {
		return b
	}
	switch av := a.(type) {
	case Single:
		if bv, ok := b.(Single); ok {
			return Single{Output: Merge(av.Output, bv.Output)}
		}
	case Map:
		if bv, ok := b.(Map); ok {
			result := av
			for _, e := range bv.Entries {
				existing, ok := result.Get(e.Key)
				if ok {
					result = result.With(e.Key, MergeContainer(existing, e.Value))
				} else {
					result = result.With(e.Key, e.Value)
				}
			}
			return result
		}
	}
	return b
}
