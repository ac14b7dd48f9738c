// Package event implements the engine's streaming event/writer bus
// (spec component A): typed events, ordered and buffered writers, and
// fan-in/fan-out across parallel sibling scopes.
package event

import "github.com/google/uuid"

// Source identifies an executing scope. Sources form a tree: a child's
// ParentID equals its parent's ID; roots have a nil ParentID. The tree is
// built from weak, acyclic by-value back-references only (spec §9).
type Source struct {
	ID       string
	Kind     string
	ParentID *string
}

// NewRoot creates a root source with no parent.
func NewRoot(kind string) Source {
	return Source{ID: uuid.NewString(), Kind: kind}
}

// NewChild creates a source whose ParentID is the given parent's ID.
func NewChild(kind string, parent Source) Source {
	parentID := parent.ID
	return Source{ID: uuid.NewString(), Kind: kind, ParentID: &parentID}
}

// IsRoot reports whether this source has no parent.
func (s Source) IsRoot() bool {
	return s.ParentID == nil
}
