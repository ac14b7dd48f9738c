// Package runs implements the RunsStorage contract (spec §4.I): an
// interface exposed to the core, an in-memory reference implementation
// for tests and Preview retries, and a Postgres-backed implementation for
// production deployments.
package runs

import (
	"context"
	"fmt"
	"time"
)

// Status is a RunInfo's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunInfo is the persisted checkpoint per spec §4.I: `(project, branch,
// source_id, run_index)` is unique whenever run_index is non-nil.
type RunInfo struct {
	Project   string
	Branch    string
	SourceID  string
	RunIndex  *int
	Status    Status
	RootRef   *string
	ReplayRef *string
	LookupID  *string
	UserID    *string
	Variables map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskOutput is one task's recorded output within a run, keyed by task
// name, the unit update_run_output writes.
type TaskOutput struct {
	TaskName string
	Output   any
}

// RunDetails additionally carries the materialized task-output tree and
// any terminal error, per spec §4.I.
type RunDetails struct {
	RunInfo
	Outputs []TaskOutput
	Error   string
}

// Pagination bounds a list_runs page.
type Pagination struct {
	Limit  int
	Offset int
}

// Storage is the contract exposed to the execution core (spec §4.I).
type Storage interface {
	NewRun(ctx context.Context, project, branch, sourceID string, rootRef *string, variables map[string]any, lookupID *string, userID *string) (RunInfo, error)
	UpsertRun(ctx context.Context, run RunInfo) (RunInfo, error)
	FindRun(ctx context.Context, project, branch, sourceID string, runIndex int) (RunInfo, error)
	FindRunDetails(ctx context.Context, project, branch, sourceID string, runIndex int) (RunDetails, error)
	ListRuns(ctx context.Context, project, branch, sourceID string, page Pagination) ([]RunInfo, error)
	Lookup(ctx context.Context, project, branch, lookupID string) (RunInfo, error)
	UpdateRunVariables(ctx context.Context, project, branch, sourceID string, runIndex int, variables map[string]any) error
	UpdateRunOutput(ctx context.Context, project, branch, sourceID string, runIndex int, taskName string, output any) error
	DeleteRun(ctx context.Context, project, branch, sourceID string, runIndex int) error
	BulkDeleteRuns(ctx context.Context, project, branch, sourceID string, runIndexes []int) error
}

// ReplayID composes a child replay ID from a parent's ReplayRef per spec
// §4.I: `"{parent.replay_ref}.{child_id}"`. If the parent carries no
// ReplayRef, childID is returned unchanged — it becomes the root of a new
// replay chain.
func ReplayID(parentReplayRef *string, childID string) string {
	if parentReplayRef == nil || *parentReplayRef == "" {
		return childID
	}
	return fmt.Sprintf("%s.%s", *parentReplayRef, childID)
}

// RetryStrategy is the closed taxonomy applied at replay time (spec
// §4.I), modeled as a tagged interface with a private marker method
// matching the Output/Container/Kind discriminant pattern used
// throughout the engine.
type RetryStrategy interface {
	isRetryStrategy()
	// Kind returns a stable discriminant for logging/dispatch.
	Kind() string
}

// Retry re-runs the specified run, preserving its existing variables.
type Retry struct {
	ReplayID *string
	RunIndex int
}

func (Retry) isRetryStrategy() {}
func (Retry) Kind() string     { return "retry" }

// RetryWithVariables re-runs the specified run, overriding its variables.
type RetryWithVariables struct {
	ReplayID  *string
	RunIndex  int
	Variables map[string]any
}

func (RetryWithVariables) isRetryStrategy() {}
func (RetryWithVariables) Kind() string     { return "retry_with_variables" }

// LastFailure locates the most recent failed run for a source and
// retries it.
type LastFailure struct{}

func (LastFailure) isRetryStrategy() {}
func (LastFailure) Kind() string     { return "last_failure" }

// NoRetry starts a fresh run, optionally seeded with variables.
type NoRetry struct {
	Variables map[string]any
}

func (NoRetry) isRetryStrategy() {}
func (NoRetry) Kind() string     { return "no_retry" }

// Preview executes without persisting any RunInfo/RunDetails.
type Preview struct{}

func (Preview) isRetryStrategy() {}
func (Preview) Kind() string     { return "preview" }
