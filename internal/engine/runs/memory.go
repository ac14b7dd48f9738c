package runs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

type runKey struct {
	project, branch, sourceID string
	runIndex                  int
}

// MemoryStorage is the in-memory reference Storage implementation (tests,
// Preview retries), grounded on the teacher's in-process stores (e.g.
// system/events' pending-queue bookkeeping) kept behind a single mutex
// rather than the Postgres schema's row locking.
type MemoryStorage struct {
	mu       sync.Mutex
	runs     map[runKey]*RunDetails
	nextIdx  map[string]int // keyed by project/branch/sourceID
	lookups  map[string]runKey
}

// NewMemoryStorage builds an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		runs:    make(map[runKey]*RunDetails),
		nextIdx: make(map[string]int),
		lookups: make(map[string]runKey),
	}
}

func indexKey(project, branch, sourceID string) string {
	return project + "\x00" + branch + "\x00" + sourceID
}

func lookupKey(project, branch, lookupID string) string {
	return project + "\x00" + branch + "\x00" + lookupID
}

// NewRun allocates the next dense-unique run_index for (project, branch,
// source_id) and stores a Pending RunInfo.
func (m *MemoryStorage) NewRun(ctx context.Context, project, branch, sourceID string, rootRef *string, variables map[string]any, lookupID *string, userID *string) (RunInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ik := indexKey(project, branch, sourceID)
	idx := m.nextIdx[ik]
	m.nextIdx[ik] = idx + 1

	now := time.Now()
	info := RunInfo{
		Project:   project,
		Branch:    branch,
		SourceID:  sourceID,
		RunIndex:  &idx,
		Status:    StatusPending,
		RootRef:   rootRef,
		LookupID:  lookupID,
		UserID:    userID,
		Variables: variables,
		CreatedAt: now,
		UpdatedAt: now,
	}

	key := runKey{project, branch, sourceID, idx}
	m.runs[key] = &RunDetails{RunInfo: info}
	if lookupID != nil {
		m.lookups[lookupKey(project, branch, *lookupID)] = key
	}
	return info, nil
}

// UpsertRun inserts or replaces a RunInfo, idempotent on
// (source_id, run_index) per spec §4 non-goals note.
func (m *MemoryStorage) UpsertRun(ctx context.Context, run RunInfo) (RunInfo, error) {
	if run.RunIndex == nil {
		return RunInfo{}, enginerr.New(enginerr.ArgumentError, "upsert_run requires a run_index")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := runKey{run.Project, run.Branch, run.SourceID, *run.RunIndex}
	run.UpdatedAt = time.Now()
	if existing, ok := m.runs[key]; ok {
		run.CreatedAt = existing.CreatedAt
		existing.RunInfo = run
	} else {
		run.CreatedAt = run.UpdatedAt
		m.runs[key] = &RunDetails{RunInfo: run}
	}
	if run.LookupID != nil {
		m.lookups[lookupKey(run.Project, run.Branch, *run.LookupID)] = key
	}
	return run, nil
}

// FindRun returns the RunInfo for a specific (project, branch, source_id,
// run_index).
func (m *MemoryStorage) FindRun(ctx context.Context, project, branch, sourceID string, runIndex int) (RunInfo, error) {
	details, err := m.FindRunDetails(ctx, project, branch, sourceID, runIndex)
	if err != nil {
		return RunInfo{}, err
	}
	return details.RunInfo, nil
}

// FindRunDetails returns the full RunDetails, including recorded task
// outputs and any terminal error.
func (m *MemoryStorage) FindRunDetails(ctx context.Context, project, branch, sourceID string, runIndex int) (RunDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := runKey{project, branch, sourceID, runIndex}
	details, ok := m.runs[key]
	if !ok {
		return RunDetails{}, enginerr.New(enginerr.RuntimeError, "run not found").
			WithDetail("source_id", sourceID).WithDetail("run_index", runIndex)
	}
	return cloneDetails(*details), nil
}

// ListRuns returns runs for a source, newest run_index first, paginated.
func (m *MemoryStorage) ListRuns(ctx context.Context, project, branch, sourceID string, page Pagination) ([]RunInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []RunInfo
	for key, details := range m.runs {
		if key.project == project && key.branch == branch && key.sourceID == sourceID {
			matched = append(matched, details.RunInfo)
		}
	}
	sortRunsByIndexDesc(matched)

	limit := page.Limit
	offset := page.Offset
	if offset >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// Lookup resolves a run by its lookup_id.
func (m *MemoryStorage) Lookup(ctx context.Context, project, branch, lookupID string) (RunInfo, error) {
	m.mu.Lock()
	key, ok := m.lookups[lookupKey(project, branch, lookupID)]
	m.mu.Unlock()
	if !ok {
		return RunInfo{}, enginerr.New(enginerr.RuntimeError, "lookup_id not found").WithDetail("lookup_id", lookupID)
	}
	return m.FindRun(ctx, key.project, key.branch, key.sourceID, key.runIndex)
}

// UpdateRunVariables overwrites a run's stored variables.
func (m *MemoryStorage) UpdateRunVariables(ctx context.Context, project, branch, sourceID string, runIndex int, variables map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := runKey{project, branch, sourceID, runIndex}
	details, ok := m.runs[key]
	if !ok {
		return enginerr.New(enginerr.RuntimeError, "run not found").WithDetail("source_id", sourceID)
	}
	details.Variables = variables
	details.UpdatedAt = time.Now()
	return nil
}

// UpdateRunOutput records one task's output within a run, replacing any
// prior output recorded for that task name.
func (m *MemoryStorage) UpdateRunOutput(ctx context.Context, project, branch, sourceID string, runIndex int, taskName string, output any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := runKey{project, branch, sourceID, runIndex}
	details, ok := m.runs[key]
	if !ok {
		return enginerr.New(enginerr.RuntimeError, "run not found").WithDetail("source_id", sourceID)
	}

	for i, o := range details.Outputs {
		if o.TaskName == taskName {
			details.Outputs[i].Output = output
			details.UpdatedAt = time.Now()
			return nil
		}
	}
	details.Outputs = append(details.Outputs, TaskOutput{TaskName: taskName, Output: output})
	details.UpdatedAt = time.Now()
	return nil
}

// DeleteRun removes one run.
func (m *MemoryStorage) DeleteRun(ctx context.Context, project, branch, sourceID string, runIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, runKey{project, branch, sourceID, runIndex})
	return nil
}

// BulkDeleteRuns removes every run whose index is in runIndexes.
func (m *MemoryStorage) BulkDeleteRuns(ctx context.Context, project, branch, sourceID string, runIndexes []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, idx := range runIndexes {
		delete(m.runs, runKey{project, branch, sourceID, idx})
	}
	return nil
}

func cloneDetails(d RunDetails) RunDetails {
	outputs := make([]TaskOutput, len(d.Outputs))
	copy(outputs, d.Outputs)
	d.Outputs = outputs
	return d
}

func sortRunsByIndexDesc(runs []RunInfo) {
	sort.Slice(runs, func(i, j int) bool {
		return indexOf(runs[i]) > indexOf(runs[j])
	})
}

func indexOf(r RunInfo) int {
	if r.RunIndex == nil {
		return -1
	}
	return *r.RunIndex
}

var _ Storage = (*MemoryStorage)(nil)
