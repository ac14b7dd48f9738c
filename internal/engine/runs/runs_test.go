package runs

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

func TestNewRunAllocatesDenseUniqueIndexesPerSource(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	first, err := store.NewRun(ctx, "proj", "main", "src-a", nil, nil, nil, nil)
	require.NoError(t, err)
	second, err := store.NewRun(ctx, "proj", "main", "src-a", nil, nil, nil, nil)
	require.NoError(t, err)
	other, err := store.NewRun(ctx, "proj", "main", "src-b", nil, nil, nil, nil)
	require.NoError(t, err)

	require.NotNil(t, first.RunIndex)
	require.NotNil(t, second.RunIndex)
	require.NotNil(t, other.RunIndex)
	assert.Equal(t, 0, *first.RunIndex)
	assert.Equal(t, 1, *second.RunIndex)
	assert.Equal(t, 0, *other.RunIndex, "expected a distinct source to start at 0")
	assert.Equal(t, StatusPending, first.Status, "expected new runs to start Pending")
}

func TestNewRunAllocatesDistinctIndexesConcurrently(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	indexes := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, nil, nil)
			errs[i] = err
			if err == nil {
				indexes[i] = *info.RunIndex
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i, err := range errs {
		require.NoError(t, err)
		idx := indexes[i]
		require.False(t, seen[idx], "run_index %d allocated more than once", idx)
		seen[idx] = true
	}
	for i := 0; i < n; i++ {
		assert.True(t, seen[i], "expected contiguous indexes 0..%d, missing %d", n-1, i)
	}
}

func TestUpsertRunIsIdempotentOnSourceAndIndex(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	run, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, nil, nil)
	require.NoError(t, err)

	run.Status = StatusRunning
	_, err = store.UpsertRun(ctx, run)
	require.NoError(t, err)
	run.Status = StatusCompleted
	updated, err := store.UpsertRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	found, err := store.FindRun(ctx, "proj", "main", "src", *run.RunIndex)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, found.Status, "expected persisted status Completed")
}

func TestUpsertRunRequiresRunIndex(t *testing.T) {
	store := NewMemoryStorage()
	_, err := store.UpsertRun(context.Background(), RunInfo{Project: "proj", Branch: "main", SourceID: "src"})
	require.Error(t, err, "expected an error for a missing run_index")
	assert.Equal(t, enginerr.ArgumentError, enginerr.Kind(err))
}

func TestFindRunReturnsErrorWhenMissing(t *testing.T) {
	store := NewMemoryStorage()
	_, err := store.FindRun(context.Background(), "proj", "main", "missing", 0)
	assert.Error(t, err, "expected an error for a missing run")
}

func TestFindRunDetailsIncludesOutputsAndError(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	run, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateRunOutput(ctx, "proj", "main", "src", *run.RunIndex, "task-a", map[string]any{"value": 1}))

	details, err := store.FindRunDetails(ctx, "proj", "main", "src", *run.RunIndex)
	require.NoError(t, err)
	require.Len(t, details.Outputs, 1)
	assert.Equal(t, "task-a", details.Outputs[0].TaskName)
}

func TestUpdateRunOutputOverwritesSameTaskName(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	run, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateRunOutput(ctx, "proj", "main", "src", *run.RunIndex, "task-a", "first"))
	require.NoError(t, store.UpdateRunOutput(ctx, "proj", "main", "src", *run.RunIndex, "task-a", "second"))

	details, err := store.FindRunDetails(ctx, "proj", "main", "src", *run.RunIndex)
	require.NoError(t, err)
	require.Len(t, details.Outputs, 1, "expected the overwrite to reuse one slot")
	assert.Equal(t, "second", details.Outputs[0].Output)
}

func TestListRunsOrdersDescendingAndPaginates(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, nil, nil)
		require.NoError(t, err)
	}

	page, err := store.ListRuns(ctx, "proj", "main", "src", Pagination{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 3, *page[0].RunIndex)
	assert.Equal(t, 2, *page[1].RunIndex)
}

func TestLookupResolvesByLookupID(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()
	lookupID := "ext-123"

	run, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, &lookupID, nil)
	require.NoError(t, err)

	found, err := store.Lookup(ctx, "proj", "main", lookupID)
	require.NoError(t, err)
	assert.Equal(t, *run.RunIndex, *found.RunIndex)

	_, err = store.Lookup(ctx, "proj", "main", "does-not-exist")
	assert.Error(t, err, "expected an error for an unknown lookup_id")
}

func TestUpdateRunVariablesOverwrites(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	run, err := store.NewRun(ctx, "proj", "main", "src", nil, map[string]any{"a": 1}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateRunVariables(ctx, "proj", "main", "src", *run.RunIndex, map[string]any{"b": 2}))

	found, err := store.FindRun(ctx, "proj", "main", "src", *run.RunIndex)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Variables["b"])
	assert.Nil(t, found.Variables["a"], "expected variables to be replaced wholesale")
}

func TestDeleteRunAndBulkDeleteRuns(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	var indexes []int
	for i := 0; i < 3; i++ {
		run, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, nil, nil)
		require.NoError(t, err)
		indexes = append(indexes, *run.RunIndex)
	}

	require.NoError(t, store.DeleteRun(ctx, "proj", "main", "src", indexes[0]))
	_, err := store.FindRun(ctx, "proj", "main", "src", indexes[0])
	assert.Error(t, err, "expected deleted run to be gone")

	require.NoError(t, store.BulkDeleteRuns(ctx, "proj", "main", "src", indexes[1:]))
	remaining, err := store.ListRuns(ctx, "proj", "main", "src", Pagination{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, remaining, "expected no runs left")
}

func TestReplayIDComposesDottedPathFromParent(t *testing.T) {
	parent := "root.child"
	assert.Equal(t, "root.child.grandchild", ReplayID(&parent, "grandchild"))
	assert.Equal(t, "root", ReplayID(nil, "root"), "expected childID unchanged when there is no parent")
	empty := ""
	assert.Equal(t, "root", ReplayID(&empty, "root"), "expected childID unchanged for an empty parent ReplayRef")
}

func TestRetryStrategyKindDiscriminants(t *testing.T) {
	replayID := "r1"
	cases := []struct {
		strategy RetryStrategy
		want     string
	}{
		{Retry{ReplayID: &replayID, RunIndex: 2}, "retry"},
		{RetryWithVariables{ReplayID: &replayID, RunIndex: 2, Variables: map[string]any{"x": 1}}, "retry_with_variables"},
		{LastFailure{}, "last_failure"},
		{NoRetry{Variables: map[string]any{"x": 1}}, "no_retry"},
		{Preview{}, "preview"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.strategy.Kind())
	}
}
