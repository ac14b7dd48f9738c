package runs

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStorage(db), mock
}

func TestPostgresNewRunAllocatesIndexAndInserts(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(run_index\), -1\) \+ 1`).
		WithArgs("proj", "main", "src").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO engine_runs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT project, branch, source_id, run_index, status, root_ref, replay_ref, lookup_id, user_id, variables, error, created_at, updated_at\s+FROM engine_runs\s+WHERE project = \$1 AND branch = \$2 AND source_id = \$3 AND run_index = \$4`).
		WithArgs("proj", "main", "src", 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"project", "branch", "source_id", "run_index", "status", "root_ref", "replay_ref", "lookup_id", "user_id", "variables", "error", "created_at", "updated_at",
		}).AddRow("proj", "main", "src", 0, string(StatusPending), nil, nil, nil, nil, nil, nil, nil, nil))

	run, err := store.NewRun(ctx, "proj", "main", "src", nil, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, run.RunIndex)
	assert.Equal(t, 0, *run.RunIndex)
	assert.Equal(t, StatusPending, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertRunRequiresRunIndex(t *testing.T) {
	store, mock := newMockStorage(t)

	_, err := store.UpsertRun(context.Background(), RunInfo{Project: "proj", Branch: "main", SourceID: "src"})
	assert.Error(t, err, "expected an error for a missing run_index")
	assert.NoError(t, mock.ExpectationsWereMet(), "expected no queries issued before validating run_index")
}

func TestPostgresUpsertRunUpsertsThenReloads(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()
	idx := 3

	mock.ExpectExec(`INSERT INTO engine_runs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT project, branch, source_id, run_index, status, root_ref, replay_ref, lookup_id, user_id, variables, error, created_at, updated_at`).
		WithArgs("proj", "main", "src", idx).
		WillReturnRows(sqlmock.NewRows([]string{
			"project", "branch", "source_id", "run_index", "status", "root_ref", "replay_ref", "lookup_id", "user_id", "variables", "error", "created_at", "updated_at",
		}).AddRow("proj", "main", "src", idx, string(StatusCompleted), nil, nil, nil, nil, nil, nil, nil, nil))

	updated, err := store.UpsertRun(ctx, RunInfo{Project: "proj", Branch: "main", SourceID: "src", RunIndex: &idx, Status: StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindRunWrapsDriverError(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery(`SELECT project, branch, source_id, run_index, status, root_ref, replay_ref, lookup_id, user_id, variables, error, created_at, updated_at`).
		WithArgs("proj", "main", "missing", 0).
		WillReturnError(sqlmock.ErrCancelled)

	_, err := store.FindRun(context.Background(), "proj", "main", "missing", 0)
	assert.Error(t, err, "expected the driver error to surface")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteRunIssuesDelete(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectExec(`DELETE FROM engine_runs`).
		WithArgs("proj", "main", "src", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteRun(context.Background(), "proj", "main", "src", 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRunOutputMarshalsAndUpserts(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectExec(`INSERT INTO engine_run_outputs`).
		WithArgs("proj", "main", "src", 1, "task-a", `{"value":1}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.UpdateRunOutput(context.Background(), "proj", "main", "src", 1, "task-a", map[string]any{"value": 1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
