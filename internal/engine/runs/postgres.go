package runs

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// PostgresStorage implements Storage against the engine_runs/
// engine_run_outputs tables (migrations/0001_runs.up.sql), grounded on
// the teacher's transactional insert-then-children pattern
// (applications/jam/store_pg.go EnqueuePackage) and its null-handling
// helpers (system/framework/core/sql.go ToNullString), using
// jmoiron/sqlx for the Get/Select/NamedExec convenience the teacher's
// raw database/sql call sites don't have.
type PostgresStorage struct {
	db *sqlx.DB
}

// NewPostgresStorage wraps an already-open *sql.DB. Call Migrate(db)
// once at startup before constructing a PostgresStorage.
func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: sqlx.NewDb(db, "postgres")}
}

type runRow struct {
	Project   string         `db:"project"`
	Branch    string         `db:"branch"`
	SourceID  string         `db:"source_id"`
	RunIndex  int            `db:"run_index"`
	Status    string         `db:"status"`
	RootRef   sql.NullString `db:"root_ref"`
	ReplayRef sql.NullString `db:"replay_ref"`
	LookupID  sql.NullString `db:"lookup_id"`
	UserID    sql.NullString `db:"user_id"`
	Variables sql.NullString `db:"variables"`
	Error     sql.NullString `db:"error"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}

func (r runRow) toRunInfo() (RunInfo, error) {
	info := RunInfo{
		Project:   r.Project,
		Branch:    r.Branch,
		SourceID:  r.SourceID,
		RunIndex:  intPtr(r.RunIndex),
		Status:    Status(r.Status),
		RootRef:   nullStringPtr(r.RootRef),
		ReplayRef: nullStringPtr(r.ReplayRef),
		LookupID:  nullStringPtr(r.LookupID),
		UserID:    nullStringPtr(r.UserID),
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
	if r.Variables.Valid && r.Variables.String != "" {
		if err := json.Unmarshal([]byte(r.Variables.String), &info.Variables); err != nil {
			return RunInfo{}, enginerr.Wrap(enginerr.SerializerError, "decoding run variables", err)
		}
	}
	return info, nil
}

func intPtr(i int) *int { return &i }

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func marshalVariables(variables map[string]any) (sql.NullString, error) {
	if variables == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(variables)
	if err != nil {
		return sql.NullString{}, enginerr.Wrap(enginerr.SerializerError, "encoding run variables", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// NewRun allocates the next dense-unique run_index by taking
// max(run_index)+1 after locking the source's existing rows with
// FOR UPDATE inside the transaction, then inserts the new row.
func (p *PostgresStorage) NewRun(ctx context.Context, project, branch, sourceID string, rootRef *string, variables map[string]any, lookupID *string, userID *string) (RunInfo, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return RunInfo{}, enginerr.Wrap(enginerr.DBError, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var nextIndex int
	err = tx.GetContext(ctx, &nextIndex, `
		SELECT COALESCE(MAX(run_index), -1) + 1
		FROM (
			SELECT run_index FROM engine_runs
			WHERE project = $1 AND branch = $2 AND source_id = $3
			FOR UPDATE
		) AS locked
	`, project, branch, sourceID)
	if err != nil {
		return RunInfo{}, enginerr.Wrap(enginerr.DBError, "allocating run_index", err)
	}

	varsCol, err := marshalVariables(variables)
	if err != nil {
		return RunInfo{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO engine_runs
			(project, branch, source_id, run_index, status, root_ref, lookup_id, user_id, variables)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, project, branch, sourceID, nextIndex, string(StatusPending), toNullString(rootRef), toNullString(lookupID), toNullString(userID), varsCol)
	if err != nil {
		return RunInfo{}, enginerr.Wrap(enginerr.DBError, "inserting run", err)
	}

	if err := tx.Commit(); err != nil {
		return RunInfo{}, enginerr.Wrap(enginerr.DBError, "commit new run", err)
	}

	return p.FindRun(ctx, project, branch, sourceID, nextIndex)
}

// UpsertRun is idempotent on (source_id, run_index) via ON CONFLICT.
func (p *PostgresStorage) UpsertRun(ctx context.Context, run RunInfo) (RunInfo, error) {
	if run.RunIndex == nil {
		return RunInfo{}, enginerr.New(enginerr.ArgumentError, "upsert_run requires a run_index")
	}
	varsCol, err := marshalVariables(run.Variables)
	if err != nil {
		return RunInfo{}, err
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO engine_runs
			(project, branch, source_id, run_index, status, root_ref, replay_ref, lookup_id, user_id, variables, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (project, branch, source_id, run_index) DO UPDATE SET
			status = EXCLUDED.status,
			root_ref = EXCLUDED.root_ref,
			replay_ref = EXCLUDED.replay_ref,
			lookup_id = EXCLUDED.lookup_id,
			user_id = EXCLUDED.user_id,
			variables = EXCLUDED.variables,
			updated_at = now()
	`, run.Project, run.Branch, run.SourceID, *run.RunIndex, string(run.Status),
		toNullString(run.RootRef), toNullString(run.ReplayRef), toNullString(run.LookupID), toNullString(run.UserID), varsCol)
	if err != nil {
		return RunInfo{}, enginerr.Wrap(enginerr.DBError, "upserting run", err)
	}

	return p.FindRun(ctx, run.Project, run.Branch, run.SourceID, *run.RunIndex)
}

// FindRun returns one run's RunInfo.
func (p *PostgresStorage) FindRun(ctx context.Context, project, branch, sourceID string, runIndex int) (RunInfo, error) {
	var row runRow
	err := p.db.GetContext(ctx, &row, `
		SELECT project, branch, source_id, run_index, status, root_ref, replay_ref, lookup_id, user_id, variables, error, created_at, updated_at
		FROM engine_runs
		WHERE project = $1 AND branch = $2 AND source_id = $3 AND run_index = $4
	`, project, branch, sourceID, runIndex)
	if err != nil {
		return RunInfo{}, enginerr.Wrap(enginerr.DBError, "finding run", err)
	}
	return row.toRunInfo()
}

// FindRunDetails returns a run plus its recorded task outputs.
func (p *PostgresStorage) FindRunDetails(ctx context.Context, project, branch, sourceID string, runIndex int) (RunDetails, error) {
	info, err := p.FindRun(ctx, project, branch, sourceID, runIndex)
	if err != nil {
		return RunDetails{}, err
	}

	var row runRow
	if err := p.db.GetContext(ctx, &row, `
		SELECT error FROM engine_runs
		WHERE project = $1 AND branch = $2 AND source_id = $3 AND run_index = $4
	`, project, branch, sourceID, runIndex); err != nil {
		return RunDetails{}, enginerr.Wrap(enginerr.DBError, "finding run error column", err)
	}

	rows, err := p.db.QueryxContext(ctx, `
		SELECT task_name, output FROM engine_run_outputs
		WHERE project = $1 AND branch = $2 AND source_id = $3 AND run_index = $4
		ORDER BY task_name
	`, project, branch, sourceID, runIndex)
	if err != nil {
		return RunDetails{}, enginerr.Wrap(enginerr.DBError, "listing run outputs", err)
	}
	defer rows.Close()

	var outputs []TaskOutput
	for rows.Next() {
		var taskName string
		var outputJSON sql.NullString
		if err := rows.Scan(&taskName, &outputJSON); err != nil {
			return RunDetails{}, enginerr.Wrap(enginerr.DBError, "scanning run output row", err)
		}
		var decoded any
		if outputJSON.Valid && outputJSON.String != "" {
			if err := json.Unmarshal([]byte(outputJSON.String), &decoded); err != nil {
				return RunDetails{}, enginerr.Wrap(enginerr.SerializerError, "decoding run output", err)
			}
		}
		outputs = append(outputs, TaskOutput{TaskName: taskName, Output: decoded})
	}

	return RunDetails{RunInfo: info, Outputs: outputs, Error: row.Error.String}, nil
}

// ListRuns pages through runs for a source, newest run_index first.
func (p *PostgresStorage) ListRuns(ctx context.Context, project, branch, sourceID string, page Pagination) ([]RunInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []runRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT project, branch, source_id, run_index, status, root_ref, replay_ref, lookup_id, user_id, variables, error, created_at, updated_at
		FROM engine_runs
		WHERE project = $1 AND branch = $2 AND source_id = $3
		ORDER BY run_index DESC
		LIMIT $4 OFFSET $5
	`, project, branch, sourceID, limit, page.Offset)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.DBError, "listing runs", err)
	}

	infos := make([]RunInfo, len(rows))
	for i, r := range rows {
		info, err := r.toRunInfo()
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}
	return infos, nil
}

// Lookup resolves a run by lookup_id.
func (p *PostgresStorage) Lookup(ctx context.Context, project, branch, lookupID string) (RunInfo, error) {
	var row runRow
	err := p.db.GetContext(ctx, &row, `
		SELECT project, branch, source_id, run_index, status, root_ref, replay_ref, lookup_id, user_id, variables, error, created_at, updated_at
		FROM engine_runs
		WHERE project = $1 AND branch = $2 AND lookup_id = $3
	`, project, branch, lookupID)
	if err != nil {
		return RunInfo{}, enginerr.Wrap(enginerr.DBError, "looking up run", err)
	}
	return row.toRunInfo()
}

// UpdateRunVariables overwrites a run's stored variables.
func (p *PostgresStorage) UpdateRunVariables(ctx context.Context, project, branch, sourceID string, runIndex int, variables map[string]any) error {
	varsCol, err := marshalVariables(variables)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		UPDATE engine_runs SET variables = $5, updated_at = now()
		WHERE project = $1 AND branch = $2 AND source_id = $3 AND run_index = $4
	`, project, branch, sourceID, runIndex, varsCol)
	if err != nil {
		return enginerr.Wrap(enginerr.DBError, "updating run variables", err)
	}
	return nil
}

// UpdateRunOutput records one task's output within a run, upserting on
// (source_id, run_index, task_name).
func (p *PostgresStorage) UpdateRunOutput(ctx context.Context, project, branch, sourceID string, runIndex int, taskName string, output any) error {
	b, err := json.Marshal(output)
	if err != nil {
		return enginerr.Wrap(enginerr.SerializerError, "encoding run output", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO engine_run_outputs (project, branch, source_id, run_index, task_name, output)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project, branch, source_id, run_index, task_name) DO UPDATE SET
			output = EXCLUDED.output,
			updated_at = now()
	`, project, branch, sourceID, runIndex, taskName, string(b))
	if err != nil {
		return enginerr.Wrap(enginerr.DBError, "updating run output", err)
	}
	return nil
}

// DeleteRun removes one run (cascading to its outputs).
func (p *PostgresStorage) DeleteRun(ctx context.Context, project, branch, sourceID string, runIndex int) error {
	_, err := p.db.ExecContext(ctx, `
		DELETE FROM engine_runs
		WHERE project = $1 AND branch = $2 AND source_id = $3 AND run_index = $4
	`, project, branch, sourceID, runIndex)
	if err != nil {
		return enginerr.Wrap(enginerr.DBError, "deleting run", err)
	}
	return nil
}

// BulkDeleteRuns removes every run whose index is in runIndexes.
func (p *PostgresStorage) BulkDeleteRuns(ctx context.Context, project, branch, sourceID string, runIndexes []int) error {
	if len(runIndexes) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		DELETE FROM engine_runs
		WHERE project = ? AND branch = ? AND source_id = ? AND run_index IN (?)
	`, project, branch, sourceID, runIndexes)
	if err != nil {
		return enginerr.Wrap(enginerr.DBError, "building bulk delete query", err)
	}
	query = p.db.Rebind(query)

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return enginerr.Wrap(enginerr.DBError, "bulk deleting runs", err)
	}
	return nil
}

var _ Storage = (*PostgresStorage)(nil)
