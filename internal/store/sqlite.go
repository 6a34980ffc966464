package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/cu-eval/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	label         TEXT NOT NULL DEFAULT '',
	analyzer_id   TEXT NOT NULL,
	mode          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'running',
	documents     INTEGER NOT NULL DEFAULT 0,
	fields_tested INTEGER NOT NULL DEFAULT 0,
	accuracy      REAL NOT NULL DEFAULT 0,
	total_cost    REAL NOT NULL DEFAULT 0,
	report_dir    TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_documents (
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	document       TEXT NOT NULL,
	pages          INTEGER NOT NULL DEFAULT 0,
	input_tokens   INTEGER NOT NULL DEFAULT 0,
	output_tokens  INTEGER NOT NULL DEFAULT 0,
	context_tokens INTEGER NOT NULL DEFAULT 0,
	cost           REAL NOT NULL DEFAULT 0,
	accuracy       REAL,
	PRIMARY KEY (run_id, document)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_analyzer_id ON runs(analyzer_id);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

const runColumns = `id, label, analyzer_id, mode, status, documents, fields_tested, accuracy, total_cost, report_dir, error, created_at, updated_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run model.Run) (*model.Run, error) {
	run.ID = uuid.New().String()
	run.Status = model.RunStatusRunning
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, label, analyzer_id, mode, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Label, run.AnalyzerID, run.Mode, string(run.Status), run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, outcome model.RunOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin complete run")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, documents = ?, fields_tested = ?, accuracy = ?, total_cost = ?, report_dir = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete),
		outcome.Summary.DocumentsAnalyzed,
		outcome.Summary.TotalFieldsTested,
		outcome.Summary.OverallAccuracy,
		outcome.TotalCost,
		outcome.ReportDir,
		time.Now().UTC(),
		runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	if err := checkRowsAffected(res, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_documents (run_id, document, pages, input_tokens, output_tokens, context_tokens, cost, accuracy) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare document insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, d := range outcome.Documents {
		var accuracy sql.NullFloat64
		if d.Accuracy != nil {
			accuracy = sql.NullFloat64{Float64: *d.Accuracy, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, d.Document, d.Pages, d.InputTokens, d.OutputTokens, d.ContextTokens, d.Cost, accuracy); err != nil {
			return eris.Wrapf(err, "sqlite: insert document %s", d.Document)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit complete run")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.AnalyzerID != "" {
		query += ` AND analyzer_id = ?`
		args = append(args, filter.AnalyzerID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, runID string) ([]model.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, document, pages, input_tokens, output_tokens, context_tokens, cost, accuracy
		 FROM run_documents WHERE run_id = ? ORDER BY document`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list documents %s", runID)
	}
	defer rows.Close()

	var docs []model.DocumentRecord
	for rows.Next() {
		var d model.DocumentRecord
		var accuracy sql.NullFloat64
		if err := rows.Scan(&d.RunID, &d.Document, &d.Pages, &d.InputTokens, &d.OutputTokens, &d.ContextTokens, &d.Cost, &accuracy); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		if accuracy.Valid {
			v := accuracy.Float64
			d.Accuracy = &v
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

// helpers

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	err := row.Scan(&r.ID, &r.Label, &r.AnalyzerID, &r.Mode, &r.Status,
		&r.Documents, &r.FieldsTested, &r.Accuracy, &r.TotalCost,
		&r.ReportDir, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
