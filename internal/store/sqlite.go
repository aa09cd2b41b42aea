package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/edsignal/opportunity-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) a SQLite database at the
// given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens an existing SQLite database, failing if the file is
// missing rather than silently creating an empty one. Ranking reads go
// through this path so a never-ingested cache surfaces as missing data.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "sqlite: database not found at %s (run 'opportunity-cli ingest' first)", path)
	}
	return NewSQLite(path)
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS programs (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	program_code         TEXT NOT NULL,
	program_title        TEXT NOT NULL,
	credential_level     INTEGER NOT NULL,
	school_name          TEXT NOT NULL,
	school_city          TEXT NOT NULL DEFAULT '',
	school_state         TEXT NOT NULL DEFAULT '',
	region_id            INTEGER,
	tuition_in_state     REAL,
	tuition_out_of_state REAL,
	net_price_public     REAL,
	net_price_private    REAL,
	avg_net_price        REAL,
	room_board_oncampus  REAL,
	room_board_offcampus REAL,
	pell_grant_rate      REAL,
	federal_loan_rate    REAL,
	student_size         INTEGER
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	row_count   INTEGER NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_programs_code ON programs(program_code);
CREATE INDEX IF NOT EXISTS idx_programs_credential ON programs(credential_level);
CREATE INDEX IF NOT EXISTS idx_programs_region ON programs(region_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadPrograms(ctx context.Context) ([]model.ProgramRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs ORDER BY id`, strings.Join(programColumns, ", "))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load programs")
	}
	defer rows.Close()

	var recs []model.ProgramRecord
	for rows.Next() {
		r, err := scanProgram(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan program")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: iterate programs")
}

func (s *SQLiteStore) ReplacePrograms(ctx context.Context, recs []model.ProgramRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM programs`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear programs")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(programColumns)), ", ")
	insert := fmt.Sprintf(`INSERT INTO programs (%s) VALUES (%s)`,
		strings.Join(programColumns, ", "), placeholders)

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range recs {
		if _, err := stmt.ExecContext(ctx, programValues(r)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert program %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace")
	}
	return len(recs), nil
}

func (s *SQLiteStore) CreateIngestRun(ctx context.Context, source string, rowCount int, startedAt time.Time) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:         uuid.New().String(),
		Source:     source,
		RowCount:   rowCount,
		StartedAt:  startedAt.UTC(),
		FinishedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source, row_count, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.RowCount, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert ingest run")
	}
	return run, nil
}
