package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/edsignal/opportunity-cli/internal/db"
	"github.com/edsignal/opportunity-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS programs (
	id                   BIGSERIAL PRIMARY KEY,
	program_code         TEXT NOT NULL,
	program_title        TEXT NOT NULL,
	credential_level     INT NOT NULL,
	school_name          TEXT NOT NULL,
	school_city          TEXT NOT NULL DEFAULT '',
	school_state         TEXT NOT NULL DEFAULT '',
	region_id            INT,
	tuition_in_state     DOUBLE PRECISION,
	tuition_out_of_state DOUBLE PRECISION,
	net_price_public     DOUBLE PRECISION,
	net_price_private    DOUBLE PRECISION,
	avg_net_price        DOUBLE PRECISION,
	room_board_oncampus  DOUBLE PRECISION,
	room_board_offcampus DOUBLE PRECISION,
	pell_grant_rate      DOUBLE PRECISION,
	federal_loan_rate    DOUBLE PRECISION,
	student_size         INT
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	row_count   INT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_programs_code ON programs(program_code);
CREATE INDEX IF NOT EXISTS idx_programs_credential ON programs(credential_level);
CREATE INDEX IF NOT EXISTS idx_programs_region ON programs(region_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) LoadPrograms(ctx context.Context) ([]model.ProgramRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs ORDER BY id`, strings.Join(programColumns, ", "))

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load programs")
	}
	defer rows.Close()

	var recs []model.ProgramRecord
	for rows.Next() {
		r, err := scanProgram(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan program")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: iterate programs")
}

func (s *PostgresStore) ReplacePrograms(ctx context.Context, recs []model.ProgramRecord) (int, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM programs`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear programs")
	}

	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = programValues(r)
	}

	n, err := db.CopyFrom(ctx, s.pool, "programs", programColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: copy programs")
	}
	return int(n), nil
}

func (s *PostgresStore) CreateIngestRun(ctx context.Context, source string, rowCount int, startedAt time.Time) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:         uuid.New().String(),
		Source:     source,
		RowCount:   rowCount,
		StartedAt:  startedAt.UTC(),
		FinishedAt: time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, source, row_count, started_at, finished_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Source, run.RowCount, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert ingest run")
	}
	return run, nil
}
