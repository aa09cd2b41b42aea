package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_Migrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS programs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadPrograms(t *testing.T) {
	st, mock := newMockStore(t)

	rows := pgxmock.NewRows(programColumns).
		AddRow("11.0701", "Computer Science", 3, "Alpha College", "Springfield", "MA",
			iptr(1), fptr(12000), fptr(28000), nil, nil, fptr(15000),
			fptr(11000), nil, fptr(0.35), fptr(0.5), iptr(4200)).
		AddRow("26.0101", "Biology", 3, "Gamma College", "", "",
			nil, nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM programs ORDER BY id").WillReturnRows(rows)

	got, err := st.LoadPrograms(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "11.0701", got[0].ProgramCode)
	require.NotNil(t, got[0].AvgNetPrice)
	assert.Equal(t, 15000.0, *got[0].AvgNetPrice)

	assert.Nil(t, got[1].RegionID)
	assert.Nil(t, got[1].TuitionInState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadPrograms_QueryError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM programs").WillReturnError(assert.AnError)

	_, err := st.LoadPrograms(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplacePrograms(t *testing.T) {
	st, mock := newMockStore(t)
	recs := sampleRecords()

	mock.ExpectExec("DELETE FROM programs").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"programs"}, programColumns).
		WillReturnResult(int64(len(recs)))

	n, err := st.ReplacePrograms(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, len(recs), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplacePrograms_EmptySkipsCopy(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM programs").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := st.ReplacePrograms(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateIngestRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO ingest_runs").
		WithArgs(pgxmock.AnyArg(), "college-scorecard", 42, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.CreateIngestRun(context.Background(), "college-scorecard", 42, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 42, run.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
