package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edsignal/opportunity-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRecords() []model.ProgramRecord {
	return []model.ProgramRecord{
		{
			ProgramCode:       "11.0701",
			ProgramTitle:      "Computer Science",
			CredentialLevel:   3,
			SchoolName:        "Alpha College",
			SchoolCity:        "Springfield",
			SchoolState:       "MA",
			RegionID:          iptr(1),
			TuitionInState:    fptr(12000),
			TuitionOutOfState: fptr(28000),
			AvgNetPrice:       fptr(15000),
			RoomBoardOnCampus: fptr(11000),
			PellGrantRate:     fptr(0.35),
			FederalLoanRate:   fptr(0.5),
			StudentSize:       iptr(4200),
		},
		{
			ProgramCode:     "52.0201",
			ProgramTitle:    "Business Administration",
			CredentialLevel: 5,
			SchoolName:      "Beta University",
			SchoolCity:      "Portland",
			SchoolState:     "OR",
			RegionID:        iptr(8),
			NetPricePrivate: fptr(31000),
		},
		{
			// Sparse row: nullable columns all absent.
			ProgramCode:     "26.0101",
			ProgramTitle:    "Biology",
			CredentialLevel: 3,
			SchoolName:      "Gamma College",
		},
	}
}

func TestSQLite_ReplaceAndLoadRoundTrip(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	n, err := st.ReplacePrograms(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := st.LoadPrograms(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Insertion order is preserved.
	assert.Equal(t, "11.0701", got[0].ProgramCode)
	assert.Equal(t, "52.0201", got[1].ProgramCode)
	assert.Equal(t, "26.0101", got[2].ProgramCode)

	require.NotNil(t, got[0].TuitionInState)
	assert.Equal(t, 12000.0, *got[0].TuitionInState)
	require.NotNil(t, got[0].RegionID)
	assert.Equal(t, 1, *got[0].RegionID)

	// Nulls survive the round trip as nils.
	assert.Nil(t, got[2].RegionID)
	assert.Nil(t, got[2].TuitionInState)
	assert.Nil(t, got[2].PellGrantRate)
	assert.Nil(t, got[2].StudentSize)
}

func TestSQLite_ReplaceIsFullSwap(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	_, err := st.ReplacePrograms(ctx, sampleRecords())
	require.NoError(t, err)

	n, err := st.ReplacePrograms(ctx, sampleRecords()[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.LoadPrograms(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_LoadEmptyTable(t *testing.T) {
	st := newTestSQLite(t)
	got, err := st.LoadPrograms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "empty table is a valid load; the engine decides it is unavailable")
}

func TestSQLite_CreateIngestRun(t *testing.T) {
	st := newTestSQLite(t)
	started := time.Now().Add(-time.Minute)

	run, err := st.CreateIngestRun(context.Background(), "college-scorecard", 42, started)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "college-scorecard", run.Source)
	assert.Equal(t, 42, run.RowCount)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}

func TestOpenSQLite_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadPrograms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
