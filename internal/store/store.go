// Package store persists the program-centric table behind a
// driver-agnostic interface with SQLite (default) and Postgres backends.
package store

import (
	"context"
	"time"

	"github.com/edsignal/opportunity-cli/internal/model"
)

// Store defines the persistence interface for the program table.
type Store interface {
	// LoadPrograms returns every program row in insertion order.
	LoadPrograms(ctx context.Context) ([]model.ProgramRecord, error)

	// ReplacePrograms swaps the full program table for the given rows
	// and returns the number of rows written.
	ReplacePrograms(ctx context.Context, rows []model.ProgramRecord) (int, error)

	// CreateIngestRun records a completed refresh of the program table.
	CreateIngestRun(ctx context.Context, source string, rowCount int, startedAt time.Time) (*model.IngestRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// programColumns is the column order shared by both backends for
// loading and bulk-inserting program rows.
var programColumns = []string{
	"program_code",
	"program_title",
	"credential_level",
	"school_name",
	"school_city",
	"school_state",
	"region_id",
	"tuition_in_state",
	"tuition_out_of_state",
	"net_price_public",
	"net_price_private",
	"avg_net_price",
	"room_board_oncampus",
	"room_board_offcampus",
	"pell_grant_rate",
	"federal_loan_rate",
	"student_size",
}

// programValues flattens a record into programColumns order.
func programValues(r model.ProgramRecord) []any {
	return []any{
		r.ProgramCode,
		r.ProgramTitle,
		r.CredentialLevel,
		r.SchoolName,
		r.SchoolCity,
		r.SchoolState,
		r.RegionID,
		r.TuitionInState,
		r.TuitionOutOfState,
		r.NetPricePublic,
		r.NetPricePrivate,
		r.AvgNetPrice,
		r.RoomBoardOnCampus,
		r.RoomBoardOffCampus,
		r.PellGrantRate,
		r.FederalLoanRate,
		r.StudentSize,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

// scanProgram scans one row in programColumns order.
func scanProgram(row scannable) (model.ProgramRecord, error) {
	var r model.ProgramRecord
	err := row.Scan(
		&r.ProgramCode,
		&r.ProgramTitle,
		&r.CredentialLevel,
		&r.SchoolName,
		&r.SchoolCity,
		&r.SchoolState,
		&r.RegionID,
		&r.TuitionInState,
		&r.TuitionOutOfState,
		&r.NetPricePublic,
		&r.NetPricePrivate,
		&r.AvgNetPrice,
		&r.RoomBoardOnCampus,
		&r.RoomBoardOffCampus,
		&r.PellGrantRate,
		&r.FederalLoanRate,
		&r.StudentSize,
	)
	return r, err
}
