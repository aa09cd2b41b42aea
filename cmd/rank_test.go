package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edsignal/opportunity-cli/internal/engine"
)

func rankedFixture() []engine.RankedProgram {
	top := engine.RankedProgram{
		ProgramRecord:       testRecord("11.0701", 1, 12000),
		CredentialName:      "Bachelor's Degree",
		RegionName:          "New England",
		ResolvedTuition:     fptr(20000),
		AvgNetPriceResolved: 12000,
		AidStrengthScore:    0.52,
		AffordabilityScore:  0.71,
		SupplyGapScore:      0.45,
		OpportunityScore:    0.5880,
	}
	flagged := engine.RankedProgram{
		ProgramRecord:       testRecord("26.0101", 1, 18000),
		CredentialName:      "Bachelor's Degree",
		RegionName:          "New England",
		AvgNetPriceResolved: 18000,
		HousingDiscrepancy:  true,
		HousingPenalty:      0.1,
		OpportunityScore:    0.3120,
	}
	return []engine.RankedProgram{top, flagged}
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, rankedFixture())
	out := buf.String()

	assert.Contains(t, out, "Top 2 Program Opportunities")
	assert.Contains(t, out, " 1. Program 11.0701 (Bachelor's Degree)")
	assert.Contains(t, out, "College 11.0701, Springfield, MA (New England)")
	assert.Contains(t, out, "Opportunity Score: 0.5880")
	assert.Contains(t, out, "Net Price: $12000 | Tuition: $20000")
	assert.Contains(t, out, " 2. Program 26.0101")
	assert.Contains(t, out, "WARNING: off-campus housing cost well above on-campus")
}

func TestRenderReport_NullTuition(t *testing.T) {
	rows := rankedFixture()
	rows[0].ResolvedTuition = nil

	var buf bytes.Buffer
	renderReport(&buf, rows)
	assert.Contains(t, buf.String(), "Tuition: n/a")
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, exportCSV(path, rankedFixture()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two data rows")

	assert.Equal(t, csvHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "11.0701", first[0])
	assert.Equal(t, "Bachelor's Degree", first[2])
	assert.Equal(t, "New England", first[6])
	assert.Equal(t, "12000.000000", first[7])
	assert.Equal(t, "20000.000000", first[8])
	assert.Equal(t, "0.588000", first[12])

	// Null tuition exports as an empty cell.
	assert.Equal(t, "", rows[2][8])
}

func TestExportCSV_BadPath(t *testing.T) {
	err := exportCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), rankedFixture())
	require.Error(t, err)
}
