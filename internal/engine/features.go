package engine

import (
	"math"

	"github.com/edsignal/opportunity-cli/internal/model"
)

// featureRow carries one record plus every derived signal the scoring
// model consumes. Rows are built once per request over the filtered
// subset and never mutated afterwards.
type featureRow struct {
	rec model.ProgramRecord

	resolvedTuition       float64 // NaN when both tuition columns are missing
	avgNetPriceResolved   float64
	scholarshipVolatility float64
	housingDiscrepancy    bool
	programSupplyGap      float64
	netPriceNorm          float64
	tuitionNorm           float64
	pellGrantRate         float64 // subset-mean imputed
	federalLoanRateNorm   float64
	studentSizeNorm       float64
}

// densityKey groups rows for the regional program density count.
type densityKey struct {
	code   string
	region int
}

// buildFeatures derives every per-record and per-group signal for the
// given subset, in dependency order. Grouped statistics (density,
// imputation means and medians, min-max ranges) are always computed
// over this subset, never the full corpus, so results stay scoped to
// the request.
func buildFeatures(recs []model.ProgramRecord) []featureRow {
	n := len(recs)
	rows := make([]featureRow, n)

	// Tuition resolution: in-state, falling back to out-of-state.
	resolvedTuition := make([]float64, n)
	for i, r := range recs {
		rows[i].rec = r
		switch {
		case r.TuitionInState != nil:
			resolvedTuition[i] = *r.TuitionInState
		case r.TuitionOutOfState != nil:
			resolvedTuition[i] = *r.TuitionOutOfState
		default:
			resolvedTuition[i] = math.NaN()
		}
	}

	// Net price resolution: combined, then public, then private, then
	// the median of the values already resolved in this subset. A fully
	// unresolvable subset medians to 0 rather than erroring.
	netPrice := make([]float64, n)
	for i, r := range recs {
		switch {
		case r.AvgNetPrice != nil:
			netPrice[i] = *r.AvgNetPrice
		case r.NetPricePublic != nil:
			netPrice[i] = *r.NetPricePublic
		case r.NetPricePrivate != nil:
			netPrice[i] = *r.NetPricePrivate
		default:
			netPrice[i] = math.NaN()
		}
	}
	netPriceMedian := medianValid(netPrice)
	if math.IsNaN(netPriceMedian) {
		netPriceMedian = 0
	}
	netPrice = fillMissing(netPrice, netPriceMedian)

	// Regional program density: rows sharing (program_code, region_id).
	// One accumulator pass, then a join back by index; rows without a
	// region carry a missing density and normalize to neutral.
	density := make([]float64, n)
	counts := make(map[densityKey]int, n)
	for _, r := range recs {
		if r.RegionID != nil {
			counts[densityKey{code: r.ProgramCode, region: *r.RegionID}]++
		}
	}
	for i, r := range recs {
		if r.RegionID == nil {
			density[i] = math.NaN()
			continue
		}
		density[i] = float64(counts[densityKey{code: r.ProgramCode, region: *r.RegionID}])
	}
	densityNorm := minMaxNorm(density)

	// Column normalizations over the subset.
	netPriceNorm := minMaxNorm(netPrice)
	tuitionNorm := minMaxNorm(resolvedTuition)

	// Aid and scale imputation: subset mean for the rates, subset
	// median for student size; a fully missing column imputes to 0.
	pell := make([]float64, n)
	loan := make([]float64, n)
	size := make([]float64, n)
	for i, r := range recs {
		pell[i] = orNaN(r.PellGrantRate)
		loan[i] = orNaN(r.FederalLoanRate)
		size[i] = intOrNaN(r.StudentSize)
	}
	pellMean := meanValid(pell)
	if math.IsNaN(pellMean) {
		pellMean = 0
	}
	pell = fillMissing(pell, pellMean)

	loanMean := meanValid(loan)
	if math.IsNaN(loanMean) {
		loanMean = 0
	}
	loanNorm := minMaxNorm(fillMissing(loan, loanMean))

	sizeMedian := medianValid(size)
	if math.IsNaN(sizeMedian) {
		sizeMedian = 0
	}
	sizeNorm := minMaxNorm(fillMissing(size, sizeMedian))

	for i, r := range recs {
		rows[i].resolvedTuition = resolvedTuition[i]
		rows[i].avgNetPriceResolved = netPrice[i]
		rows[i].scholarshipVolatility = volatility(resolvedTuition[i], netPrice[i])
		rows[i].housingDiscrepancy = housingDiscrepancy(r)
		rows[i].programSupplyGap = 1 - densityNorm[i]
		rows[i].netPriceNorm = netPriceNorm[i]
		rows[i].tuitionNorm = tuitionNorm[i]
		rows[i].pellGrantRate = pell[i]
		rows[i].federalLoanRateNorm = loanNorm[i]
		rows[i].studentSizeNorm = sizeNorm[i]
	}
	return rows
}

// volatility is (tuition - net price) / tuition with division-by-zero,
// infinities, and NaN all clipped to 0: no signal rather than an error.
func volatility(tuition, netPrice float64) float64 {
	v := (tuition - netPrice) / tuition
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// housingDiscrepancy flags on-campus room and board running more than
// 20% above the off-campus estimate. Missing inputs mean no flag.
func housingDiscrepancy(r model.ProgramRecord) bool {
	if r.RoomBoardOnCampus == nil || r.RoomBoardOffCampus == nil {
		return false
	}
	on := *r.RoomBoardOnCampus
	off := *r.RoomBoardOffCampus
	return on-off > 0.2*on
}
