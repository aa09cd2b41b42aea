// Package engine implements the program opportunity scoring pipeline:
// load, filter, derive features, score, rank.
package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/edsignal/opportunity-cli/internal/model"
)

// Source supplies the full program table. The store satisfies it.
type Source interface {
	LoadPrograms(ctx context.Context) ([]model.ProgramRecord, error)
}

// RankedProgram is one scored row of a ranking result. The embedded
// raw record is immutable; the derived fields are written exactly once
// per request.
type RankedProgram struct {
	model.ProgramRecord

	CredentialName string `json:"credential_name"`
	RegionName     string `json:"region_name"`

	ResolvedTuition       *float64 `json:"resolved_tuition"`
	AvgNetPriceResolved   float64  `json:"avg_net_price_resolved"`
	ScholarshipVolatility float64  `json:"scholarship_volatility"`
	HousingDiscrepancy    bool     `json:"housing_discrepancy_flag"`
	ProgramSupplyGap      float64  `json:"program_supply_gap"`
	NetPriceNorm          float64  `json:"net_price_norm"`
	TuitionNorm           float64  `json:"tuition_norm"`

	AidStrengthScore     float64 `json:"aid_strength_score"`
	AffordabilityScore   float64 `json:"affordability_score"`
	ScalePreferenceScore float64 `json:"scale_preference_score"`
	SupplyGapScore       float64 `json:"supply_gap_score"`
	HousingPenalty       float64 `json:"housing_penalty"`
	OpportunityScore     float64 `json:"program_opportunity_score"`
}

// Engine ranks program opportunities over a read-only snapshot of the
// program table. The snapshot is loaded once and reused across
// requests; Refresh re-reads the source. Each ranking request works on
// its own filtered copy, so concurrent requests need no coordination
// beyond the snapshot swap lock.
type Engine struct {
	src     Source
	weights Weights

	mu       sync.RWMutex
	programs []model.ProgramRecord
}

// New creates an Engine. Call Load before the first ranking request.
func New(src Source, weights Weights) *Engine {
	return &Engine{src: src, weights: weights}
}

// Load materializes the program table into memory. A missing or empty
// source fails with ErrDataUnavailable.
func (e *Engine) Load(ctx context.Context) error {
	recs, err := e.src.LoadPrograms(ctx)
	if err != nil {
		return eris.Wrapf(ErrDataUnavailable, "load programs: %v", err)
	}
	if len(recs) == 0 {
		return eris.Wrap(ErrDataUnavailable, "programs table is empty")
	}

	e.mu.Lock()
	e.programs = recs
	e.mu.Unlock()

	zap.L().Info("program table loaded", zap.Int("rows", len(recs)))
	return nil
}

// Refresh invalidates the cached snapshot and re-reads the source.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.Load(ctx)
}

// snapshot returns the current read-only program slice.
func (e *Engine) snapshot() []model.ProgramRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.programs
}

// Rank runs one synchronous ranking request: validate filters, narrow
// the snapshot, derive features over that subset, apply the net-price
// ceiling, score, sort, and truncate to top-k. An empty result is a
// valid "no match" outcome, not an error.
func (e *Engine) Rank(ctx context.Context, f Filters) ([]RankedProgram, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	corpus := e.snapshot()
	if len(corpus) == 0 {
		return nil, eris.Wrap(ErrDataUnavailable, "no program snapshot loaded")
	}

	log := zap.L().With(zap.Int("corpus", len(corpus)))

	subset := applyRowFilters(corpus, f)
	if len(subset) == 0 {
		log.Debug("no rows survived row filters")
		return []RankedProgram{}, nil
	}

	rows := buildFeatures(subset)

	// Net-price ceiling runs after feature resolution so the fallback
	// chain (combined -> public -> private -> subset median) decides
	// each row's comparable price.
	if f.MaxNetPrice != nil {
		kept := rows[:0]
		for _, row := range rows {
			if row.avgNetPriceResolved <= *f.MaxNetPrice {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	if len(rows) == 0 {
		log.Debug("no rows survived net-price ceiling")
		return []RankedProgram{}, nil
	}

	ranked := make([]RankedProgram, len(rows))
	for i, row := range rows {
		ranked[i] = score(row, e.weights)
	}

	// Stable sort: ties keep original row order. This is a documented
	// contract, re-running a request must reproduce the ordering.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OpportunityScore > ranked[j].OpportunityScore
	})

	if limit := f.limit(); len(ranked) > limit {
		ranked = ranked[:limit]
	}

	log.Debug("ranking complete",
		zap.Int("subset", len(subset)),
		zap.Int("returned", len(ranked)),
	)
	return ranked, nil
}
