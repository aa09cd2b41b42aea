package engine

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights is the single configuration structure for the composite
// scoring formula. Each component group blends to a unit weight so the
// component scores stay in [0,1]; the final opportunity score is the
// weighted blend minus the housing penalty, which can push it as low
// as -HousingPenalty. Substituting alternative weightings requires no
// code changes (see LoadWeights).
type Weights struct {
	// aid_strength = AidPell*pell + AidLoan*(1 - loan_norm)
	AidPell float64 `yaml:"aid_pell"`
	AidLoan float64 `yaml:"aid_loan"`

	// affordability = AffordNetPrice*(1-net_price_norm) +
	// AffordVolatility*volatility + AffordTuition*(1-tuition_norm)
	AffordNetPrice   float64 `yaml:"afford_net_price"`
	AffordVolatility float64 `yaml:"afford_volatility"`
	AffordTuition    float64 `yaml:"afford_tuition"`

	// supply_gap = SupplyGap*program_supply_gap + SupplyScale*scale_preference
	SupplyGap   float64 `yaml:"supply_gap"`
	SupplyScale float64 `yaml:"supply_scale"`

	// opportunity = FinalAffordability*affordability + FinalAid*aid +
	// FinalSupply*supply_gap - housing penalty
	FinalAffordability float64 `yaml:"final_affordability"`
	FinalAid           float64 `yaml:"final_aid"`
	FinalSupply        float64 `yaml:"final_supply"`

	// HousingPenalty is subtracted when the housing discrepancy flag is set.
	HousingPenalty float64 `yaml:"housing_penalty"`
}

// DefaultWeights returns the reference weighting.
func DefaultWeights() Weights {
	return Weights{
		AidPell:            0.6,
		AidLoan:            0.4,
		AffordNetPrice:     0.5,
		AffordVolatility:   0.2,
		AffordTuition:      0.3,
		SupplyGap:          0.7,
		SupplyScale:        0.3,
		FinalAffordability: 0.45,
		FinalAid:           0.30,
		FinalSupply:        0.25,
		HousingPenalty:     0.1,
	}
}

// weightTolerance allows for floating-point drift when checking that a
// component group sums to 1.
const weightTolerance = 1e-6

// Validate checks that the weighting is internally consistent: every
// weight non-negative and each component group summing to 1.
func (w Weights) Validate() error {
	var errs []string

	groups := []struct {
		name string
		sum  float64
	}{
		{"aid", w.AidPell + w.AidLoan},
		{"affordability", w.AffordNetPrice + w.AffordVolatility + w.AffordTuition},
		{"supply", w.SupplyGap + w.SupplyScale},
		{"final", w.FinalAffordability + w.FinalAid + w.FinalSupply},
	}
	for _, g := range groups {
		if math.Abs(g.sum-1) > weightTolerance {
			errs = append(errs, fmt.Sprintf("%s weights must sum to 1, got %g", g.name, g.sum))
		}
	}

	for name, v := range map[string]float64{
		"aid_pell":            w.AidPell,
		"aid_loan":            w.AidLoan,
		"afford_net_price":    w.AffordNetPrice,
		"afford_volatility":   w.AffordVolatility,
		"afford_tuition":      w.AffordTuition,
		"supply_gap":          w.SupplyGap,
		"supply_scale":        w.SupplyScale,
		"final_affordability": w.FinalAffordability,
		"final_aid":           w.FinalAid,
		"final_supply":        w.FinalSupply,
		"housing_penalty":     w.HousingPenalty,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("weights validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadWeights reads an alternative weighting from a YAML file. Fields
// omitted from the file keep their default values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()

	data, err := os.ReadFile(path)
	if err != nil {
		return w, eris.Wrapf(err, "weights: read %s", path)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, eris.Wrapf(err, "weights: parse %s", path)
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

// score applies the composite formula to one feature row.
func score(row featureRow, w Weights) RankedProgram {
	aid := w.AidPell*row.pellGrantRate + w.AidLoan*(1-row.federalLoanRateNorm)
	affordability := w.AffordNetPrice*(1-row.netPriceNorm) +
		w.AffordVolatility*row.scholarshipVolatility +
		w.AffordTuition*(1-row.tuitionNorm)
	scalePreference := 1 - row.studentSizeNorm
	supplyGap := w.SupplyGap*row.programSupplyGap + w.SupplyScale*scalePreference

	var penalty float64
	if row.housingDiscrepancy {
		penalty = w.HousingPenalty
	}

	opportunity := w.FinalAffordability*affordability +
		w.FinalAid*aid +
		w.FinalSupply*supplyGap -
		penalty

	// Unresolvable tuition stays null on the output row so the JSON
	// and CSV surfaces never carry a NaN.
	var tuition *float64
	if !math.IsNaN(row.resolvedTuition) {
		t := row.resolvedTuition
		tuition = &t
	}

	return RankedProgram{
		ProgramRecord:         row.rec,
		CredentialName:        row.rec.CredentialName(),
		RegionName:            row.rec.RegionName(),
		ResolvedTuition:       tuition,
		AvgNetPriceResolved:   row.avgNetPriceResolved,
		ScholarshipVolatility: row.scholarshipVolatility,
		HousingDiscrepancy:    row.housingDiscrepancy,
		ProgramSupplyGap:      row.programSupplyGap,
		NetPriceNorm:          row.netPriceNorm,
		TuitionNorm:           row.tuitionNorm,
		AidStrengthScore:      aid,
		AffordabilityScore:    affordability,
		ScalePreferenceScore:  scalePreference,
		SupplyGapScore:        supplyGap,
		HousingPenalty:        penalty,
		OpportunityScore:      opportunity,
	}
}
