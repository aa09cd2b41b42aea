package engine

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/edsignal/opportunity-cli/internal/model"
)

// DefaultTopK is the number of ranked rows returned when a request
// does not specify its own limit.
const DefaultTopK = 15

// Filters narrows the program corpus for one ranking request. All
// criteria are optional and conjunctive. Zero values mean "not set"
// except MaxNetPrice, which uses a pointer so a ceiling of 0 remains
// expressible.
type Filters struct {
	CIPPrefix       string   `json:"cip_prefix,omitempty"`
	CredentialLevel int      `json:"credential_level,omitempty"`
	RegionID        int      `json:"region_id,omitempty"`
	MaxNetPrice     *float64 `json:"max_net_price,omitempty"`
	TopK            int      `json:"top_k,omitempty"`
}

// Validate rejects filter values outside their documented domains.
// Errors satisfy eris.Is(err, ErrInvalidFilter).
func (f Filters) Validate() error {
	if f.CredentialLevel != 0 && (f.CredentialLevel < 1 || f.CredentialLevel > 7) {
		return eris.Wrapf(ErrInvalidFilter, "credential level must be 1-7, got %d", f.CredentialLevel)
	}
	if f.RegionID != 0 && (f.RegionID < 1 || f.RegionID > 9) {
		return eris.Wrapf(ErrInvalidFilter, "region id must be 1-9, got %d", f.RegionID)
	}
	if f.MaxNetPrice != nil && *f.MaxNetPrice < 0 {
		return eris.Wrapf(ErrInvalidFilter, "max net price must be >= 0, got %.2f", *f.MaxNetPrice)
	}
	if f.TopK < 0 {
		return eris.Wrapf(ErrInvalidFilter, "top-k must be >= 0, got %d", f.TopK)
	}
	return nil
}

// limit returns the effective top-k for this request.
func (f Filters) limit() int {
	if f.TopK > 0 {
		return f.TopK
	}
	return DefaultTopK
}

// applyRowFilters runs the pre-feature filter pass: CIP prefix,
// credential level, and region. The net-price ceiling is applied later,
// after feature resolution.
func applyRowFilters(recs []model.ProgramRecord, f Filters) []model.ProgramRecord {
	var out []model.ProgramRecord
	for _, r := range recs {
		if f.CIPPrefix != "" && !strings.HasPrefix(r.ProgramCode, f.CIPPrefix) {
			continue
		}
		if f.CredentialLevel != 0 && r.CredentialLevel != f.CredentialLevel {
			continue
		}
		if f.RegionID != 0 && (r.RegionID == nil || *r.RegionID != f.RegionID) {
			continue
		}
		out = append(out, r)
	}
	return out
}
