package ingest

import "github.com/edsignal/opportunity-cli/internal/model"

// schoolResult mirrors the flat dotted keys the Scorecard API returns
// when a fields list is supplied.
type schoolResult struct {
	Name            string          `json:"school.name"`
	City            string          `json:"school.city"`
	State           string          `json:"school.state"`
	RegionID        *int            `json:"school.region_id"`
	StudentSize     *int            `json:"latest.student.size"`
	TuitionInState  *float64        `json:"latest.cost.tuition.in_state"`
	TuitionOutState *float64        `json:"latest.cost.tuition.out_of_state"`
	RoomBoardOn     *float64        `json:"latest.cost.roomboard.oncampus"`
	RoomBoardOff    *float64        `json:"latest.cost.roomboard.offcampus"`
	NetPricePublic  *float64        `json:"latest.cost.avg_net_price.public"`
	NetPricePrivate *float64        `json:"latest.cost.avg_net_price.private"`
	AvgNetPrice     *float64        `json:"latest.cost.avg_net_price.overall"`
	PellGrantRate   *float64        `json:"latest.aid.pell_grant_rate"`
	FederalLoanRate *float64        `json:"latest.aid.federal_loan_rate"`
	Programs        []programResult `json:"latest.programs.cip_4_digit"`
}

type programResult struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	Credential struct {
		Level int `json:"level"`
	} `json:"credential"`
}

// Explode flattens school records into one row per program offered.
// Schools with no program array contribute nothing; institution-level
// cost and aid figures are repeated on every program row.
func Explode(schools []schoolResult) []model.ProgramRecord {
	var rows []model.ProgramRecord
	for _, s := range schools {
		for _, p := range s.Programs {
			if p.Code == "" {
				continue
			}
			rows = append(rows, model.ProgramRecord{
				ProgramCode:        p.Code,
				ProgramTitle:       p.Title,
				CredentialLevel:    p.Credential.Level,
				SchoolName:         s.Name,
				SchoolCity:         s.City,
				SchoolState:        s.State,
				RegionID:           s.RegionID,
				TuitionInState:     s.TuitionInState,
				TuitionOutOfState:  s.TuitionOutState,
				NetPricePublic:     s.NetPricePublic,
				NetPricePrivate:    s.NetPricePrivate,
				AvgNetPrice:        s.AvgNetPrice,
				RoomBoardOnCampus:  s.RoomBoardOn,
				RoomBoardOffCampus: s.RoomBoardOff,
				PellGrantRate:      s.PellGrantRate,
				FederalLoanRate:    s.FederalLoanRate,
				StudentSize:        s.StudentSize,
			})
		}
	}
	return rows
}
