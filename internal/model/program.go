// Package model defines the program-centric data types shared by the
// store, the scoring engine, and the ingest pipeline.
package model

// ProgramRecord is one row of the program table: a single program
// offered at a single institution. Nullable source columns are pointer
// fields; nil means the upstream dataset suppressed or omitted the value.
type ProgramRecord struct {
	ProgramCode     string `json:"program_code"`
	ProgramTitle    string `json:"program_title"`
	CredentialLevel int    `json:"credential_level"`

	SchoolName  string `json:"school_name"`
	SchoolCity  string `json:"school_city"`
	SchoolState string `json:"school_state"`
	RegionID    *int   `json:"region_id,omitempty"`

	TuitionInState    *float64 `json:"tuition_in_state,omitempty"`
	TuitionOutOfState *float64 `json:"tuition_out_of_state,omitempty"`
	NetPricePublic    *float64 `json:"net_price_public,omitempty"`
	NetPricePrivate   *float64 `json:"net_price_private,omitempty"`
	AvgNetPrice       *float64 `json:"avg_net_price,omitempty"`

	RoomBoardOnCampus  *float64 `json:"room_board_oncampus,omitempty"`
	RoomBoardOffCampus *float64 `json:"room_board_offcampus,omitempty"`

	PellGrantRate   *float64 `json:"pell_grant_rate,omitempty"`
	FederalLoanRate *float64 `json:"federal_loan_rate,omitempty"`
	StudentSize     *int     `json:"student_size,omitempty"`
}

// CredentialName returns the display name for the record's credential level.
func (r ProgramRecord) CredentialName() string {
	return CredentialName(r.CredentialLevel)
}

// RegionName returns the display name for the record's IPEDS region.
func (r ProgramRecord) RegionName() string {
	if r.RegionID == nil {
		return "Unknown"
	}
	return RegionName(*r.RegionID)
}
