package model

// credentialNames maps College Scorecard credential level codes (1-7)
// to display names.
var credentialNames = map[int]string{
	1: "Undergraduate Certificate or Diploma",
	2: "Associate's Degree",
	3: "Bachelor's Degree",
	4: "Post-baccalaureate Certificate",
	5: "Master's Degree",
	6: "Doctoral Degree",
	7: "First Professional Degree",
}

// regionNames maps IPEDS region ids to display names. Region 0 exists
// in the source data (service academies) even though filters only
// accept 1-9.
var regionNames = map[int]string{
	0: "U.S. Service Schools",
	1: "New England",
	2: "Mid East",
	3: "Great Lakes",
	4: "Plains",
	5: "Southeast",
	6: "Southwest",
	7: "Rocky Mountains",
	8: "Far West",
	9: "Outlying Areas",
}

// CredentialName returns the display name for a credential level code,
// or "Unknown" for codes outside the documented domain.
func CredentialName(level int) string {
	if name, ok := credentialNames[level]; ok {
		return name
	}
	return "Unknown"
}

// RegionName returns the display name for an IPEDS region id, or
// "Unknown" for ids outside the documented domain.
func RegionName(id int) string {
	if name, ok := regionNames[id]; ok {
		return name
	}
	return "Unknown"
}
