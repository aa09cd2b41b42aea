package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialName(t *testing.T) {
	assert.Equal(t, "Undergraduate Certificate or Diploma", CredentialName(1))
	assert.Equal(t, "Bachelor's Degree", CredentialName(3))
	assert.Equal(t, "First Professional Degree", CredentialName(7))
	assert.Equal(t, "Unknown", CredentialName(0))
	assert.Equal(t, "Unknown", CredentialName(8))
}

func TestRegionName(t *testing.T) {
	assert.Equal(t, "U.S. Service Schools", RegionName(0))
	assert.Equal(t, "New England", RegionName(1))
	assert.Equal(t, "Outlying Areas", RegionName(9))
	assert.Equal(t, "Unknown", RegionName(10))
	assert.Equal(t, "Unknown", RegionName(-1))
}

func TestProgramRecord_NameHelpers(t *testing.T) {
	region := 5
	r := ProgramRecord{CredentialLevel: 5, RegionID: &region}
	assert.Equal(t, "Master's Degree", r.CredentialName())
	assert.Equal(t, "Southeast", r.RegionName())

	r.RegionID = nil
	assert.Equal(t, "Unknown", r.RegionName())
}
