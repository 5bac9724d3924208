package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compass-crm/compass-crm/internal/access"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to LeadStatus }{
		{StatusNew, StatusContacted},
		{StatusNew, StatusLost},
		{StatusNew, StatusStale},
		{StatusContacted, StatusQualified},
		{StatusContacted, StatusLost},
		{StatusContacted, StatusStale},
		{StatusQualified, StatusConverted},
		{StatusQualified, StatusLost},
		{StatusStale, StatusContacted},
		{StatusStale, StatusLost},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s must be allowed", tc.from, tc.to)
		assert.NoError(t, ValidateTransition(tc.from, tc.to))
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []LeadStatus{StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost, StatusStale}
	for _, terminal := range []LeadStatus{StatusConverted, StatusLost} {
		for _, target := range all {
			assert.False(t, CanTransition(terminal, target), "%s -> %s must be denied", terminal, target)
		}
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	denied := []struct{ from, to LeadStatus }{
		{StatusNew, StatusQualified},
		{StatusNew, StatusConverted},
		{StatusContacted, StatusConverted},
		{StatusQualified, StatusStale},
		{StatusStale, StatusQualified},
		{StatusNew, StatusNew},
	}
	for _, tc := range denied {
		err := ValidateTransition(tc.from, tc.to)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s must be rejected", tc.from, tc.to)
	}
}

func TestLeadTerritoryTag(t *testing.T) {
	north := access.TerritoryNorth
	tagged := Lead{ID: 1, Territory: &north}
	untagged := Lead{ID: 2}

	tag, ok := tagged.TerritoryTag()
	assert.True(t, ok)
	assert.Equal(t, access.TerritoryNorth, tag)

	_, ok = untagged.TerritoryTag()
	assert.False(t, ok)
}
