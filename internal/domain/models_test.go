package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"po_received":     StatusPOReceived,
		" PROPOSAL_SENT ": StatusProposalSent,
		"initial":         StatusInitial,
	} {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseStatus("foo")
	assert.Error(t, err)
}

func TestParseZone(t *testing.T) {
	z, err := ParseZone(" west")
	require.NoError(t, err)
	assert.Equal(t, ZoneWest, z)

	_, err = ParseZone("central")
	assert.Error(t, err)
}

func TestOfferKey(t *testing.T) {
	assert.Equal(t, "Yogesh-7", Offer{SalesPersonName: "Yogesh", SLNumber: 7}.Key())
}
