package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeerGroup_AddDeduplicates(t *testing.T) {
	g := NewPeerGroup("Retail", Primary)
	require.True(t, g.Add(Company{Identifier: "ACM.N"}))
	require.False(t, g.Add(Company{Identifier: " acm.n "}))
	require.False(t, g.Add(Company{Identifier: ""}))
	require.True(t, g.Ensure(Company{Identifier: "WDG.N"}))
	require.False(t, g.Ensure(Company{Identifier: "WDG.N"}))
	require.Equal(t, []string{"ACM.N", "WDG.N"}, g.Identifiers())

	var zero PeerGroup
	zero.Companies = []Company{{Identifier: "X.N"}}
	require.False(t, zero.Add(Company{Identifier: "x.n"}))
}

func TestSectorOf(t *testing.T) {
	require.Equal(t, "Consumer Discretionary", SectorOf("Consumer Discretionary - Apparel", " - "))
	require.Equal(t, "Banks", SectorOf(" Banks ", " - "))
	require.Equal(t, "A - B", SectorOf("A - B", ""))
}

func TestParseAttribute(t *testing.T) {
	for in, want := range map[string]Attribute{"": Primary, "Primary": Primary, "secondary": Secondary, " SECTOR ": Sector} {
		got, err := ParseAttribute(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseAttribute("region")
	require.ErrorIs(t, err, ErrInvalidQuery)
	require.Equal(t, "sector", Sector.String())
}
