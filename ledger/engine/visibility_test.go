package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofftsai-da/daml/ledger"
	"github.com/geofftsai-da/daml/ledger/engine"
)

func TestVisibilityFromSubmitters(t *testing.T) {
	actAs := ledger.NewPartySet("a")
	readAs := ledger.NewPartySet("b")
	visible := engine.FromSubmitters(actAs, readAs)

	verdict := visible(ledger.NewPartySet("c"))
	require.False(t, verdict.IsVisible())
	gotActAs, gotReadAs := verdict.Submitters()
	assert.Equal(t, actAs, gotActAs)
	assert.Equal(t, readAs, gotReadAs)

	verdict = visible(ledger.NewPartySet("b", "d"))
	require.True(t, verdict.IsVisible())
	gotActAs, gotReadAs = verdict.Submitters()
	assert.Nil(t, gotActAs)
	assert.Nil(t, gotReadAs)
}

func TestVisibilityIffReadersIntersectStakeholders(t *testing.T) {
	parties := []ledger.Party{"a", "b", "c", "d"}
	subsets := func() []ledger.PartySet {
		out := []ledger.PartySet{}
		for mask := 0; mask < 1<<len(parties); mask++ {
			s := ledger.NewPartySet()
			for i, p := range parties {
				if mask&(1<<i) != 0 {
					s[p] = struct{}{}
				}
			}
			out = append(out, s)
		}
		return out
	}()

	for _, actAs := range subsets {
		for _, readAs := range subsets {
			visible := engine.FromSubmitters(actAs, readAs)
			readers := actAs.Union(readAs)
			for _, stakeholders := range subsets {
				want := readers.Intersects(stakeholders)
				assert.Equal(t, want, visible(stakeholders).IsVisible(),
					"actAs=%v readAs=%v stakeholders=%v", actAs, readAs, stakeholders)
			}
		}
	}
}

func TestVisibilityDefaultReadAs(t *testing.T) {
	visible := engine.FromSubmitters(ledger.NewPartySet("a"), nil)
	require.True(t, visible(ledger.NewPartySet("a")).IsVisible())
	require.False(t, visible(ledger.NewPartySet("z")).IsVisible())
}

func TestPartySetOps(t *testing.T) {
	a := ledger.NewPartySet("x", "y")
	b := ledger.NewPartySet("y", "z")
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(ledger.NewPartySet("q")))
	assert.Equal(t, ledger.NewPartySet("x", "y", "z"), a.Union(b))
	assert.True(t, a.Contains("x"))
	assert.Equal(t, "{x,y}", a.String())
}
