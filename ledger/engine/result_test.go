package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofftsai-da/daml/ledger"
	"github.com/geofftsai-da/daml/ledger/engine"
)

var world = ledger.Package{ID: "P", Name: "world"}

func packageResolvers(pkgs map[ledger.PackageID]ledger.Package) engine.Resolvers {
	return engine.ResolverFuncs{
		Packages: func(pid ledger.PackageID) *ledger.Package {
			if pkg, ok := pkgs[pid]; ok {
				return &pkg
			}
			return nil
		},
	}
}

func packageName(pid ledger.PackageID) engine.Result[string] {
	return engine.LookupPackage(pid, func(pkg *ledger.Package) engine.Result[string] {
		return engine.Done[string]{Value: pkg.Name}
	})
}

func TestBindLeftIdentity(t *testing.T) {
	f := func(x int) engine.Result[int] { return engine.Done[int]{Value: x * 2} }
	require.Equal(t, f(3), engine.Bind(engine.Done[int]{Value: 3}, f))
}

func TestBindRightIdentity(t *testing.T) {
	r := packageName("P")
	bound := engine.Bind(r, func(s string) engine.Result[string] { return engine.Done[string]{Value: s} })

	resolvers := packageResolvers(map[ledger.PackageID]ledger.Package{"P": world})
	got, err := engine.Run[string](r, resolvers)
	require.NoError(t, err)
	boundGot, boundErr := engine.Run[string](bound, resolvers)
	require.NoError(t, boundErr)
	assert.Equal(t, got, boundGot)
}

func TestBindAssociativity(t *testing.T) {
	r := packageName("P")
	f := func(s string) engine.Result[string] { return engine.Done[string]{Value: s + "!"} }
	g := func(s string) engine.Result[string] { return packageName("Q") }

	left := engine.Bind(engine.Bind(r, f), g)
	right := engine.Bind(r, func(s string) engine.Result[string] { return engine.Bind(f(s), g) })

	resolvers := packageResolvers(map[ledger.PackageID]ledger.Package{
		"P": world,
		"Q": {ID: "Q", Name: "quux"},
	})
	leftGot, leftErr := engine.Run[string](left, resolvers)
	rightGot, rightErr := engine.Run[string](right, resolvers)
	require.NoError(t, leftErr)
	require.NoError(t, rightErr)
	assert.Equal(t, leftGot, rightGot)
}

func TestMapIdentityObservational(t *testing.T) {
	resolverSets := map[string]engine.Resolvers{
		"resolving": packageResolvers(map[ledger.PackageID]ledger.Package{"P": world}),
		"absent":    packageResolvers(nil),
	}
	for name, resolvers := range resolverSets {
		t.Run(name, func(t *testing.T) {
			r := packageName("P")
			mapped := engine.Map(r, func(s string) string { return s })

			got, err := engine.Run[string](r, resolvers)
			mappedGot, mappedErr := engine.Run[string](mapped, resolvers)
			assert.Equal(t, got, mappedGot)
			assert.Equal(t, err, mappedErr)
		})
	}
}

func TestMapDoesNotInvokeContinuation(t *testing.T) {
	r := engine.NeedPackage[string]{PackageID: "P", K: func(*ledger.Package) engine.Result[string] {
		t.Fatal("continuation invoked during Map")
		return nil
	}}
	mapped := engine.Map[string, string](r, func(s string) string { return s })

	pending, ok := mapped.(engine.NeedPackage[string])
	require.True(t, ok)
	assert.Equal(t, ledger.PackageID("P"), pending.PackageID)
}

func TestMapOnError(t *testing.T) {
	boom := engine.ErrValidation("boom")
	mapped := engine.Map(engine.Failed[int]{Err: boom}, func(x int) int { return x + 1 })
	require.Equal(t, engine.Failed[int]{Err: boom}, mapped)
}

func TestSequencePreservesOrder(t *testing.T) {
	results := []engine.Result[string]{
		engine.Done[string]{Value: "a"},
		packageName("P"),
		engine.Done[string]{Value: "c"},
		packageName("Q"),
	}

	resolvers := packageResolvers(map[ledger.PackageID]ledger.Package{
		"P": world,
		"Q": {ID: "Q", Name: "quux"},
	})
	got, err := engine.Run[[]string](engine.Sequence(results), resolvers)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "world", "c", "quux"}, got)
}

func TestSequenceEmpty(t *testing.T) {
	got, err := engine.Run[[]string](engine.Sequence[string](nil), engine.ResolverFuncs{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSequenceShortCircuitsOnError(t *testing.T) {
	boom := engine.ErrValidation("boom")
	results := []engine.Result[int]{
		engine.Done[int]{Value: 1},
		engine.Failed[int]{Err: boom},
		engine.NeedPackage[int]{PackageID: "P", K: func(*ledger.Package) engine.Result[int] {
			t.Fatal("element after the error was evaluated")
			return nil
		}},
	}

	_, err := engine.Run[[]int](engine.Sequence(results), packageResolvers(map[ledger.PackageID]ledger.Package{"P": world}))
	require.Same(t, boom, err)
}

func TestSequenceSuspendsAtFirstPending(t *testing.T) {
	results := []engine.Result[int]{
		engine.Done[int]{Value: 1},
		engine.NeedPackage[int]{PackageID: "P", K: func(*ledger.Package) engine.Result[int] {
			return engine.Done[int]{Value: 2}
		}},
	}

	seq := engine.Sequence(results)
	pending, ok := seq.(engine.NeedPackage[[]int])
	require.True(t, ok)
	assert.Equal(t, ledger.PackageID("P"), pending.PackageID)
}

func TestEnsure(t *testing.T) {
	boom := engine.ErrPreprocessing("bad argument")
	require.Equal(t, engine.Unit, engine.Ensure(true, boom))
	require.Equal(t, engine.Failed[struct{}]{Err: boom}, engine.Ensure(false, boom))
}
