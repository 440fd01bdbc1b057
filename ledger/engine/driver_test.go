package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofftsai-da/daml/ledger"
	"github.com/geofftsai-da/daml/ledger/engine"
)

func TestDriveGreeting(t *testing.T) {
	greeting := func() engine.Result[string] {
		return engine.Bind(
			engine.LookupPackage("P", func(pkg *ledger.Package) engine.Result[string] {
				return engine.Done[string]{Value: pkg.Name}
			}),
			func(name string) engine.Result[string] {
				return engine.Done[string]{Value: "hi " + name}
			},
		)
	}

	got, err := engine.Run[string](greeting(), packageResolvers(map[ledger.PackageID]ledger.Package{"P": world}))
	require.NoError(t, err)
	assert.Equal(t, "hi world", got)

	_, err = engine.Run[string](greeting(), packageResolvers(nil))
	require.EqualError(t, err, "interpretation: Couldn't find package P")

	var engineErr *engine.Error
	require.ErrorAs(t, err, &engineErr)
	interp, ok := engineErr.Cause.(engine.InterpretationError)
	require.True(t, ok)
	require.Equal(t, engine.GenericInterpretation{Message: "Couldn't find package P"}, interp.Detail)
}

func TestDriveContractLookup(t *testing.T) {
	instance := ledger.ContractInstance{
		ContractID: "c-1",
		TemplateID: "Iou",
	}
	resolvers := engine.ResolverFuncs{
		Contracts: func(cid ledger.ContractID) *ledger.ContractInstance {
			if cid == instance.ContractID {
				return &instance
			}
			return nil
		},
	}

	template := func(cid ledger.ContractID) engine.Result[string] {
		return engine.LookupContract(cid, func(c *ledger.ContractInstance) engine.Result[string] {
			return engine.Done[string]{Value: c.TemplateID}
		})
	}

	got, err := engine.Run[string](template("c-1"), resolvers)
	require.NoError(t, err)
	assert.Equal(t, "Iou", got)

	_, err = engine.Run[string](template("c-2"), resolvers)
	var engineErr *engine.Error
	require.ErrorAs(t, err, &engineErr)
	interp, ok := engineErr.Cause.(engine.InterpretationError)
	require.True(t, ok)
	require.Equal(t, engine.ContractNotFound{ContractID: "c-2"}, interp.Detail)
}

func TestDriveKeyLookup(t *testing.T) {
	key := ledger.GlobalKeyWithMaintainers{
		Key:         ledger.GlobalKey{TemplateID: "Iou", Key: "alice-iou"},
		Maintainers: ledger.NewPartySet("alice"),
	}
	cid := ledger.ContractID("c-7")
	resolvers := engine.ResolverFuncs{
		Keys: func(k ledger.GlobalKeyWithMaintainers) *ledger.ContractID {
			if k.Key == key.Key {
				return &cid
			}
			return nil
		},
	}

	r := engine.NeedKey[*ledger.ContractID]{Key: key, K: func(found *ledger.ContractID) engine.Result[*ledger.ContractID] {
		return engine.Done[*ledger.ContractID]{Value: found}
	}}
	got, err := engine.Run[*ledger.ContractID](r, resolvers)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cid, *got)
}

func TestDriveLocalKeyVisibility(t *testing.T) {
	resolvers := engine.ResolverFuncs{
		Visible: engine.FromSubmitters(ledger.NewPartySet("alice"), nil),
	}

	r := engine.NeedLocalKeyVisible[bool]{
		Stakeholders: ledger.NewPartySet("alice", "bank"),
		K: func(v engine.VisibleByKey) engine.Result[bool] {
			return engine.Done[bool]{Value: v.IsVisible()}
		},
	}
	got, err := engine.Run[bool](r, resolvers)
	require.NoError(t, err)
	assert.True(t, got)
}

// The driver must not grow the stack with the number of suspensions: a chain
// of a few hundred thousand sequential lookups has to complete.
func TestDriveDeepSuspensionChain(t *testing.T) {
	const depth = 200_000

	var countdown func(n int) engine.Result[int]
	countdown = func(n int) engine.Result[int] {
		if n == 0 {
			return engine.Done[int]{Value: 0}
		}
		return engine.LookupPackage("P", func(*ledger.Package) engine.Result[int] {
			return countdown(n - 1)
		})
	}

	got, err := engine.Run[int](countdown(depth), packageResolvers(map[ledger.PackageID]ledger.Package{"P": world}))
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestDroppingPartiallyDrivenResultIsSound(t *testing.T) {
	// drive manually for one step, then drop the rest on the floor
	r := packageName("P")
	pending, ok := r.(engine.NeedPackage[string])
	require.True(t, ok)
	_ = pending.K(&world)
}

func TestErrorCausesMatchable(t *testing.T) {
	for _, err := range []*engine.Error{
		engine.ErrPackage("p"),
		engine.ErrPreprocessing("pp"),
		engine.ErrInterpretation("i"),
		engine.ErrContractNotFound("c-1"),
		engine.ErrValidation("v"),
	} {
		var engineErr *engine.Error
		require.True(t, errors.As(err, &engineErr))
		require.NotNil(t, engineErr.Cause)
		require.NotEmpty(t, err.Error())
	}
}
