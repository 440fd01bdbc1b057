/*
   Copyright 2024 The Daml authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package engine

import (
	"github.com/geofftsai-da/daml/ledger"
)

// Resolvers answers the engine's pending requests. Implementations must be
// pure or own their own synchronisation; a nil return means the datum does
// not exist. Timeouts belong in the resolver, not in the driver.
type Resolvers interface {
	Contract(cid ledger.ContractID) *ledger.ContractInstance
	Package(pid ledger.PackageID) *ledger.Package
	Key(key ledger.GlobalKeyWithMaintainers) *ledger.ContractID
	LocalKeyVisible(stakeholders ledger.PartySet) VisibleByKey
}

// ResolverFuncs adapts bare functions to Resolvers. Nil fields answer every
// request with absence (and the zero, not-visible, verdict).
type ResolverFuncs struct {
	Contracts func(ledger.ContractID) *ledger.ContractInstance
	Packages  func(ledger.PackageID) *ledger.Package
	Keys      func(ledger.GlobalKeyWithMaintainers) *ledger.ContractID
	Visible   func(ledger.PartySet) VisibleByKey
}

func (r ResolverFuncs) Contract(cid ledger.ContractID) *ledger.ContractInstance {
	if r.Contracts == nil {
		return nil
	}
	return r.Contracts(cid)
}

func (r ResolverFuncs) Package(pid ledger.PackageID) *ledger.Package {
	if r.Packages == nil {
		return nil
	}
	return r.Packages(pid)
}

func (r ResolverFuncs) Key(key ledger.GlobalKeyWithMaintainers) *ledger.ContractID {
	if r.Keys == nil {
		return nil
	}
	return r.Keys(key)
}

func (r ResolverFuncs) LocalKeyVisible(stakeholders ledger.PartySet) VisibleByKey {
	if r.Visible == nil {
		return VisibleByKey{}
	}
	return r.Visible(stakeholders)
}

// Run drives r to completion against the given resolvers. Pending requests
// are answered synchronously and fed back into their continuation; the loop
// is iterative, so stack use does not grow with the number of suspensions.
// One Run call owns its Result; there is no internal concurrency.
func Run[A any](r Result[A], resolvers Resolvers) (A, error) {
	for {
		switch v := r.(type) {
		case Done[A]:
			return v.Value, nil
		case Failed[A]:
			var zero A
			return zero, v.Err
		case NeedContract[A]:
			r = v.K(resolvers.Contract(v.ContractID))
		case NeedPackage[A]:
			r = v.K(resolvers.Package(v.PackageID))
		case NeedKey[A]:
			r = v.K(resolvers.Key(v.Key))
		case NeedLocalKeyVisible[A]:
			r = v.K(resolvers.LocalKeyVisible(v.Stakeholders))
		default:
			panic("engine: unknown Result variant")
		}
	}
}
