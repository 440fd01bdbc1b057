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

// Result is a suspendable computation: either a terminal value (Done,
// Failed) or a pending request the host must answer before the computation
// can continue. It is a closed union; the six implementations below are the
// only ones.
//
// A pending variant carries the request datum and a continuation that
// receives the host's answer. Continuations are pure values; dropping a
// partially driven Result releases nothing.
type Result[A any] interface {
	isResult()
}

// Done is terminal success.
type Done[A any] struct {
	Value A
}

// Failed is terminal failure.
type Failed[A any] struct {
	Err *Error
}

// NeedContract pauses until the host resolves a contract id. K receives the
// instance, or nil when the host has none.
type NeedContract[A any] struct {
	ContractID ledger.ContractID
	K          func(*ledger.ContractInstance) Result[A]
}

// NeedPackage pauses until the host resolves a package id. K receives the
// package, or nil when the host has none.
type NeedPackage[A any] struct {
	PackageID ledger.PackageID
	K         func(*ledger.Package) Result[A]
}

// NeedKey pauses until the host resolves a contract key. K receives the
// contract id the key points at, or nil when the key is unassigned.
type NeedKey[A any] struct {
	Key ledger.GlobalKeyWithMaintainers
	K   func(*ledger.ContractID) Result[A]
}

// NeedLocalKeyVisible pauses until the host rules whether the submitters may
// observe a key whose contract has the given stakeholders.
type NeedLocalKeyVisible[A any] struct {
	Stakeholders ledger.PartySet
	K            func(VisibleByKey) Result[A]
}

func (Done[A]) isResult()                {}
func (Failed[A]) isResult()              {}
func (NeedContract[A]) isResult()        {}
func (NeedPackage[A]) isResult()         {}
func (NeedKey[A]) isResult()             {}
func (NeedLocalKeyVisible[A]) isResult() {}

// Bind chains f onto the Done leaf of r. A terminal value is spliced
// immediately; a pending variant keeps its request and has its continuation
// rewritten to apply f once it eventually completes. The continuation is
// never invoked here.
func Bind[A, B any](r Result[A], f func(A) Result[B]) Result[B] {
	switch v := r.(type) {
	case Done[A]:
		return f(v.Value)
	case Failed[A]:
		return Failed[B]{Err: v.Err}
	case NeedContract[A]:
		return NeedContract[B]{ContractID: v.ContractID, K: func(c *ledger.ContractInstance) Result[B] {
			return Bind(v.K(c), f)
		}}
	case NeedPackage[A]:
		return NeedPackage[B]{PackageID: v.PackageID, K: func(p *ledger.Package) Result[B] {
			return Bind(v.K(p), f)
		}}
	case NeedKey[A]:
		return NeedKey[B]{Key: v.Key, K: func(cid *ledger.ContractID) Result[B] {
			return Bind(v.K(cid), f)
		}}
	case NeedLocalKeyVisible[A]:
		return NeedLocalKeyVisible[B]{Stakeholders: v.Stakeholders, K: func(vis VisibleByKey) Result[B] {
			return Bind(v.K(vis), f)
		}}
	default:
		panic("engine: unknown Result variant")
	}
}

// Map rewrites the terminal value of r through f, leaving requests and
// errors untouched.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	return Bind(r, func(a A) Result[B] { return Done[B]{Value: f(a)} })
}

// Sequence turns an ordered list of results into one result of the ordered
// values. It walks the list until the first pending element, suspends there,
// and splices the uninspected tail behind that element's completion, so no
// element is examined twice and order is preserved. A Failed element
// short-circuits the whole sequence.
func Sequence[A any](results []Result[A]) Result[[]A] {
	return sequenceFrom(results, 0, make([]A, 0, len(results)))
}

func sequenceFrom[A any](results []Result[A], start int, acc []A) Result[[]A] {
	for i := start; i < len(results); i++ {
		switch v := results[i].(type) {
		case Done[A]:
			acc = append(acc, v.Value)
		case Failed[A]:
			return Failed[[]A]{Err: v.Err}
		default:
			rest := i + 1
			prefix := acc
			return Bind(results[i], func(a A) Result[[]A] {
				// each invocation owns its accumulator, so a Result stays
				// drivable more than once
				next := make([]A, len(prefix), len(results))
				copy(next, prefix)
				return sequenceFrom(results, rest, append(next, a))
			})
		}
	}
	return Done[[]A]{Value: acc}
}

// LookupPackage issues a package request and runs k on the resolved package.
// An absent package terminates the computation with an interpretation error.
func LookupPackage[A any](pid ledger.PackageID, k func(*ledger.Package) Result[A]) Result[A] {
	return NeedPackage[A]{PackageID: pid, K: func(pkg *ledger.Package) Result[A] {
		if pkg == nil {
			return Failed[A]{Err: ErrInterpretation("Couldn't find package " + string(pid))}
		}
		return k(pkg)
	}}
}

// LookupContract issues a contract request and runs k on the resolved
// instance. An absent contract terminates with ContractNotFound.
func LookupContract[A any](cid ledger.ContractID, k func(*ledger.ContractInstance) Result[A]) Result[A] {
	return NeedContract[A]{ContractID: cid, K: func(c *ledger.ContractInstance) Result[A] {
		if c == nil {
			return Failed[A]{Err: ErrContractNotFound(cid)}
		}
		return k(c)
	}}
}

// Ensure returns Unit when cond holds and fails with err otherwise.
func Ensure(cond bool, err *Error) Result[struct{}] {
	if cond {
		return Unit
	}
	return Failed[struct{}]{Err: err}
}

// Unit is the cached successful empty result.
var Unit Result[struct{}] = Done[struct{}]{}
