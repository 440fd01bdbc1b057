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

// VisibleByKey is the verdict on whether a key lookup may observe a
// contract: either visible, or not visible together with the submitter party
// sets for diagnostics. The zero value is the not-visible verdict with empty
// party sets.
type VisibleByKey struct {
	visible bool
	actAs   ledger.PartySet
	readAs  ledger.PartySet
}

// KeyVisible is the positive verdict.
var KeyVisible = VisibleByKey{visible: true}

// KeyNotVisible builds the negative verdict carrying the authorising party
// sets of the rejected submission.
func KeyNotVisible(actAs, readAs ledger.PartySet) VisibleByKey {
	return VisibleByKey{actAs: actAs, readAs: readAs}
}

func (v VisibleByKey) IsVisible() bool { return v.visible }

// Submitters returns the actAs and readAs sets of a negative verdict; both
// are nil on a positive one.
func (v VisibleByKey) Submitters() (actAs, readAs ledger.PartySet) {
	return v.actAs, v.readAs
}

// FromSubmitters derives the key-visibility predicate of a submission: a
// contract's key is visible iff at least one reader (actAs union readAs) is
// among its stakeholders. The returned predicate is pure and safe to share.
func FromSubmitters(actAs, readAs ledger.PartySet) func(stakeholders ledger.PartySet) VisibleByKey {
	readers := actAs.Union(readAs)
	return func(stakeholders ledger.PartySet) VisibleByKey {
		if readers.Intersects(stakeholders) {
			return KeyVisible
		}
		return KeyNotVisible(actAs, readAs)
	}
}
