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

package store

import (
	"sync"

	"github.com/google/btree"
	"github.com/ledgerwatch/log/v3"

	"github.com/geofftsai-da/daml/ledger"
	"github.com/geofftsai-da/daml/ledger/engine"
)

type contractRecord struct {
	id       ledger.ContractID
	instance ledger.ContractInstance
}

type packageRecord struct {
	id  ledger.PackageID
	pkg ledger.Package
}

type keyRecord struct {
	key ledger.GlobalKey
	cid ledger.ContractID
}

func lessKey(a, b ledger.GlobalKey) bool {
	if a.TemplateID != b.TemplateID {
		return a.TemplateID < b.TemplateID
	}
	return a.Key < b.Key
}

// MemoryStore is an in-memory resolver backend: the host-side piece that
// answers the engine's contract, package and key requests for a single
// submission's party sets. Records live in id-ordered btrees so diagnostics
// can walk them in a stable order.
type MemoryStore struct {
	mu        sync.RWMutex
	contracts *btree.BTreeG[contractRecord]
	packages  *btree.BTreeG[packageRecord]
	keys      *btree.BTreeG[keyRecord]
	visible   func(ledger.PartySet) engine.VisibleByKey
	logger    log.Logger
}

const btreeDegree = 32

func NewMemoryStore(actAs, readAs ledger.PartySet, logger log.Logger) *MemoryStore {
	return &MemoryStore{
		contracts: btree.NewG(btreeDegree, func(a, b contractRecord) bool { return a.id < b.id }),
		packages:  btree.NewG(btreeDegree, func(a, b packageRecord) bool { return a.id < b.id }),
		keys:      btree.NewG(btreeDegree, func(a, b keyRecord) bool { return lessKey(a.key, b.key) }),
		visible:   engine.FromSubmitters(actAs, readAs),
		logger:    logger,
	}
}

// SetContract records an active contract. The instance's ContractID is its
// identity.
func (s *MemoryStore) SetContract(instance ledger.ContractInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts.ReplaceOrInsert(contractRecord{id: instance.ContractID, instance: instance})
}

// RemoveContract drops a contract, typically on archival.
func (s *MemoryStore) RemoveContract(cid ledger.ContractID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts.Delete(contractRecord{id: cid})
}

func (s *MemoryStore) SetPackage(pkg ledger.Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages.ReplaceOrInsert(packageRecord{id: pkg.ID, pkg: pkg})
}

// SetKey assigns a contract key to a contract id.
func (s *MemoryStore) SetKey(key ledger.GlobalKey, cid ledger.ContractID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.keys.ReplaceOrInsert(keyRecord{key: key, cid: cid}); ok && prev.cid != cid {
		s.logger.Debug("contract key reassigned", "template", key.TemplateID, "from", prev.cid, "to", cid)
	}
}

// RemoveKey unassigns a contract key.
func (s *MemoryStore) RemoveKey(key ledger.GlobalKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys.Delete(keyRecord{key: key})
}

// Contract implements engine.Resolvers.
func (s *MemoryStore) Contract(cid ledger.ContractID) *ledger.ContractInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.contracts.Get(contractRecord{id: cid})
	if !ok {
		return nil
	}
	instance := rec.instance
	return &instance
}

// Package implements engine.Resolvers.
func (s *MemoryStore) Package(pid ledger.PackageID) *ledger.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.packages.Get(packageRecord{id: pid})
	if !ok {
		return nil
	}
	pkg := rec.pkg
	return &pkg
}

// Key implements engine.Resolvers.
func (s *MemoryStore) Key(key ledger.GlobalKeyWithMaintainers) *ledger.ContractID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.keys.Get(keyRecord{key: key.Key})
	if !ok {
		return nil
	}
	cid := rec.cid
	return &cid
}

// LocalKeyVisible implements engine.Resolvers with the submitter party sets
// the store was built for.
func (s *MemoryStore) LocalKeyVisible(stakeholders ledger.PartySet) engine.VisibleByKey {
	return s.visible(stakeholders)
}

// EachContract walks the active contracts in contract-id order. The walk
// holds the read lock; f must not call back into the store.
func (s *MemoryStore) EachContract(f func(ledger.ContractInstance) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.contracts.Ascend(func(rec contractRecord) bool { return f(rec.instance) })
}

var _ engine.Resolvers = (*MemoryStore)(nil)
