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
	"github.com/elastic/go-freelru"

	"github.com/geofftsai-da/daml/ledger"
	"github.com/geofftsai-da/daml/ledger/engine"
)

// CachedResolvers is a read-through cache in front of another resolver set.
// Contracts and packages are cached; absence is not, so a datum that appears
// later is still found. Key lookups and visibility verdicts pass straight
// through: both are sensitive to mutations the cache cannot observe.
type CachedResolvers struct {
	inner     engine.Resolvers
	contracts *freelru.LRU[ledger.ContractID, *ledger.ContractInstance]
	packages  *freelru.LRU[ledger.PackageID, *ledger.Package]
}

func Cached(inner engine.Resolvers, capacity uint32) (*CachedResolvers, error) {
	contracts, err := freelru.New[ledger.ContractID, *ledger.ContractInstance](capacity, func(cid ledger.ContractID) uint32 {
		return fnv32a(string(cid))
	})
	if err != nil {
		return nil, err
	}
	packages, err := freelru.New[ledger.PackageID, *ledger.Package](capacity, func(pid ledger.PackageID) uint32 {
		return fnv32a(string(pid))
	})
	if err != nil {
		return nil, err
	}
	return &CachedResolvers{inner: inner, contracts: contracts, packages: packages}, nil
}

func (c *CachedResolvers) Contract(cid ledger.ContractID) *ledger.ContractInstance {
	if instance, ok := c.contracts.Get(cid); ok {
		return instance
	}
	instance := c.inner.Contract(cid)
	if instance != nil {
		c.contracts.Add(cid, instance)
	}
	return instance
}

func (c *CachedResolvers) Package(pid ledger.PackageID) *ledger.Package {
	if pkg, ok := c.packages.Get(pid); ok {
		return pkg
	}
	pkg := c.inner.Package(pid)
	if pkg != nil {
		c.packages.Add(pid, pkg)
	}
	return pkg
}

func (c *CachedResolvers) Key(key ledger.GlobalKeyWithMaintainers) *ledger.ContractID {
	return c.inner.Key(key)
}

func (c *CachedResolvers) LocalKeyVisible(stakeholders ledger.PartySet) engine.VisibleByKey {
	return c.inner.LocalKeyVisible(stakeholders)
}

// Evict drops a contract from the cache, typically after archival.
func (c *CachedResolvers) Evict(cid ledger.ContractID) {
	c.contracts.Remove(cid)
}

func fnv32a(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

var _ engine.Resolvers = (*CachedResolvers)(nil)
