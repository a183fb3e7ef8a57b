// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/opentrusty/tenantcredit/internal/credit"
)

// LedgerStore implements credit.Store in memory.
//
// Entries are stored by value and only ever appended. A per-tenant mutex
// serialises the balance check and the append of a redemption.
type LedgerStore struct {
	seq atomic.Int64

	mu      sync.RWMutex
	entries map[string][]credit.Entry // tenant id -> entries in insertion order

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewLedgerStore creates an empty ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[string][]credit.Entry),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *LedgerStore) tenantLock(tenantID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tenantID] = l
	}
	return l
}

// Append writes e unconditionally.
func (s *LedgerStore) Append(_ context.Context, e *credit.Entry) error {
	l := s.tenantLock(e.TenantID)
	l.Lock()
	defer l.Unlock()

	s.append(e)
	return nil
}

// AppendRedemption writes e if the balance covers -e.Amount.
func (s *LedgerStore) AppendRedemption(_ context.Context, e *credit.Entry) error {
	l := s.tenantLock(e.TenantID)
	l.Lock()
	defer l.Unlock()

	balance := s.balance(e.OrgID, e.TenantID)
	if balance < -e.Amount {
		return &credit.InsufficientBalanceError{Current: balance, Requested: -e.Amount}
	}
	s.append(e)
	return nil
}

func (s *LedgerStore) append(e *credit.Entry) {
	e.Seq = s.seq.Add(1)

	s.mu.Lock()
	s.entries[e.TenantID] = append(s.entries[e.TenantID], *e)
	s.mu.Unlock()
}

// Balance sums the tenant's entries.
func (s *LedgerStore) Balance(_ context.Context, orgID, tenantID string) (int64, error) {
	return s.balance(orgID, tenantID), nil
}

func (s *LedgerStore) balance(orgID, tenantID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, e := range s.entries[tenantID] {
		if e.OrgID == orgID {
			sum += e.Amount
		}
	}
	return sum
}

// List returns one sorted page of the tenant's entries.
func (s *LedgerStore) List(_ context.Context, orgID, tenantID string, q credit.Query) ([]*credit.Entry, int64, error) {
	s.mu.RLock()
	all := make([]*credit.Entry, 0, len(s.entries[tenantID]))
	for _, e := range s.entries[tenantID] {
		if e.OrgID == orgID {
			all = append(all, e.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *credit.Entry) int {
		switch {
		case q.Less(a, b):
			return -1
		case q.Less(b, a):
			return 1
		}
		return 0
	})

	total := int64(len(all))
	start := min(q.Offset(), len(all))
	end := start + max(0, min(q.Limit, len(all)-start))
	return all[start:end], total, nil
}
