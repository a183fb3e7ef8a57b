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

package credit

import "context"

// Store persists ledger entries.
//
// Implementations expose no update or delete path and must reject either at
// the storage boundary with ErrImmutableEntry.
type Store interface {
	// Append writes e unconditionally and assigns e.Seq.
	Append(ctx context.Context, e *Entry) error

	// AppendRedemption writes the REDEEM entry e only if the tenant's derived
	// balance at commit time covers -e.Amount. The check and the write must be
	// atomic with respect to other appends for the same tenant. On rejection
	// it returns *InsufficientBalanceError carrying the balance it observed.
	AppendRedemption(ctx context.Context, e *Entry) error

	// Balance returns the sum of all entry amounts for the tenant, 0 if none.
	Balance(ctx context.Context, orgID, tenantID string) (int64, error)

	// List returns one page of the tenant's entries and the total count.
	List(ctx context.Context, orgID, tenantID string, q Query) ([]*Entry, int64, error)
}
