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

package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/opentrusty/tenantcredit/internal/credit"
)

// redeemAttempts bounds retries when a conditional insert is refused but a
// fresh balance read shows enough credit, i.e. the balance moved in between.
const redeemAttempts = 3

// LedgerStore implements credit.Store
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new ledger store
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Append inserts e unconditionally.
func (s *LedgerStore) Append(ctx context.Context, e *credit.Entry) error {
	res, err := s.db.db.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, org_id, tenant_id, unit_id, type, amount, memo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.OrgID, e.TenantID, e.UnitID, string(e.Type), e.Amount, e.Memo, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert credit transaction: %w", mapLedgerError(err))
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}
	e.Seq = seq
	return nil
}

// AppendRedemption inserts e in a single statement guarded by the tenant's
// balance, so the check and the write commit together.
func (s *LedgerStore) AppendRedemption(ctx context.Context, e *credit.Entry) error {
	requested := -e.Amount
	for attempt := 0; attempt < redeemAttempts; attempt++ {
		res, err := s.db.db.ExecContext(ctx, `
			INSERT INTO credit_transactions (id, org_id, tenant_id, unit_id, type, amount, memo, created_at)
			SELECT ?, ?, ?, ?, ?, ?, ?, ?
			WHERE (
				SELECT COALESCE(SUM(amount), 0) FROM credit_transactions
				WHERE org_id = ? AND tenant_id = ?
			) >= ?
		`,
			e.ID, e.OrgID, e.TenantID, e.UnitID, string(e.Type), e.Amount, e.Memo, e.CreatedAt.UnixNano(),
			e.OrgID, e.TenantID, requested,
		)
		if err != nil {
			return fmt.Errorf("failed to insert redemption: %w", mapLedgerError(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 1 {
			seq, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read sequence: %w", err)
			}
			e.Seq = seq
			return nil
		}

		balance, err := s.Balance(ctx, e.OrgID, e.TenantID)
		if err != nil {
			return err
		}
		if balance < requested {
			return &credit.InsufficientBalanceError{Current: balance, Requested: requested}
		}
	}
	return fmt.Errorf("redemption for tenant %s did not settle after %d attempts", e.TenantID, redeemAttempts)
}

// Balance sums the tenant's entries.
func (s *LedgerStore) Balance(ctx context.Context, orgID, tenantID string) (int64, error) {
	var balance int64
	err := s.db.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM credit_transactions
		WHERE org_id = ? AND tenant_id = ?
	`, orgID, tenantID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to sum credit transactions: %w", err)
	}
	return balance, nil
}

var sortColumns = map[credit.SortField]string{
	credit.SortCreatedAt: "created_at",
	credit.SortAmount:    "amount",
	credit.SortType:      "type",
}

// orderBy renders the ORDER BY clause for q from a fixed column whitelist.
func orderBy(q credit.Query) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, seq %s", col, dir, dir)
}

// List returns one page of the tenant's entries.
func (s *LedgerStore) List(ctx context.Context, orgID, tenantID string, q credit.Query) ([]*credit.Entry, int64, error) {
	var total int64
	if err := s.db.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM credit_transactions WHERE org_id = ? AND tenant_id = ?
	`, orgID, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count credit transactions: %w", err)
	}

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT seq, id, org_id, tenant_id, unit_id, type, amount, memo, created_at
		FROM credit_transactions
		WHERE org_id = ? AND tenant_id = ?
		ORDER BY `+orderBy(q)+`
		LIMIT ? OFFSET ?
	`, orgID, tenantID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	defer rows.Close()

	var entries []*credit.Entry
	for rows.Next() {
		var e credit.Entry
		var typ string
		var createdAt int64
		if err := rows.Scan(&e.Seq, &e.ID, &e.OrgID, &e.TenantID, &e.UnitID, &typ, &e.Amount, &e.Memo, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		e.Type = credit.EntryType(typ)
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate credit transactions: %w", err)
	}
	return entries, total, nil
}
