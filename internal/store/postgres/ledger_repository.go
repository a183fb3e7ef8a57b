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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// LedgerStore implements credit.Store
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new ledger store
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const insertEntry = `
	INSERT INTO credit_transactions (id, org_id, tenant_id, unit_id, type, amount, memo, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING seq
`

// Append inserts e unconditionally
func (s *LedgerStore) Append(ctx context.Context, e *credit.Entry) error {
	err := s.db.pool.QueryRow(ctx, insertEntry,
		e.ID, e.OrgID, e.TenantID, e.UnitID, string(e.Type), e.Amount, e.Memo, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("failed to insert credit transaction: %w", mapLedgerError(err))
	}
	return nil
}

// AppendRedemption locks the tenant row, derives the balance and inserts e
// in one transaction. Concurrent redemptions for the same tenant queue on
// the row lock.
func (s *LedgerStore) AppendRedemption(ctx context.Context, e *credit.Entry) error {
	tx, err := s.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	err = tx.QueryRow(ctx, `
		SELECT id FROM tenants WHERE id = $1 AND org_id = $2 FOR UPDATE
	`, e.TenantID, e.OrgID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tenant.ErrTenantNotFound
		}
		return fmt.Errorf("failed to lock tenant: %w", err)
	}

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::BIGINT FROM credit_transactions
		WHERE org_id = $1 AND tenant_id = $2
	`, e.OrgID, e.TenantID).Scan(&balance)
	if err != nil {
		return fmt.Errorf("failed to sum credit transactions: %w", err)
	}

	requested := -e.Amount
	if balance < requested {
		return &credit.InsufficientBalanceError{Current: balance, Requested: requested}
	}

	err = tx.QueryRow(ctx, insertEntry,
		e.ID, e.OrgID, e.TenantID, e.UnitID, string(e.Type), e.Amount, e.Memo, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("failed to insert redemption: %w", mapLedgerError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit redemption: %w", err)
	}
	return nil
}

// Balance sums the tenant's entries
func (s *LedgerStore) Balance(ctx context.Context, orgID, tenantID string) (int64, error) {
	var balance int64
	err := s.db.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::BIGINT FROM credit_transactions
		WHERE org_id = $1 AND tenant_id = $2
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

// List returns one page of the tenant's entries and the total count
func (s *LedgerStore) List(ctx context.Context, orgID, tenantID string, q credit.Query) ([]*credit.Entry, int64, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT seq, id, org_id, tenant_id, unit_id, type, amount, memo, created_at,
			COUNT(*) OVER () AS total
		FROM credit_transactions
		WHERE org_id = $1 AND tenant_id = $2
		ORDER BY `+orderBy(q)+`
		LIMIT $3 OFFSET $4
	`, orgID, tenantID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	defer rows.Close()

	var entries []*credit.Entry
	var total int64
	for rows.Next() {
		var e credit.Entry
		var typ string
		if err := rows.Scan(&e.Seq, &e.ID, &e.OrgID, &e.TenantID, &e.UnitID, &typ, &e.Amount, &e.Memo, &e.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		e.Type = credit.EntryType(typ)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate credit transactions: %w", err)
	}

	// An offset past the end returns no rows, so the window count is lost.
	if len(entries) == 0 && q.Offset() > 0 {
		if err := s.db.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM credit_transactions WHERE org_id = $1 AND tenant_id = $2
		`, orgID, tenantID).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to count credit transactions: %w", err)
		}
	}
	return entries, total, nil
}
