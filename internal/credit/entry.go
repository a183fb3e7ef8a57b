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

// Package credit implements the tenant credit ledger: an append-only log of
// credit movements whose balance is derived by summing entries at read time.
package credit

import (
	"errors"
	"fmt"
	"time"
)

// EntryType classifies a ledger movement.
type EntryType string

const (
	TypeEarn   EntryType = "EARN"
	TypeRedeem EntryType = "REDEEM"
	TypeAdjust EntryType = "ADJUST"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case TypeEarn, TypeRedeem, TypeAdjust:
		return true
	}
	return false
}

// Entry is a single immutable credit movement.
//
// OrgID and UnitID are copied from the owning tenant when the entry is
// written. Seq is the store-assigned insertion order used as the pagination
// tie-breaker.
type Entry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"-"`
	OrgID     string    `json:"orgId"`
	TenantID  string    `json:"tenantId"`
	UnitID    string    `json:"unitId"`
	Type      EntryType `json:"type"`
	Amount    int64     `json:"amount"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrgStamp returns the owning org id, or "" for a nil entry.
func (e *Entry) OrgStamp() string {
	if e == nil {
		return ""
	}
	return e.OrgID
}

// Clone returns a copy safe to hand out of a store.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// Domain errors
var (
	// ErrInsufficientBalance is matched by every *InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrImmutableEntry is returned by stores when something tries to change
	// or remove a written entry.
	ErrImmutableEntry = errors.New("credit transactions cannot be updated: append-only ledger")
)

// InsufficientBalanceError reports a redemption larger than the derived balance.
type InsufficientBalanceError struct {
	Current   int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance. Current balance: %d, Requested: %d", e.Current, e.Requested)
}

// Is reports whether target is ErrInsufficientBalance.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
