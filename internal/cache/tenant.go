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

// Package cache provides an in-process L1 cache in front of the tenant
// directory. Tenant records are never updated, so entries only expire.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// Config holds cache configuration
type Config struct {
	MaxItems int64
	TTL      time.Duration
}

// TenantRepository caches tenant lookups by id. It implements tenant.Repository.
type TenantRepository struct {
	next tenant.Repository
	c    *ristretto.Cache[string, *tenant.Tenant]
	ttl  time.Duration
}

// NewTenantRepository wraps next with a ristretto cache.
func NewTenantRepository(next tenant.Repository, cfg Config) (*TenantRepository, error) {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10_000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *tenant.Tenant]{
		NumCounters: cfg.MaxItems * 10,
		MaxCost:     cfg.MaxItems,
		BufferItems: 64,
		// Cost counts items, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant cache: %w", err)
	}
	return &TenantRepository{next: next, c: c, ttl: cfg.TTL}, nil
}

// Create writes through and primes the cache.
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	if err := r.next.Create(ctx, t); err != nil {
		return err
	}
	r.set(t)
	return nil
}

// GetByID serves from cache, falling back to the wrapped repository.
// Misses are not cached.
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	if t, ok := r.c.Get(id); ok {
		return t.Clone(), nil
	}
	t, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.set(t)
	return t, nil
}

// GetByUserID always consults the wrapped repository.
func (r *TenantRepository) GetByUserID(ctx context.Context, userID string) (*tenant.Tenant, error) {
	t, err := r.next.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.set(t)
	return t, nil
}

func (r *TenantRepository) set(t *tenant.Tenant) {
	if r.ttl > 0 {
		r.c.SetWithTTL(t.ID, t.Clone(), 1, r.ttl)
		return
	}
	r.c.Set(t.ID, t.Clone(), 1)
}

// Wait blocks until pending writes are visible to Get.
func (r *TenantRepository) Wait() {
	r.c.Wait()
}

// Close shuts down the cache and releases resources.
func (r *TenantRepository) Close() {
	r.c.Close()
}
