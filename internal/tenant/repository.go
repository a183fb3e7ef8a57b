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

package tenant

import "context"

// Repository defines the interface for tenant storage.
//
// Lookups are unscoped; org filtering is applied by the service through
// orgscope. GetByID and GetByUserID return ErrTenantNotFound on absence.
// Create returns ErrTenantProfileExists when the user id is already bound
// anywhere in the system and ErrEmailTaken when the email is reused within
// the same org.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetByUserID(ctx context.Context, userID string) (*Tenant, error)
}
