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

// Package orgscope enforces the org isolation boundary on entity lookups.
//
// A record that belongs to another org must be indistinguishable from a record
// that does not exist, so both outcomes collapse into the caller's not-found
// error.
package orgscope

import (
	"context"
	"errors"
)

// Stamped is implemented by every org-scoped entity. OrgStamp must be safe
// to call on a nil pointer receiver and return "" in that case.
type Stamped interface {
	OrgStamp() string
}

// Find resolves id through find and verifies it belongs to orgID.
// Absence (notFound or a nil record) and org mismatch both return notFound.
// Any other lookup error is returned as is.
func Find[T Stamped](ctx context.Context, find func(ctx context.Context, id string) (T, error), id, orgID string, notFound error) (T, error) {
	var zero T
	if id == "" || orgID == "" {
		return zero, notFound
	}
	v, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, notFound) {
			return zero, notFound
		}
		return zero, err
	}
	if !Matches(v, orgID) {
		return zero, notFound
	}
	return v, nil
}

// Matches reports whether v is stamped with orgID. An empty stamp never
// matches.
func Matches[T Stamped](v T, orgID string) bool {
	stamp := v.OrgStamp()
	return stamp != "" && stamp == orgID
}
