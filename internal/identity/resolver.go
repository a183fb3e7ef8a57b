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

package identity

import (
	"net/http"
	"strings"
)

// Identity headers produced by the upstream identity system.
const (
	HeaderUserID = "X-User-Id"
	HeaderOrgID  = "X-Org-Id"
	HeaderRole   = "X-Role"
)

// Resolver extracts a Principal from inbound request metadata.
// Implementations must fail closed with an error wrapping ErrUnauthenticated.
type Resolver interface {
	Resolve(h http.Header) (Principal, error)
}

// HeaderResolver trusts the raw identity triple carried in request headers.
type HeaderResolver struct{}

// NewHeaderResolver creates a resolver for the header triple.
func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{}
}

// Resolve reads X-User-Id, X-Org-Id and X-Role.
func (HeaderResolver) Resolve(h http.Header) (Principal, error) {
	return NewPrincipal(
		strings.TrimSpace(h.Get(HeaderUserID)),
		strings.TrimSpace(h.Get(HeaderOrgID)),
		strings.TrimSpace(h.Get(HeaderRole)),
	)
}
