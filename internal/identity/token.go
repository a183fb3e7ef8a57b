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
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// hkdfInfo binds derived keys to this use so the configured secret can be
// shared with other consumers without key reuse.
const hkdfInfo = "tenantcredit identity token v1"

// Claims is the signed form of the identity triple.
type Claims struct {
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenResolver verifies an HS256 bearer token carrying the identity triple.
type TokenResolver struct {
	key    []byte
	issuer string
}

// NewTokenResolver derives the verification key from secret.
func NewTokenResolver(secret, issuer string) (*TokenResolver, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &TokenResolver{key: key, issuer: issuer}, nil
}

// Resolve verifies the Authorization bearer token and validates its claims
// with the same rules as the header triple.
func (t *TokenResolver) Resolve(h http.Header) (Principal, error) {
	raw, ok := bearerToken(h.Get("Authorization"))
	if !ok {
		return Principal{}, ErrMissingIdentity
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return NewPrincipal(claims.Subject, claims.OrgID, claims.Role)
}

// Sign issues a token for p valid for ttl. Used by operator tooling and tests.
func (t *TokenResolver) Sign(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		OrgID: p.OrgID,
		Role:  string(p.Actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Actor.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

func deriveKey(secret string) ([]byte, error) {
	if len(secret) < 32 {
		return nil, errors.New("identity token secret must be at least 32 bytes")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive token key: %w", err)
	}
	return key, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
