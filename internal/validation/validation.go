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

// Package validation aggregates field-level input violations so callers can
// report every broken rule at once instead of failing on the first.
package validation

import (
	"errors"
	"strings"
)

// ErrInvalidInput is matched by every *Errors value via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Violation is a single broken rule.
type Violation struct {
	Field   string
	Message string
}

// Errors collects violations. The zero value is ready to use.
type Errors struct {
	violations []Violation
}

// Add records a violation for field.
func (e *Errors) Add(field, message string) {
	e.violations = append(e.violations, Violation{Field: field, Message: message})
}

// Check records a violation when ok is false.
func (e *Errors) Check(ok bool, field, message string) {
	if !ok {
		e.Add(field, message)
	}
}

// Violations returns the recorded violations in insertion order.
func (e *Errors) Violations() []Violation {
	out := make([]Violation, len(e.violations))
	copy(out, e.violations)
	return out
}

// Err returns nil when nothing was recorded, otherwise the receiver.
func (e *Errors) Err() error {
	if e == nil || len(e.violations) == 0 {
		return nil
	}
	return e
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.violations))
	for _, v := range e.violations {
		parts = append(parts, v.Message)
	}
	return strings.Join(parts, "; ")
}

// Is reports whether target is ErrInvalidInput.
func (e *Errors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Single returns an error carrying one violation.
func Single(field, message string) error {
	var e Errors
	e.Add(field, message)
	return &e
}
