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

import (
	"math"
	"strconv"
	"strings"

	"github.com/opentrusty/tenantcredit/internal/validation"
)

// SortField is a ledger column that pages can be ordered by.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortAmount    SortField = "amount"
	SortType      SortField = "type"
)

// Pagination defaults
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageOptions bounds the page size accepted from callers.
type PageOptions struct {
	DefaultLimit int
	MaxLimit     int
}

func (o PageOptions) normalized() PageOptions {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultPageLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = MaxPageLimit
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	return o
}

// Query selects one page of a tenant's ledger.
// Entries with equal sort keys are ordered by insertion sequence in the same
// direction as the sort.
type Query struct {
	SortBy SortField
	Desc   bool
	Limit  int
	Page   int
}

// DefaultQuery returns the first page, newest entries first.
func DefaultQuery() Query {
	return Query{SortBy: SortCreatedAt, Desc: true, Limit: DefaultPageLimit, Page: 1}
}

// Offset returns the number of entries skipped before this page. It saturates
// at math.MaxInt instead of wrapping.
func (q Query) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Less orders a before b according to q.
func (q Query) Less(a, b *Entry) bool {
	var cmp int
	switch q.SortBy {
	case SortAmount:
		cmp = compare(a.Amount, b.Amount)
	case SortType:
		cmp = strings.Compare(string(a.Type), string(b.Type))
	default:
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	}
	if cmp == 0 {
		cmp = compare(a.Seq, b.Seq)
	}
	if q.Desc {
		return cmp > 0
	}
	return cmp < 0
}

func compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseQuery builds a Query from raw request parameters. Empty values take
// defaults; a limit above the maximum is capped. Every malformed parameter is
// reported in one validation error.
func ParseQuery(sortBy, limit, page string, opts PageOptions) (Query, error) {
	opts = opts.normalized()
	q := Query{SortBy: SortCreatedAt, Desc: true, Limit: opts.DefaultLimit, Page: 1}

	var verr validation.Errors

	if s := strings.TrimSpace(sortBy); s != "" {
		field, dir, hasDir := strings.Cut(s, ":")
		switch SortField(field) {
		case SortCreatedAt, SortAmount, SortType:
			q.SortBy = SortField(field)
		default:
			verr.Add("sortBy", "sortBy field must be one of createdAt, amount, type")
		}
		switch {
		case !hasDir || dir == "desc":
			q.Desc = true
		case dir == "asc":
			q.Desc = false
		default:
			verr.Add("sortBy", "sortBy direction must be asc or desc")
		}
	}

	if l := strings.TrimSpace(limit); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			verr.Add("limit", "limit must be a positive integer")
		} else {
			q.Limit = min(n, opts.MaxLimit)
		}
	}

	if p := strings.TrimSpace(page); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			verr.Add("page", "page must be a positive integer")
		} else {
			q.Page = n
		}
	}

	if q.Page-1 > math.MaxInt/q.Limit {
		verr.Add("page", "page is out of range")
	}

	if err := verr.Err(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Page is one page of ledger entries.
type Page struct {
	Results      []*Entry `json:"results"`
	TotalResults int64    `json:"totalResults"`
	TotalPages   int64    `json:"totalPages"`
	Page         int      `json:"page"`
	Limit        int      `json:"limit"`
}

// NewPage assembles a page, computing the page count from total.
func NewPage(results []*Entry, total int64, q Query) *Page {
	if results == nil {
		results = []*Entry{}
	}
	var pages int64
	if q.Limit > 0 {
		pages = (total + int64(q.Limit) - 1) / int64(q.Limit)
	}
	return &Page{
		Results:      results,
		TotalResults: total,
		TotalPages:   pages,
		Page:         q.Page,
		Limit:        q.Limit,
	}
}
