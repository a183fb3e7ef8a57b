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


package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/opentrusty/tenantcredit/internal/app"
	"github.com/opentrusty/tenantcredit/internal/credit"
)

func (e *env) creditsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Record and inspect ledger entries",
	}
	cmd.AddCommand(
		e.entryCommand("earn", "Credit a tenant (positive amount)", func(s *credit.Service) entryFunc { return s.Earn }),
		e.entryCommand("redeem", "Debit a tenant if the balance covers it", func(s *credit.Service) entryFunc { return s.Redeem }),
		e.entryCommand("adjust", "Apply a signed administrative correction", func(s *credit.Service) entryFunc { return s.Adjust }),
		e.balanceCommand(),
		e.ledgerCommand(),
	)
	return cmd
}

type entryFunc func(ctx context.Context, orgID, tenantID string, amount int64, memo string) (*credit.Entry, error)

func (e *env) entryCommand(use, short string, pick func(*credit.Service) entryFunc) *cobra.Command {
	var (
		orgID, memo, actor string
		amount             int64
	)
	cmd := &cobra.Command{
		Use:   use + " TENANT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				ctx := operatorContext(cmd.Context(), actor, orgID)
				entry, err := pick(a.Credits)(ctx, orgID, args[0], amount, memo)
				if err != nil {
					return err
				}
				return e.printJSON(entry)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&orgID, "org", "", "Organization id")
	f.Int64Var(&amount, "amount", 0, "Amount in credits")
	f.StringVar(&memo, "memo", "", "Free-text memo")
	f.StringVar(&actor, "actor", "creditctl", "Actor id recorded in the audit trail")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (e *env) balanceCommand() *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "balance TENANT_ID",
		Short: "Show the derived balance of a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				balance, err := a.Credits.GetBalance(cmd.Context(), orgID, args[0])
				if err != nil {
					return err
				}
				return e.printJSON(map[string]int64{"balance": balance})
			})
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "Organization id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func (e *env) ledgerCommand() *cobra.Command {
	var (
		orgID, sortBy string
		limit, page   int
	)
	cmd := &cobra.Command{
		Use:   "ledger TENANT_ID",
		Short: "List ledger entries of a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				q, err := credit.ParseQuery(sortBy, optional(limit), optional(page), a.Credits.PageOptions())
				if err != nil {
					return err
				}
				p, err := a.Credits.GetLedger(cmd.Context(), orgID, args[0], q)
				if err != nil {
					return err
				}
				return e.printJSON(p)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&orgID, "org", "", "Organization id")
	f.StringVar(&sortBy, "sort", "", "field:asc|desc, field one of createdAt, amount, type")
	f.IntVar(&limit, "limit", 0, "Page size")
	f.IntVar(&page, "page", 0, "Page number")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

// optional renders an unset (zero) flag as the empty parameter so the query
// parser applies its default.
func optional(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
