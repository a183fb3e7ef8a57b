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
	"github.com/spf13/cobra"

	"github.com/opentrusty/tenantcredit/internal/app"
	"github.com/opentrusty/tenantcredit/internal/tenant"
)

func (e *env) tenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenant profiles",
	}
	cmd.AddCommand(e.tenantCreateCommand(), e.tenantGetCommand())
	return cmd
}

func (e *env) tenantCreateCommand() *cobra.Command {
	var in tenant.CreateInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a tenant profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				ctx := operatorContext(cmd.Context(), in.ActorID, in.OrgID)
				t, err := a.Tenants.CreateTenant(ctx, in)
				if err != nil {
					return err
				}
				return e.printJSON(t)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.ID, "id", "", "Tenant id (generated when empty)")
	f.StringVar(&in.OrgID, "org", "", "Organization id")
	f.StringVar(&in.UnitID, "unit", "", "Unit id")
	f.StringVar(&in.UserID, "user", "", "External user id bound to the profile")
	f.StringVar(&in.Name, "name", "", "Display name")
	f.StringVar(&in.Email, "email", "", "Email address")
	f.StringVar(&in.ActorID, "actor", "creditctl", "Actor id recorded in the audit trail")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func (e *env) tenantGetCommand() *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "get TENANT_ID",
		Short: "Show a tenant profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				t, err := a.Tenants.GetTenant(cmd.Context(), orgID, args[0])
				if err != nil {
					return err
				}
				return e.printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "Organization id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
