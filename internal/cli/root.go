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


// Package cli implements creditctl, the operator CLI. Commands open the
// configured store directly and act with administrative authority.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/opentrusty/tenantcredit/internal/app"
	"github.com/opentrusty/tenantcredit/internal/config"
	"github.com/opentrusty/tenantcredit/internal/identity"
)

// ConfigLoader returns the configuration commands run against.
type ConfigLoader func() (*config.Config, error)

type env struct {
	out  io.Writer
	load ConfigLoader
}

// NewRootCommand builds the creditctl command tree.
func NewRootCommand(out io.Writer, load ConfigLoader) *cobra.Command {
	if load == nil {
		load = config.Load
	}
	e := &env{out: out, load: load}

	root := &cobra.Command{
		Use:   "creditctl",
		Short: "Administer the tenant credit ledger",
		Long: `creditctl provisions tenants and records administrative ledger
entries against the store configured through CONFIG_FILE and the
environment. It acts as an administrator: every operation is still
scoped to the organization given with --org.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		e.migrateCommand(),
		e.tenantCommand(),
		e.creditsCommand(),
		e.tokenCommand(),
	)
	return root
}

// withApp opens the wired services for the duration of fn.
func (e *env) withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := e.load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// operatorContext attaches the operator principal so audit events name the
// CLI actor.
func operatorContext(ctx context.Context, actorID, orgID string) context.Context {
	return identity.WithPrincipal(ctx, identity.Principal{
		Actor: identity.Actor{ID: actorID, Role: identity.RoleAdmin},
		OrgID: orgID,
	})
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func (e *env) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.load()
			if err != nil {
				return err
			}
			if err := app.Migrate(cmd.Context(), cfg.Database); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(e.out, "migrations applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}
