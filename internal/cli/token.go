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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opentrusty/tenantcredit/internal/config"
	"github.com/opentrusty/tenantcredit/internal/identity"
)

func (e *env) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue identity tokens for token identity mode",
	}

	var (
		userID, orgID, role string
		ttl                 time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token carrying the identity triple",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.load()
			if err != nil {
				return err
			}
			if cfg.Identity.Mode != config.IdentityToken {
				return fmt.Errorf("identity mode is %q; tokens are only accepted in %q mode", cfg.Identity.Mode, config.IdentityToken)
			}
			p, err := identity.NewPrincipal(userID, orgID, role)
			if err != nil {
				return err
			}
			signer, err := identity.NewTokenResolver(cfg.Identity.TokenSecret, cfg.Identity.TokenIssuer)
			if err != nil {
				return err
			}
			token, err := signer.Sign(p, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, token)
			return nil
		},
	}

	f := issue.Flags()
	f.StringVar(&userID, "user", "", "Actor id (the tenant id for tenant-role actors)")
	f.StringVar(&orgID, "org", "", "Organization id")
	f.StringVar(&role, "role", "", "tenant, landlord or admin")
	f.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	cmd.AddCommand(issue)
	return cmd
}
