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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/opentrusty/tenantcredit/internal/audit"
	"github.com/opentrusty/tenantcredit/internal/id"
	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/opentrusty/tenantcredit/internal/observability/logger"
	"github.com/opentrusty/tenantcredit/internal/tenant"
	"github.com/opentrusty/tenantcredit/internal/validation"
)

const instrumentationName = "github.com/opentrusty/tenantcredit/internal/credit"

// Amount bounds. A single entry moves at most MaxAmount credits and earn or
// adjust may not take a balance outside ±MaxBalance, which keeps every stored
// sum far inside the int64 range.
const (
	MaxAmount  int64 = 1_000_000_000
	MaxBalance int64 = 1_000_000_000_000_000
)

// TenantResolver resolves a tenant within an org. Absence and org mismatch
// must both surface as tenant.ErrTenantNotFound.
type TenantResolver interface {
	GetTenant(ctx context.Context, orgID, tenantID string) (*tenant.Tenant, error)
}

// Service provides the ledger operations.
type Service struct {
	store       Store
	tenants     TenantResolver
	auditLogger audit.Logger
	publisher   Publisher
	tracer      trace.Tracer
	pageOpts    PageOptions
	now         func() time.Time

	entries  metric.Int64Counter
	rejected metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the ledger event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithTracer overrides the tracer used for ledger spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithMeter registers ledger instruments on m.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.initInstruments(m) }
}

// WithPageOptions sets the default and maximum ledger page size.
func WithPageOptions(o PageOptions) Option {
	return func(s *Service) { s.pageOpts = o.normalized() }
}

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new ledger service
func NewService(store Store, tenants TenantResolver, auditLogger audit.Logger, opts ...Option) *Service {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	s := &Service{
		store:       store,
		tenants:     tenants,
		auditLogger: auditLogger,
		publisher:   NopPublisher{},
		tracer:      otel.Tracer(instrumentationName),
		pageOpts:    PageOptions{}.normalized(),
		now:         time.Now,
	}
	s.initInstruments(otel.Meter(instrumentationName))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) initInstruments(m metric.Meter) {
	var err error
	s.entries, err = m.Int64Counter("credit.ledger.entries",
		metric.WithDescription("Ledger entries appended, by type"))
	if err != nil {
		slog.Warn("failed to create ledger counter", logger.Error(err))
		s.entries = noop.Int64Counter{}
	}
	s.rejected, err = m.Int64Counter("credit.ledger.redeem_rejected",
		metric.WithDescription("Redemptions rejected for insufficient balance"))
	if err != nil {
		slog.Warn("failed to create rejection counter", logger.Error(err))
		s.rejected = noop.Int64Counter{}
	}
}

// PageOptions returns the page size bounds used to parse ledger queries.
func (s *Service) PageOptions() PageOptions {
	return s.pageOpts
}

// Earn appends an EARN entry of amount. Amount must be positive. No balance
// check is made.
func (s *Service) Earn(ctx context.Context, orgID, tenantID string, amount int64, memo string) (*Entry, error) {
	ctx, span := s.startSpan(ctx, "credit.Earn", orgID, tenantID)
	defer span.End()

	if err := validateAmount(amount, false); err != nil {
		return nil, s.fail(span, err)
	}
	e, err := s.write(ctx, orgID, tenantID, TypeEarn, amount, memo)
	return e, s.fail(span, err)
}

// Redeem appends a REDEEM entry of -amount when the derived balance covers
// amount. Otherwise it returns *InsufficientBalanceError and writes nothing.
func (s *Service) Redeem(ctx context.Context, orgID, tenantID string, amount int64, memo string) (*Entry, error) {
	ctx, span := s.startSpan(ctx, "credit.Redeem", orgID, tenantID)
	defer span.End()

	if err := validateAmount(amount, false); err != nil {
		return nil, s.fail(span, err)
	}
	e, err := s.write(ctx, orgID, tenantID, TypeRedeem, -amount, memo)
	return e, s.fail(span, err)
}

// Adjust appends an ADJUST entry with the signed amount as given. It bypasses
// the redemption guard and may drive the balance negative.
func (s *Service) Adjust(ctx context.Context, orgID, tenantID string, amount int64, memo string) (*Entry, error) {
	ctx, span := s.startSpan(ctx, "credit.Adjust", orgID, tenantID)
	defer span.End()

	if err := validateAmount(amount, true); err != nil {
		return nil, s.fail(span, err)
	}
	e, err := s.write(ctx, orgID, tenantID, TypeAdjust, amount, memo)
	return e, s.fail(span, err)
}

// GetBalance returns the derived balance of the tenant, 0 when it has no entries.
func (s *Service) GetBalance(ctx context.Context, orgID, tenantID string) (int64, error) {
	ctx, span := s.startSpan(ctx, "credit.GetBalance", orgID, tenantID)
	defer span.End()

	if _, err := s.tenants.GetTenant(ctx, orgID, tenantID); err != nil {
		return 0, s.fail(span, err)
	}
	balance, err := s.store.Balance(ctx, orgID, tenantID)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("failed to compute balance: %w", err))
	}
	return balance, nil
}

// GetLedger returns one page of the tenant's entries.
func (s *Service) GetLedger(ctx context.Context, orgID, tenantID string, q Query) (*Page, error) {
	ctx, span := s.startSpan(ctx, "credit.GetLedger", orgID, tenantID)
	defer span.End()

	if _, err := s.tenants.GetTenant(ctx, orgID, tenantID); err != nil {
		return nil, s.fail(span, err)
	}
	if q.Limit <= 0 {
		q.Limit = s.pageOpts.DefaultLimit
	}
	q.Limit = min(q.Limit, s.pageOpts.MaxLimit)
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.SortBy == "" {
		q.SortBy = SortCreatedAt
	}

	results, total, err := s.store.List(ctx, orgID, tenantID, q)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to list ledger: %w", err))
	}
	return NewPage(results, total, q), nil
}

func (s *Service) write(ctx context.Context, orgID, tenantID string, typ EntryType, amount int64, memo string) (*Entry, error) {
	t, err := s.tenants.GetTenant(ctx, orgID, tenantID)
	if err != nil {
		return nil, err
	}

	if typ != TypeRedeem {
		if err := s.checkBalanceBounds(ctx, t, amount); err != nil {
			return nil, err
		}
	}

	e := &Entry{
		ID:        id.NewUUIDv7(),
		OrgID:     t.OrgID,
		TenantID:  t.ID,
		UnitID:    t.UnitID,
		Type:      typ,
		Amount:    amount,
		Memo:      strings.TrimSpace(memo),
		CreatedAt: s.now().UTC(),
	}

	actor, _ := identity.FromContext(ctx)

	if typ == TypeRedeem {
		err = s.store.AppendRedemption(ctx, e)
	} else {
		err = s.store.Append(ctx, e)
	}
	if err != nil {
		var insufficient *InsufficientBalanceError
		if errors.As(err, &insufficient) {
			s.rejected.Add(ctx, 1)
			slog.InfoContext(ctx, "redemption rejected",
				logger.OrgID(e.OrgID),
				logger.TenantID(e.TenantID),
				logger.ActorID(actor.Actor.ID),
				logger.Role(string(actor.Actor.Role)),
				logger.Balance(insufficient.Current),
				logger.Amount(insufficient.Requested),
			)
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeCreditRedeemRejected,
				OrgID:    e.OrgID,
				TenantID: e.TenantID,
				ActorID:  actor.Actor.ID,
				Role:     string(actor.Actor.Role),
				Resource: "credit_ledger",
				Metadata: map[string]any{"balance": insufficient.Current, "requested": insufficient.Requested},
			})
			return nil, insufficient
		}
		return nil, fmt.Errorf("failed to append %s entry: %w", typ, err)
	}

	s.entries.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(typ))))
	s.auditLogger.Log(ctx, audit.Event{
		Type:     auditType(typ),
		OrgID:    e.OrgID,
		TenantID: e.TenantID,
		ActorID:  actor.Actor.ID,
		Role:     string(actor.Actor.Role),
		Resource: "credit_ledger",
		Metadata: map[string]any{"entry_id": e.ID, "amount": e.Amount},
	})

	if err := s.publisher.Publish(ctx, Event{Entry: *e, ActorID: actor.Actor.ID}); err != nil {
		slog.WarnContext(ctx, "failed to publish ledger event",
			logger.EntryID(e.ID),
			logger.EntryType(string(e.Type)),
			logger.ActorID(actor.Actor.ID),
			logger.OrgID(e.OrgID),
			logger.TenantID(e.TenantID),
			logger.Error(err),
		)
	}

	return e, nil
}

// validateAmount checks an entry amount. Signed amounts (adjust) may be
// negative but not zero.
func validateAmount(amount int64, signed bool) error {
	var verr validation.Errors
	if signed {
		verr.Check(amount != 0, "amount", "Amount must not be zero")
		verr.Check(amount >= -MaxAmount && amount <= MaxAmount, "amount",
			fmt.Sprintf("Amount must be between -%d and %d", MaxAmount, MaxAmount))
	} else {
		verr.Check(amount > 0, "amount", "Amount must be positive")
		verr.Check(amount <= MaxAmount, "amount", fmt.Sprintf("Amount must not exceed %d", MaxAmount))
	}
	return verr.Err()
}

// checkBalanceBounds rejects an earn or adjust that would move the balance
// outside ±MaxBalance.
func (s *Service) checkBalanceBounds(ctx context.Context, t *tenant.Tenant, amount int64) error {
	balance, err := s.store.Balance(ctx, t.OrgID, t.ID)
	if err != nil {
		return fmt.Errorf("failed to compute balance: %w", err)
	}
	if next := balance + amount; next > MaxBalance || next < -MaxBalance {
		slog.WarnContext(ctx, "ledger entry rejected by balance bounds",
			logger.OrgID(t.OrgID),
			logger.TenantID(t.ID),
			logger.Balance(balance),
			logger.Amount(amount),
		)
		return validation.Single("amount",
			fmt.Sprintf("Resulting balance must be between -%d and %d", MaxBalance, MaxBalance))
	}
	return nil
}

func auditType(t EntryType) string {
	switch t {
	case TypeRedeem:
		return audit.TypeCreditRedeemed
	case TypeAdjust:
		return audit.TypeCreditAdjusted
	default:
		return audit.TypeCreditEarned
	}
}

func (s *Service) startSpan(ctx context.Context, name, orgID, tenantID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("org.id", orgID),
		attribute.String("tenant.id", tenantID),
	))
}

// fail records err on span and returns it unchanged.
func (s *Service) fail(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
