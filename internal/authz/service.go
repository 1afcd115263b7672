package authz

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"gatehouse/internal/audit"
	"gatehouse/internal/authz/metrics"
	"gatehouse/internal/authz/ports"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

// batchConcurrency caps parallel permission resolution in CheckBatch.
const batchConcurrency = 8

// CheckRequest is one authorization question.
type CheckRequest struct {
	ActorID      id.ActorID
	TenantID     id.TenantID
	Action       id.Action
	ResourceType id.ResourceType
	// Resource is required for instance-scoped actions and ignored for
	// collection-scoped ones.
	Resource *Resource
}

// Service wraps the pure gate with permission resolution, tenancy
// enforcement, and decision auditing.
type Service struct {
	resolver ports.PermissionResolver
	auditor  ports.AuditPort
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewService constructs the authz service. The auditor may be nil in tests;
// decisions are then not audited.
func NewService(resolver ports.PermissionResolver, auditor ports.AuditPort, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		resolver: resolver,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("gatehouse/internal/authz"),
	}
}

// Check answers one authorization question. Denials are normal results;
// only malformed requests and resolver failures return errors.
func (s *Service) Check(ctx context.Context, req CheckRequest) (Decision, error) {
	ctx, span := s.tracer.Start(ctx, "authz.Check",
		trace.WithAttributes(
			attribute.String("authz.action", string(req.Action)),
			attribute.String("authz.resource_type", string(req.ResourceType)),
		))
	defer span.End()

	start := time.Now()
	decision, err := s.check(ctx, req)
	s.metrics.ObserveCheckLatency(time.Since(start))

	if err != nil {
		span.SetAttributes(attribute.String("authz.error", string(dErrors.CodeOf(err))))
		return Decision{}, err
	}

	span.SetAttributes(
		attribute.Bool("authz.allowed", decision.Allowed),
		attribute.String("authz.reason", string(decision.Reason)),
	)
	s.metrics.IncrementOutcome(string(decision.Reason), string(req.Action))
	s.auditDecision(ctx, req, decision)

	return decision, nil
}

func (s *Service) check(ctx context.Context, req CheckRequest) (Decision, error) {
	if req.ActorID.IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	if req.TenantID.IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "tenant is required")
	}

	// Cross-tenant instance access is denied before any permission
	// resolution: no tenant's grants reach into another tenant.
	if req.Resource != nil && req.Resource.TenantID != req.TenantID {
		return Decision{Allowed: false, Reason: ReasonTenantMismatch}, nil
	}

	permissions, err := s.resolver.EffectivePermissions(ctx, req.TenantID, req.ActorID)
	if err != nil {
		s.logger.ErrorContext(ctx, "permission resolution failed",
			"tenant_id", req.TenantID,
			"actor_id", req.ActorID,
			"error", err,
		)
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve permissions")
	}

	actor := Actor{
		ID:          req.ActorID,
		TenantID:    req.TenantID,
		Permissions: NewPermissionSet(permissions...),
	}

	return Decide(actor, req.Action, req.ResourceType, req.Resource)
}

// CheckBatch answers multiple authorization questions, preserving request
// order in the result. One malformed request fails the whole batch; partial
// answers would be easy to misread as denials.
func (s *Service) CheckBatch(ctx context.Context, reqs []CheckRequest) ([]Decision, error) {
	if len(reqs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch is empty")
	}

	decisions := make([]Decision, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			decision, err := s.Check(ctx, req)
			if err != nil {
				return err
			}
			decisions[i] = decision
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return decisions, nil
}

// auditDecision records the decision. Audit failures are logged but do not
// fail the check: availability of authorization wins over completeness of
// the trail, and the outbox makes failures rare.
func (s *Service) auditDecision(ctx context.Context, req CheckRequest, decision Decision) {
	if s.auditor == nil {
		return
	}

	outcome := "denied"
	if decision.Allowed {
		outcome = "allowed"
	}

	event := audit.Event{
		TenantID:     req.TenantID,
		ActorID:      req.ActorID,
		Action:       string(audit.EventDecisionMade),
		ResourceType: string(req.ResourceType),
		Decision:     outcome,
		Reason:       string(decision.Reason),
	}
	if req.Resource != nil {
		event.ResourceID = req.Resource.ID.String()
	}

	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit decision",
			"tenant_id", req.TenantID,
			"actor_id", req.ActorID,
			"action", req.Action,
			"error", err,
		)
	}
}
