package core

import (
	"context"
	"errors"
	"time"

	"btocore/internal/infra/persistence/memory"
	"btocore/pkg/domain"

	"github.com/google/uuid"
)

// Service is the orchestration façade over the allocation engine. Every
// mutating operation runs as one store transaction so a failed guard leaves
// no partial writes behind.
type Service struct {
	store        domain.PersistentStore
	engine       *domain.RulesEngine
	clock        Clock
	now          func() time.Time
	logger       Logger
	audit        AuditRecorder
	metrics      MetricsRecorder
	tracer       Tracer
	deletePolicy DeletePolicy
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the business clock. Stores that accept a time provider
// stamp records with the same clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink for mutating operations.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithDeletePolicy controls whether projects may be deleted while their
// application window is open.
func WithDeletePolicy(policy DeletePolicy) Option {
	return func(s *Service) {
		if policy.Valid() {
			s.deletePolicy = policy
		}
	}
}

type rulesEngineProvider interface {
	RulesEngine() *domain.RulesEngine
}

type nowFuncProvider interface {
	NowFunc() func() time.Time
}

type nowFuncSetter interface {
	SetNowFunc(func() time.Time)
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	svc := &Service{
		store:        store,
		logger:       noopLogger{},
		audit:        noopAuditRecorder{},
		metrics:      noopMetricsRecorder{},
		tracer:       noopTracer{},
		deletePolicy: DeletePolicyForbidOpen,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.engine = extractRulesEngine(store)
	svc.now = selectNowFunc(store, svc.clock)
	if svc.clock != nil {
		if setter, ok := store.(nowFuncSetter); ok {
			setter.SetNowFunc(svc.clock.Now)
		}
	}
	return svc
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine installs the default rule set.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// RulesEngine returns the engine evaluated on every commit, if the store exposes one.
func (s *Service) RulesEngine() *domain.RulesEngine { return s.engine }

// Now returns the service's current business time.
func (s *Service) Now() time.Time { return s.now() }

func extractRulesEngine(store domain.PersistentStore) *domain.RulesEngine {
	if provider, ok := store.(rulesEngineProvider); ok {
		return provider.RulesEngine()
	}
	return nil
}

// selectNowFunc prefers an explicit clock, then the store's time provider,
// then the system clock.
func selectNowFunc(store domain.PersistentStore, clock Clock) func() time.Time {
	if clock != nil {
		return func() time.Time { return clock.Now().UTC() }
	}
	if provider, ok := store.(nowFuncProvider); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	return func() time.Time { return time.Now().UTC() }
}

type operationMeta struct {
	entity domain.EntityType
	action domain.Action
}

var auditedOperations = map[string]operationMeta{
	"register_user":        {domain.EntityUser, domain.ActionCreate},
	"create_project":       {domain.EntityProject, domain.ActionCreate},
	"edit_project":         {domain.EntityProject, domain.ActionUpdate},
	"delete_project":       {domain.EntityProject, domain.ActionDelete},
	"toggle_visibility":    {domain.EntityProject, domain.ActionUpdate},
	"register_officer":     {domain.EntityProject, domain.ActionUpdate},
	"approve_registration": {domain.EntityProject, domain.ActionUpdate},
	"reject_registration":  {domain.EntityProject, domain.ActionUpdate},
	"apply":                {domain.EntityApplication, domain.ActionCreate},
	"approve_application":  {domain.EntityApplication, domain.ActionUpdate},
	"reject_application":   {domain.EntityApplication, domain.ActionUpdate},
	"book_application":     {domain.EntityApplication, domain.ActionUpdate},
	"request_withdrawal":   {domain.EntityApplication, domain.ActionUpdate},
	"approve_withdrawal":   {domain.EntityApplication, domain.ActionUpdate},
	"reject_withdrawal":    {domain.EntityApplication, domain.ActionUpdate},
	"submit_enquiry":       {domain.EntityEnquiry, domain.ActionCreate},
	"edit_enquiry":         {domain.EntityEnquiry, domain.ActionUpdate},
	"delete_enquiry":       {domain.EntityEnquiry, domain.ActionDelete},
	"reply_enquiry":        {domain.EntityEnquiry, domain.ActionUpdate},
}

// run wraps an operation with tracing, metrics, audit, and logging. fn
// returns the key of the entity it touched.
func (s *Service) run(ctx context.Context, op, actor string, fn func(context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	key, err := fn(ctx)
	duration := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	s.recordAudit(ctx, op, actor, key, duration, err)

	switch {
	case err == nil:
		s.logger.Debug("operation completed", "operation", op, "actor", actor, "key", key, "duration", duration)
	case isBusinessError(err):
		s.logger.Warn("operation rejected", "operation", op, "actor", actor, "kind", string(domain.KindOf(err)), "error", err)
	default:
		s.logger.Error("operation failed", "operation", op, "actor", actor, "error", err)
	}
	return err
}

func isBusinessError(err error) bool {
	if domain.KindOf(err) != "" {
		return true
	}
	var violation domain.RuleViolationError
	return errors.As(err, &violation)
}

// mutate runs fn inside one store transaction under run.
func (s *Service) mutate(ctx context.Context, op, actor string, fn func(tx domain.Transaction) (string, error)) (domain.Result, error) {
	var res domain.Result
	err := s.run(ctx, op, actor, func(ctx context.Context) (string, error) {
		var key string
		r, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var txErr error
			key, txErr = fn(tx)
			return txErr
		})
		res = r
		return key, err
	})
	return res, err
}

func (s *Service) recordAudit(ctx context.Context, op, actor, key string, duration time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		ID:        uuid.NewString(),
		Operation: op,
		Actor:     actor,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  key,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		entry.ErrorKind = domain.KindOf(err)
	}
	s.audit.Record(ctx, entry)
}
