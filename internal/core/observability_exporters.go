package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"btocore/pkg/domain"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes per-operation latency totals and outcome
// counters via expvar.
type ExpvarMetricsRecorder struct {
	name    string
	mu      sync.Mutex
	totals  map[string]float64
	counts  map[string]map[AuditStatus]int64
	slowest map[string]float64
}

// ExpvarMetricsSnapshot is a point in time copy of the recorder state.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64               `json:"durations_ms_total"`
	MaxMS       map[string]float64               `json:"durations_ms_max"`
	Results     map[string]map[AuditStatus]int64 `json:"results_total"`
	RecordedAt  time.Time                        `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated btocore_service_metrics_N name when name is empty.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("btocore_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:    name,
		totals:  make(map[string]float64),
		counts:  make(map[string]map[AuditStatus]int64),
		slowest: make(map[string]float64),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.totals)),
		MaxMS:       make(map[string]float64, len(r.slowest)),
		Results:     make(map[string]map[AuditStatus]int64, len(r.counts)),
		RecordedAt:  time.Now().UTC(),
	}
	for op, total := range r.totals {
		snap.DurationsMS[op] = total
	}
	for op, ms := range r.slowest {
		snap.MaxMS[op] = ms
	}
	for op, byStatus := range r.counts {
		cpy := make(map[AuditStatus]int64, len(byStatus))
		for status, n := range byStatus {
			cpy[status] = n
		}
		snap.Results[op] = cpy
	}
	return snap
}

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)
	status := AuditStatusError
	if success {
		status = AuditStatusSuccess
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals[operation] += ms
	if ms > r.slowest[operation] {
		r.slowest[operation] = ms
	}
	if r.counts[operation] == nil {
		r.counts[operation] = make(map[AuditStatus]int64, 2)
	}
	r.counts[operation][status]++
}

// JSONTraceEntry is one finished span as written by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes spans as JSON lines and keeps them for inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer returns a tracer writing to w. A nil writer only retains spans.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of the finished spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
	once      sync.Once
}

func (s *jsonTraceSpan) End(err error) {
	s.once.Do(func() {
		ended := time.Now().UTC()
		entry := JSONTraceEntry{
			Operation:  s.operation,
			Status:     string(AuditStatusSuccess),
			DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
			StartedAt:  s.started,
			EndedAt:    ended,
		}
		if err != nil {
			entry.Status = string(AuditStatusError)
			entry.Error = err.Error()
			entry.ErrorKind = string(domain.KindOf(err))
		}
		s.tracer.mu.Lock()
		defer s.tracer.mu.Unlock()
		s.tracer.entries = append(s.tracer.entries, entry)
		if s.tracer.enc != nil {
			_ = s.tracer.enc.Encode(entry)
		}
	})
}

// MemoryAuditLog keeps audit entries in memory.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record implements AuditRecorder.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns recorded entries ordered by timestamp, then operation.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	out := append([]AuditEntry(nil), l.entries...)
	l.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// LoggerAuditRecorder forwards audit entries to a structured logger at Info.
type LoggerAuditRecorder struct {
	Logger Logger
}

// Record implements AuditRecorder.
func (r LoggerAuditRecorder) Record(_ context.Context, e AuditEntry) {
	if r.Logger == nil {
		return
	}
	args := []any{
		"audit_id", e.ID,
		"operation", e.Operation,
		"actor", e.Actor,
		"entity", string(e.Entity),
		"action", string(e.Action),
		"entity_id", e.EntityID,
		"status", string(e.Status),
		"duration", e.Duration,
	}
	if e.Status == AuditStatusError {
		args = append(args, "error_kind", string(e.ErrorKind), "error", e.Error)
	}
	r.Logger.Info("audit", args...)
}
