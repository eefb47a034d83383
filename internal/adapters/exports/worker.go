// Package exports runs booking report and snapshot backup jobs in the
// background and tracks their progress.
package exports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"btocore/internal/blob"
	"btocore/internal/core"

	"github.com/google/uuid"
)

// Kind names the job an export runs.
type Kind string

// Supported export kinds.
const (
	KindBookingReport Kind = "booking_report"
	KindBackup        Kind = "snapshot_backup"
)

// Status describes the lifecycle stage of an export.
type Status string

// Export lifecycle.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions follow.
func (s Status) Terminal() bool { return s == StatusSucceeded || s == StatusFailed }

// Record tracks one export request and the artifacts it produced.
type Record struct {
	ID          string              `json:"id"`
	Kind        Kind                `json:"kind"`
	Filter      core.BookingFilter  `json:"filter"`
	Formats     []core.ExportFormat `json:"formats,omitempty"`
	Status      Status              `json:"status"`
	Error       string              `json:"error,omitempty"`
	Artifacts   []blob.Info         `json:"artifacts,omitempty"`
	RequestedBy string              `json:"requested_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]core.ExportFormat(nil), r.Formats...)
	dup.Artifacts = append([]blob.Info(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		dup.CompletedAt = &at
	}
	return dup
}

// Input is an enqueue request.
type Input struct {
	Kind        Kind
	Filter      core.BookingFilter
	Formats     []core.ExportFormat
	RequestedBy string
}

// Exporter produces artifacts. *core.Service implements it.
type Exporter interface {
	ExportBookingReport(ctx context.Context, store blob.Store, filter core.BookingFilter, format core.ExportFormat) (blob.Info, error)
	BackupSnapshot(ctx context.Context, store blob.Store) (blob.Info, error)
}

var _ Exporter = (*core.Service)(nil)

// ErrQueueFull is returned when the worker cannot accept more jobs.
var ErrQueueFull = errors.New("export queue full")

// ErrWorkerStopped is returned by Enqueue after Stop and recorded on jobs
// that were still queued when the worker stopped.
var ErrWorkerStopped = errors.New("export worker stopped")

// DefaultQueueSize bounds pending jobs.
const DefaultQueueSize = 32

// Worker executes exports one at a time in a background goroutine.
type Worker struct {
	exporter Exporter
	store    blob.Store
	audit    core.AuditRecorder
	logger   core.Logger

	queue   chan string
	mu      sync.RWMutex
	jobs    map[string]*Record
	done    map[string]chan struct{}
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithAudit records job outcomes.
func WithAudit(audit core.AuditRecorder) WorkerOption {
	return func(w *Worker) { w.audit = audit }
}

// WithLogger sets the worker logger.
func WithLogger(logger core.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

// NewWorker constructs a worker writing artifacts to store.
func NewWorker(exporter Exporter, store blob.Store, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		exporter: exporter,
		store:    store,
		queue:    make(chan string, DefaultQueueSize),
		jobs:     make(map[string]*Record),
		done:     make(map[string]chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing queued exports.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop halts the worker and waits for the running job, bounded by ctx. Jobs
// still queued are marked failed with ErrWorkerStopped.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.cancel()
	w.abandonQueued()
	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			if w.ctx.Err() != nil {
				w.abandon(id)
				return
			}
			w.process(id)
		}
	}
}

func (w *Worker) abandonQueued() {
	for {
		select {
		case id := <-w.queue:
			w.abandon(id)
		default:
			return
		}
	}
}

func (w *Worker) abandon(id string) {
	record, ok := w.Get(id)
	if !ok {
		return
	}
	now := time.Now().UTC()
	w.transition(id, func(r *Record) {
		r.Status = StatusFailed
		r.Error = ErrWorkerStopped.Error()
		r.CompletedAt = &now
	})
	w.finish(record, 0, 0, ErrWorkerStopped)
}

// Enqueue validates input and schedules the job.
func (w *Worker) Enqueue(_ context.Context, input Input) (Record, error) {
	formats, err := normaliseFormats(input)
	if err != nil {
		return Record{}, err
	}
	now := time.Now().UTC()
	record := Record{
		ID:          uuid.NewString(),
		Kind:        input.Kind,
		Filter:      input.Filter,
		Formats:     formats,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return Record{}, ErrWorkerStopped
	}
	select {
	case w.queue <- record.ID:
	default:
		w.mu.Unlock()
		return Record{}, ErrQueueFull
	}
	w.jobs[record.ID] = &record
	w.done[record.ID] = make(chan struct{})
	snapshot := record.copy()
	w.mu.Unlock()

	w.log().Debug("export queued", "export_id", record.ID, "kind", string(record.Kind), "requested_by", record.RequestedBy)
	return snapshot, nil
}

func normaliseFormats(input Input) ([]core.ExportFormat, error) {
	switch input.Kind {
	case KindBackup:
		return nil, nil
	case KindBookingReport:
	default:
		return nil, fmt.Errorf("unknown export kind %q", input.Kind)
	}
	if len(input.Formats) == 0 {
		return []core.ExportFormat{core.ExportJSON}, nil
	}
	seen := make(map[core.ExportFormat]struct{}, len(input.Formats))
	out := make([]core.ExportFormat, 0, len(input.Formats))
	for _, f := range input.Formats {
		if f != core.ExportJSON && f != core.ExportCSV {
			return nil, fmt.Errorf("unsupported export format %q", f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// Get returns a copy of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

// Wait blocks until the export finishes or ctx ends.
func (w *Worker) Wait(ctx context.Context, id string) (Record, error) {
	w.mu.RLock()
	done, ok := w.done[id]
	w.mu.RUnlock()
	if !ok {
		return Record{}, fmt.Errorf("export %s not found", id)
	}
	select {
	case <-done:
		record, _ := w.Get(id)
		return record, nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	}
}

func (w *Worker) process(id string) {
	record, ok := w.Get(id)
	if !ok {
		return
	}
	w.transition(id, func(r *Record) { r.Status = StatusRunning })
	started := time.Now()

	var artifacts []blob.Info
	var err error
	switch record.Kind {
	case KindBookingReport:
		for _, format := range record.Formats {
			var info blob.Info
			info, err = w.exporter.ExportBookingReport(w.ctx, w.store, record.Filter, format)
			if err != nil {
				break
			}
			artifacts = append(artifacts, info)
		}
	case KindBackup:
		var info blob.Info
		info, err = w.exporter.BackupSnapshot(w.ctx, w.store)
		if err == nil {
			artifacts = append(artifacts, info)
		}
	}

	now := time.Now().UTC()
	w.transition(id, func(r *Record) {
		r.Artifacts = artifacts
		r.CompletedAt = &now
		if err != nil {
			r.Status = StatusFailed
			r.Error = err.Error()
			return
		}
		r.Status = StatusSucceeded
	})
	w.finish(record, len(artifacts), time.Since(started), err)
}

func (w *Worker) transition(id string, mutate func(*Record)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if record, ok := w.jobs[id]; ok {
		mutate(record)
		record.UpdatedAt = time.Now().UTC()
	}
}

func (w *Worker) finish(record Record, artifacts int, duration time.Duration, err error) {
	w.mu.Lock()
	if done, ok := w.done[record.ID]; ok {
		close(done)
	}
	w.mu.Unlock()

	if err != nil {
		w.log().Error("export failed", "export_id", record.ID, "kind", string(record.Kind), "error", err)
	} else {
		w.log().Info("export completed", "export_id", record.ID, "kind", string(record.Kind), "artifacts", artifacts)
	}
	if w.audit == nil {
		return
	}
	entry := core.AuditEntry{
		ID:        uuid.NewString(),
		Operation: "export_" + string(record.Kind),
		Actor:     record.RequestedBy,
		EntityID:  record.ID,
		Status:    core.AuditStatusSuccess,
		Duration:  duration,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		entry.Status = core.AuditStatusError
		entry.Error = err.Error()
	}
	w.audit.Record(w.ctx, entry)
}

func (w *Worker) log() core.Logger {
	if w.logger == nil {
		return nopLogger{}
	}
	return w.logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
