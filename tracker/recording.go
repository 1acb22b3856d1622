package tracker

import (
	"context"
	"log/slog"
	"time"
)

// CallRecord captures one tracker call for later inspection.
type CallRecord struct {
	Op        string
	Arg       string
	Err       string
	StartedAt time.Time
	Duration  time.Duration
}

// RecordingClient wraps a Client and journals every call. The journal makes
// the synchronizer's ordering and duplicate-suppression behavior observable
// in tests, and debug logging makes it observable in real runs.
type RecordingClient struct {
	inner  Client
	logger *slog.Logger
	calls  []CallRecord
}

// NewRecordingClient wraps a client with call recording.
func NewRecordingClient(inner Client, logger *slog.Logger) *RecordingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordingClient{inner: inner, logger: logger}
}

// Calls returns the journal of recorded calls in invocation order.
func (r *RecordingClient) Calls() []CallRecord {
	return r.calls
}

// IsAvailable implements Client.
func (r *RecordingClient) IsAvailable(ctx context.Context) bool {
	start := time.Now()
	ok := r.inner.IsAvailable(ctx)
	r.record("is_available", "", nil, start)
	return ok
}

// FindByProvenance implements Client.
func (r *RecordingClient) FindByProvenance(ctx context.Context, provenance string) (*Issue, error) {
	start := time.Now()
	issue, err := r.inner.FindByProvenance(ctx, provenance)
	r.record("find_by_provenance", provenance, err, start)
	return issue, err
}

// Create implements Client.
func (r *RecordingClient) Create(ctx context.Context, issue NewIssue) (*Issue, error) {
	start := time.Now()
	created, err := r.inner.Create(ctx, issue)
	r.record("create", issue.Title, err, start)
	return created, err
}

func (r *RecordingClient) record(op, arg string, err error, start time.Time) {
	rec := CallRecord{
		Op:        op,
		Arg:       arg,
		StartedAt: start,
		Duration:  time.Since(start),
	}
	if err != nil {
		rec.Err = err.Error()
	}
	r.calls = append(r.calls, rec)

	r.logger.Debug("Tracker call",
		"op", op,
		"arg", arg,
		"duration_ms", rec.Duration.Milliseconds(),
		"error", rec.Err)
}
