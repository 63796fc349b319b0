package ledger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subscription-ledger-go/internal/models"
)

// AnomalyKind classifies the data-quality conditions a handler can detect.
// None of them is fatal to the pipeline.
type AnomalyKind string

const (
	// DuplicateCreate: a creation event for an id that already has a
	// subscription record. The record is reinitialized (last-write-wins).
	DuplicateCreate AnomalyKind = "duplicate_create"
	// MissingPrerequisite: an event referencing a subscription, sender, or
	// recipient that does not exist. The event is skipped entirely.
	MissingPrerequisite AnomalyKind = "missing_prerequisite"
	// DuplicateLog: an audit log write collided on its idempotency key and
	// overwrote the prior record (re-delivery of the same logical event).
	DuplicateLog AnomalyKind = "duplicate_log"
	// UnknownEventKind: the event's kind discriminant matched no handler.
	UnknownEventKind AnomalyKind = "unknown_event_kind"
	// BadInterval: a creation event carried a zero interval; the withdrawable
	// count is recorded as zero instead of dividing by zero.
	BadInterval AnomalyKind = "bad_interval"
)

// Anomaly describes one detected condition and where it was found.
type Anomaly struct {
	Kind      AnomalyKind
	EventKind string
	Entity    string
	Key       string
	Message   string
}

// Reporter is the diagnostics sink for anomaly conditions. Implementations
// must never fail or abort the pipeline.
type Reporter interface {
	Report(ctx context.Context, a Anomaly)
}

// ZapReporter reports anomalies through the global zap logger.
type ZapReporter struct{}

func NewZapReporter() *ZapReporter {
	return &ZapReporter{}
}

func (r *ZapReporter) Report(_ context.Context, a Anomaly) {
	fields := []zap.Field{
		zap.String("kind", string(a.Kind)),
		zap.String("event_kind", a.EventKind),
		zap.String("entity", a.Entity),
		zap.String("key", a.Key),
	}
	switch a.Kind {
	case MissingPrerequisite:
		zap.L().Error(a.Message, fields...)
	default:
		zap.L().Warn(a.Message, fields...)
	}
}

// AnomalyRecorder persists anomaly records for an auditable trail. The SQLite
// backend implements it; the memory backend does not need to.
type AnomalyRecorder interface {
	RecordAnomaly(ctx context.Context, a models.Anomaly) error
}

// RecordingReporter decorates another Reporter with durable anomaly records.
// Persistence failures are logged and swallowed; diagnostics must not take
// the pipeline down.
type RecordingReporter struct {
	next     Reporter
	recorder AnomalyRecorder
}

func NewRecordingReporter(next Reporter, recorder AnomalyRecorder) *RecordingReporter {
	if next == nil {
		next = NewZapReporter()
	}
	return &RecordingReporter{next: next, recorder: recorder}
}

func (r *RecordingReporter) Report(ctx context.Context, a Anomaly) {
	r.next.Report(ctx, a)

	record := models.Anomaly{
		Id:        uuid.New().String(),
		Kind:      string(a.Kind),
		EventKind: a.EventKind,
		Entity:    a.Entity,
		Key:       a.Key,
		Message:   a.Message,
	}
	if err := r.recorder.RecordAnomaly(ctx, record); err != nil {
		zap.L().Warn("Failed to persist anomaly record",
			zap.String("kind", string(a.Kind)),
			zap.String("key", a.Key),
			zap.Error(err))
	}
}
