package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuditMetrics defines the interface for recording audit writer metrics.
// The writer persists entries asynchronously, so queue depth and drop counts
// are the primary signals that the trail is falling behind its traffic.
type AuditMetrics interface {
	// RecordEnqueued adjusts the queue depth gauge when an entry enters the queue.
	RecordEnqueued(ctx context.Context)

	// RecordDequeued adjusts the queue depth gauge when an entry leaves the queue.
	RecordDequeued(ctx context.Context)

	// RecordDropped counts an entry rejected because the queue was full.
	RecordDropped(ctx context.Context)

	// RecordPersisted counts a successfully persisted entry.
	RecordPersisted(ctx context.Context)

	// RecordPersistFailure counts a failed persistence attempt. Terminal marks
	// the entry as abandoned after the retry budget is spent.
	RecordPersistFailure(ctx context.Context, terminal bool)
}

// auditMetrics implements AuditMetrics using OpenTelemetry metrics.
type auditMetrics struct {
	queueDepth     metric.Int64UpDownCounter
	droppedCounter metric.Int64Counter
	persistCounter metric.Int64Counter
	failureCounter metric.Int64Counter
}

// NewAuditMetrics creates a new AuditMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names.
func NewAuditMetrics(meterProvider metric.MeterProvider, namespace string) (AuditMetrics, error) {
	meter := meterProvider.Meter(namespace)

	queueDepth, err := meter.Int64UpDownCounter(
		fmt.Sprintf("%s_audit_queue_depth", namespace),
		metric.WithDescription("Number of audit entries waiting for persistence"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue depth gauge: %w", err)
	}

	droppedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_audit_entries_dropped_total", namespace),
		metric.WithDescription("Total number of audit entries dropped because the queue was full"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dropped counter: %w", err)
	}

	persistCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_audit_entries_persisted_total", namespace),
		metric.WithDescription("Total number of audit entries persisted to durable storage"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create persisted counter: %w", err)
	}

	failureCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_audit_persist_failures_total", namespace),
		metric.WithDescription("Total number of failed audit persistence attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create failure counter: %w", err)
	}

	return &auditMetrics{
		queueDepth:     queueDepth,
		droppedCounter: droppedCounter,
		persistCounter: persistCounter,
		failureCounter: failureCounter,
	}, nil
}

// RecordEnqueued increments the queue depth gauge.
func (a *auditMetrics) RecordEnqueued(ctx context.Context) {
	a.queueDepth.Add(ctx, 1)
}

// RecordDequeued decrements the queue depth gauge.
func (a *auditMetrics) RecordDequeued(ctx context.Context) {
	a.queueDepth.Add(ctx, -1)
}

// RecordDropped increments the dropped entries counter.
func (a *auditMetrics) RecordDropped(ctx context.Context) {
	a.droppedCounter.Add(ctx, 1)
}

// RecordPersisted increments the persisted entries counter.
func (a *auditMetrics) RecordPersisted(ctx context.Context) {
	a.persistCounter.Add(ctx, 1)
}

// RecordPersistFailure increments the failure counter with a terminal label.
func (a *auditMetrics) RecordPersistFailure(ctx context.Context, terminal bool) {
	a.failureCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("terminal", terminal)),
	)
}

// NoOpAuditMetrics is a no-op implementation of AuditMetrics for when metrics are disabled.
type NoOpAuditMetrics struct{}

// NewNoOpAuditMetrics creates a no-op AuditMetrics implementation.
func NewNoOpAuditMetrics() AuditMetrics {
	return &NoOpAuditMetrics{}
}

// RecordEnqueued does nothing when metrics are disabled.
func (n *NoOpAuditMetrics) RecordEnqueued(ctx context.Context) {}

// RecordDequeued does nothing when metrics are disabled.
func (n *NoOpAuditMetrics) RecordDequeued(ctx context.Context) {}

// RecordDropped does nothing when metrics are disabled.
func (n *NoOpAuditMetrics) RecordDropped(ctx context.Context) {}

// RecordPersisted does nothing when metrics are disabled.
func (n *NoOpAuditMetrics) RecordPersisted(ctx context.Context) {}

// RecordPersistFailure does nothing when metrics are disabled.
func (n *NoOpAuditMetrics) RecordPersistFailure(ctx context.Context, terminal bool) {}
