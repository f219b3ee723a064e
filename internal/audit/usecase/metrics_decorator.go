package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	"github.com/allisson/compliance/internal/metrics"
)

// auditTrailUseCaseWithMetrics decorates AuditTrailUseCase with metrics instrumentation.
type auditTrailUseCaseWithMetrics struct {
	next    AuditTrailUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditTrailUseCaseWithMetrics wraps an AuditTrailUseCase with metrics recording.
func NewAuditTrailUseCaseWithMetrics(useCase AuditTrailUseCase, m metrics.BusinessMetrics) AuditTrailUseCase {
	return &auditTrailUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// LogEntry records metrics for entry logging operations.
func (a *auditTrailUseCaseWithMetrics) LogEntry(ctx context.Context, input *auditDomain.EntryInput) string {
	start := time.Now()
	entryID := a.next.LogEntry(ctx, input)

	a.metrics.RecordOperation(ctx, "audit", "entry_log", "success")
	a.metrics.RecordDuration(ctx, "audit", "entry_log", time.Since(start), "success")

	return entryID
}

// LogDataAccess records metrics for self-auditing operations.
func (a *auditTrailUseCaseWithMetrics) LogDataAccess(ctx context.Context, access DataAccess) string {
	start := time.Now()
	entryID := a.next.LogDataAccess(ctx, access)

	a.metrics.RecordOperation(ctx, "audit", "data_access_log", "success")
	a.metrics.RecordDuration(ctx, "audit", "data_access_log", time.Since(start), "success")

	return entryID
}

// ListEntries records metrics for query operations.
func (a *auditTrailUseCaseWithMetrics) ListEntries(
	ctx context.Context,
	filter *auditDomain.EntryFilter,
) ([]*auditDomain.Entry, error) {
	start := time.Now()
	entries, err := a.next.ListEntries(ctx, filter)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "entry_list", status)
	a.metrics.RecordDuration(ctx, "audit", "entry_list", time.Since(start), status)

	return entries, err
}

// Stats records metrics for aggregation operations.
func (a *auditTrailUseCaseWithMetrics) Stats(ctx context.Context) (*auditDomain.Stats, error) {
	start := time.Now()
	stats, err := a.next.Stats(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "stats", status)
	a.metrics.RecordDuration(ctx, "audit", "stats", time.Since(start), status)

	return stats, err
}

// DeleteOlderThan records metrics for retention operations.
func (a *auditTrailUseCaseWithMetrics) DeleteOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	start := time.Now()
	deleted, err := a.next.DeleteOlderThan(ctx, cutoff)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "retention_delete", status)
	a.metrics.RecordDuration(ctx, "audit", "retention_delete", time.Since(start), status)

	return deleted, err
}
