// Package usecase implements the audit trail business logic: classification,
// fire-and-forget logging ahead of durable persistence, and filtered queries.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
)

// EntryRepository defines audit entry persistence operations. The trail is
// append-only: there is no update operation, and deletion exists only for the
// offline retention job.
type EntryRepository interface {
	// Create persists a single entry.
	Create(ctx context.Context, entry *auditDomain.Entry) error

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, filter *auditDomain.EntryFilter) ([]*auditDomain.Entry, error)

	// Stats aggregates the whole trail.
	Stats(ctx context.Context) (*auditDomain.Stats, error)

	// CountOlderThan counts entries with a timestamp before the cutoff.
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOlderThan removes entries with a timestamp before the cutoff and
	// returns the number removed. Only the retention job calls this.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EntryWriter decouples request handling from durable persistence. Enqueue
// never blocks: when the queue is full the entry is dropped and counted.
type EntryWriter interface {
	// Start launches the background persistence loop.
	Start()

	// Enqueue hands an entry to the writer. Returns false when the queue is
	// full and the entry was dropped.
	Enqueue(entry *auditDomain.Entry) bool

	// Shutdown stops accepting entries and drains the queue. Returns the
	// context error if draining does not finish in time.
	Shutdown(ctx context.Context) error
}

// AuditTrailUseCase defines the audit trail business operations.
type AuditTrailUseCase interface {
	// LogEntry records one operation. Missing classification fields are derived
	// from Method and Endpoint; ID and Timestamp are always assigned here.
	// Persistence is asynchronous and logging never fails the caller: the
	// assigned entry ID is returned unconditionally.
	LogEntry(ctx context.Context, input *auditDomain.EntryInput) string

	// LogDataAccess records a read of the audit trail itself, so consulting the
	// trail is part of the trail.
	LogDataAccess(ctx context.Context, access DataAccess) string

	// ListEntries returns entries matching the filter, newest first, with
	// pagination normalized to the service limits.
	ListEntries(ctx context.Context, filter *auditDomain.EntryFilter) ([]*auditDomain.Entry, error)

	// Stats aggregates the whole trail.
	Stats(ctx context.Context) (*auditDomain.Stats, error)

	// DeleteOlderThan removes entries older than the cutoff inside a single
	// transaction and returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DataAccess describes a read against a sensitive surface for self-auditing.
type DataAccess struct {
	UserID    string
	UserName  string
	UserRole  string
	SessionID string
	Method    string
	Endpoint  string
	IPAddress string
	UserAgent string
	Details   string
}
