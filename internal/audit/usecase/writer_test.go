package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	"github.com/allisson/compliance/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingEntryRepository captures created entries and can fail a configured
// number of attempts per entry.
type recordingEntryRepository struct {
	mu           sync.Mutex
	created      []*auditDomain.Entry
	attempts     map[string]int
	failuresLeft map[string]int
	alwaysFail   bool
}

func newRecordingEntryRepository() *recordingEntryRepository {
	return &recordingEntryRepository{
		attempts:     make(map[string]int),
		failuresLeft: make(map[string]int),
	}
}

func (r *recordingEntryRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts[entry.ID]++
	if r.alwaysFail {
		return errors.New("storage down")
	}
	if r.failuresLeft[entry.ID] > 0 {
		r.failuresLeft[entry.ID]--
		return errors.New("transient failure")
	}

	r.created = append(r.created, entry)
	return nil
}

func (r *recordingEntryRepository) List(
	ctx context.Context,
	filter *auditDomain.EntryFilter,
) ([]*auditDomain.Entry, error) {
	return nil, nil
}

func (r *recordingEntryRepository) Stats(ctx context.Context) (*auditDomain.Stats, error) {
	return nil, nil
}

func (r *recordingEntryRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingEntryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingEntryRepository) createdIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.created))
	for _, entry := range r.created {
		ids = append(ids, entry.ID)
	}
	return ids
}

func (r *recordingEntryRepository) attemptsFor(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[id]
}

var _ EntryRepository = (*recordingEntryRepository)(nil)

func testWriterConfig() WriterConfig {
	return WriterConfig{
		QueueSize:      8,
		MaxRetries:     3,
		RetryInterval:  time.Millisecond,
		PersistTimeout: time.Second,
	}
}

func testEntry(id string) *auditDomain.Entry {
	return &auditDomain.Entry{ID: id, Action: "read", UserID: "u-1"}
}

func TestEntryWriter_PersistsEnqueuedEntries(t *testing.T) {
	repo := newRecordingEntryRepository()
	writer := NewEntryWriter(testWriterConfig(), repo, slog.Default(), metrics.NewNoOpAuditMetrics())
	writer.Start()

	assert.True(t, writer.Enqueue(testEntry("e-1")))
	assert.True(t, writer.Enqueue(testEntry("e-2")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Shutdown(ctx))

	assert.Equal(t, []string{"e-1", "e-2"}, repo.createdIDs())
}

func TestEntryWriter_RetriesTransientFailures(t *testing.T) {
	repo := newRecordingEntryRepository()
	repo.failuresLeft["e-1"] = 2

	writer := NewEntryWriter(testWriterConfig(), repo, slog.Default(), metrics.NewNoOpAuditMetrics())
	writer.Start()

	assert.True(t, writer.Enqueue(testEntry("e-1")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Shutdown(ctx))

	assert.Equal(t, []string{"e-1"}, repo.createdIDs())
	assert.Equal(t, 3, repo.attemptsFor("e-1"))
}

func TestEntryWriter_AbandonsAfterRetryBudget(t *testing.T) {
	repo := newRecordingEntryRepository()
	repo.alwaysFail = true

	writer := NewEntryWriter(testWriterConfig(), repo, slog.Default(), metrics.NewNoOpAuditMetrics())
	writer.Start()

	assert.True(t, writer.Enqueue(testEntry("e-1")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Shutdown(ctx))

	assert.Empty(t, repo.createdIDs())
	assert.Equal(t, 3, repo.attemptsFor("e-1"))
}

func TestEntryWriter_DropsWhenQueueFull(t *testing.T) {
	repo := newRecordingEntryRepository()
	config := testWriterConfig()
	config.QueueSize = 2

	// Not started: the queue cannot drain, so the third entry must be dropped.
	writer := NewEntryWriter(config, repo, slog.Default(), metrics.NewNoOpAuditMetrics())

	assert.True(t, writer.Enqueue(testEntry("e-1")))
	assert.True(t, writer.Enqueue(testEntry("e-2")))
	assert.False(t, writer.Enqueue(testEntry("e-3")))

	writer.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Shutdown(ctx))

	assert.Equal(t, []string{"e-1", "e-2"}, repo.createdIDs())
}

func TestEntryWriter_EnqueueAfterShutdownIsRejected(t *testing.T) {
	repo := newRecordingEntryRepository()
	writer := NewEntryWriter(testWriterConfig(), repo, slog.Default(), metrics.NewNoOpAuditMetrics())
	writer.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Shutdown(ctx))

	assert.False(t, writer.Enqueue(testEntry("e-1")))
	assert.Empty(t, repo.createdIDs())
}

func TestEntryWriter_ShutdownIsIdempotent(t *testing.T) {
	repo := newRecordingEntryRepository()
	writer := NewEntryWriter(testWriterConfig(), repo, slog.Default(), metrics.NewNoOpAuditMetrics())
	writer.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Shutdown(ctx))
	require.NoError(t, writer.Shutdown(ctx))
}
