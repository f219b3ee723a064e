package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	"github.com/allisson/compliance/internal/metrics"
)

// WriterConfig holds entry writer configuration.
type WriterConfig struct {
	// QueueSize is the capacity of the in-memory queue ahead of persistence.
	QueueSize int
	// MaxRetries is the number of persistence attempts per entry.
	MaxRetries int
	// RetryInterval is the backoff base between attempts (linear backoff).
	RetryInterval time.Duration
	// PersistTimeout bounds a single storage call.
	PersistTimeout time.Duration
}

// entryWriter persists queued entries on a single background goroutine.
// Ordering within the queue is preserved; a stalled store delays but never
// blocks request handling.
type entryWriter struct {
	config       WriterConfig
	entryRepo    EntryRepository
	logger       *slog.Logger
	auditMetrics metrics.AuditMetrics

	mu     sync.RWMutex
	closed bool
	queue  chan *auditDomain.Entry
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewEntryWriter creates an EntryWriter with a bounded queue.
func NewEntryWriter(
	config WriterConfig,
	entryRepo EntryRepository,
	logger *slog.Logger,
	auditMetrics metrics.AuditMetrics,
) EntryWriter {
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if config.PersistTimeout <= 0 {
		config.PersistTimeout = 5 * time.Second
	}

	return &entryWriter{
		config:       config,
		entryRepo:    entryRepo,
		logger:       logger,
		auditMetrics: auditMetrics,
		queue:        make(chan *auditDomain.Entry, config.QueueSize),
		done:         make(chan struct{}),
	}
}

// Start launches the background persistence loop. Safe to call more than once.
func (w *entryWriter) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Enqueue hands an entry to the writer without blocking. Returns false when
// the writer is shut down or the queue is full; the drop is counted either way.
func (w *entryWriter) Enqueue(entry *auditDomain.Entry) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.auditMetrics.RecordDropped(context.Background())
		return false
	}

	select {
	case w.queue <- entry:
		w.auditMetrics.RecordEnqueued(context.Background())
		return true
	default:
		w.auditMetrics.RecordDropped(context.Background())
		w.logger.Warn("audit entry dropped, queue full",
			slog.String("entry_id", entry.ID),
			slog.String("action", entry.Action),
			slog.Int("queue_size", w.config.QueueSize),
		)
		return false
	}
}

// Shutdown closes the queue and waits for the loop to drain it.
func (w *entryWriter) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
	})

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run consumes the queue until it is closed and drained.
func (w *entryWriter) run() {
	defer close(w.done)

	for entry := range w.queue {
		w.auditMetrics.RecordDequeued(context.Background())
		w.persist(entry)
	}
}

// persist attempts to store one entry, retrying with linear backoff. An entry
// that exhausts its retry budget is abandoned with an error log carrying its
// full identity, so the loss is at least observable.
func (w *entryWriter) persist(entry *auditDomain.Entry) {
	var lastErr error

	for attempt := 1; attempt <= w.config.MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), w.config.PersistTimeout)
		err := w.entryRepo.Create(ctx, entry)
		cancel()

		if err == nil {
			w.auditMetrics.RecordPersisted(context.Background())
			return
		}

		lastErr = err
		terminal := attempt == w.config.MaxRetries
		w.auditMetrics.RecordPersistFailure(context.Background(), terminal)

		if !terminal {
			time.Sleep(w.config.RetryInterval * time.Duration(attempt))
		}
	}

	w.logger.Error("audit entry abandoned after retries",
		slog.String("entry_id", entry.ID),
		slog.String("action", entry.Action),
		slog.String("user_id", entry.UserID),
		slog.Int("max_retries", w.config.MaxRetries),
		slog.Any("error", lastErr),
	)
}
