package audit

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultBuffer is the channel size used when NewRecorder is given zero.
const DefaultBuffer = 256

// Recorder writes audit entries asynchronously. Entries are queued on a
// buffered channel and written serially by one goroutine, which suits
// SQLite's single writer. When the buffer is full the entry is dropped and
// a warning logged, so request latency never depends on the audit write.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
	ch     chan *AuditLog

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	dropped uint64
}

// NewRecorder creates a Recorder. Call Run to start draining.
func NewRecorder(repo Repository, buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Recorder{
		repo:   repo,
		logger: logger,
		ch:     make(chan *AuditLog, buffer),
		done:   make(chan struct{}),
	}
}

// Record enqueues an entry. It never blocks.
func (r *Recorder) Record(entry *AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.ch <- entry:
	default:
		r.dropped++
		r.logger.Warn("audit log channel full, dropping entry",
			"action", entry.Action,
			"entity_type", entry.EntityType,
		)
	}
}

// Dropped returns how many entries were discarded because the buffer was full.
func (r *Recorder) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Run writes queued entries until ctx is cancelled, then drains what is
// left and returns.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case entry := <-r.ch:
			r.write(entry)
		case <-ctx.Done():
			r.mu.Lock()
			r.closed = true
			r.mu.Unlock()
			for {
				select {
				case entry := <-r.ch:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (r *Recorder) Wait() {
	<-r.done
}

func (r *Recorder) write(entry *AuditLog) {
	// The request that produced the entry may already be gone.
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit log write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
	}
}
