// Package audit persists security events off the request path.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// Recorder buffers events on a channel and writes them from a single worker
// goroutine. Record never blocks a request: when the queue is full the event
// is dropped with a warning.
type Recorder struct {
	repo   domain.AuditRepository
	logger *slog.Logger

	events chan domain.AuditEvent
	done   chan struct{}
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

func NewRecorder(repo domain.AuditRepository, logger *slog.Logger) *Recorder {
	r := &Recorder{
		repo:   repo,
		logger: logger,
		events: make(chan domain.AuditEvent, defaultQueueSize),
		done:   make(chan struct{}),
	}
	go r.run()

	return r
}

func (r *Recorder) Record(event domain.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	// The lock orders Record against Close: once closed is set the channel
	// may be closed at any moment, so the send must not be attempted.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("audit recorder closed, dropping event",
			slog.String("action", event.Action),
			slog.String("user_id", event.UserID),
		)
		return
	}

	select {
	case r.events <- event:
	default:
		r.logger.Warn("audit queue full, dropping event",
			slog.String("action", event.Action),
			slog.String("user_id", event.UserID),
		)
	}
}

// Close drains queued events and stops the worker.
func (r *Recorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		close(r.events)
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)

	for event := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Insert(ctx, &event); err != nil {
			r.logger.Error("failed to persist audit event",
				slog.String("action", event.Action),
				slog.String("user_id", event.UserID),
				slog.Any("error", err),
			)
		}
		cancel()
	}
}
