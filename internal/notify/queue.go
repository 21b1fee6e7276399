package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("notify: queue is full")
	ErrQueueClosed = errors.New("notify: queue is closed")
)

const sendTimeout = 30 * time.Second

// Queue delivers e-mails from a bounded in-process buffer using a fixed set
// of worker goroutines. Messages still buffered when the process exits are
// lost; use TaskQueue when delivery must survive restarts.
type Queue struct {
	jobs   chan Email
	mailer Mailer
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts workers goroutines draining a buffer of size messages.
func NewQueue(mailer Mailer, workers, size int, log *zap.Logger) *Queue {
	q := &Queue{
		jobs:   make(chan Email, size),
		mailer: mailer,
		log:    log,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Dispatch never blocks: a full buffer is reported as ErrQueueFull.
func (q *Queue) Dispatch(_ context.Context, e Email) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits until the buffer is drained.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for e := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := q.mailer.Send(ctx, e)
		cancel()
		if err != nil {
			q.log.Warn("e-mail delivery failed",
				zap.String("id", e.ID),
				zap.String("to", e.To),
				zap.String("template", string(e.Template)),
				zap.Error(err),
			)
			continue
		}
		q.log.Debug("e-mail delivered", zap.String("id", e.ID), zap.String("template", string(e.Template)))
	}
}
