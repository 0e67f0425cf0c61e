package command

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/udisondev/mudcore/internal/errs"
)

const (
	DefaultQueueSize   = 32
	DefaultIdleTimeout = time.Minute
)

// ErrMailboxesClosed is returned by Submit after Close.
var ErrMailboxesClosed = errs.New(errs.CodeInvalidState, "mailboxes are closed")

type mailboxKey struct{}

// InMailbox reports whether ctx belongs to a job running on the mailbox
// of actorID. Such callers must run inline instead of submitting.
func InMailbox(ctx context.Context, actorID string) bool {
	id, ok := ctx.Value(mailboxKey{}).(string)
	return ok && id == actorID
}

type mailbox struct {
	jobs chan func(context.Context)
	// pending counts submitted jobs not yet finished; guarded by Mailboxes.mu.
	pending int
}

// Mailboxes runs jobs one at a time per actor. Each actor gets its own
// goroutine on first use; it exits after being idle for the idle timeout.
type Mailboxes struct {
	mu        sync.Mutex
	boxes     map[string]*mailbox
	queueSize int
	idle      time.Duration
	closed    bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewMailboxes(queueSize int, idle time.Duration) *Mailboxes {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Mailboxes{
		boxes:     make(map[string]*mailbox),
		queueSize: queueSize,
		idle:      idle,
		stopCh:    make(chan struct{}),
	}
}

// Submit queues fn on the actor's mailbox. It blocks while the queue is
// full, until ctx is done or the mailboxes are closed.
func (m *Mailboxes) Submit(ctx context.Context, actorID string, fn func(context.Context)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMailboxesClosed
	}
	mb, ok := m.boxes[actorID]
	if !ok {
		mb = &mailbox{jobs: make(chan func(context.Context), m.queueSize)}
		m.boxes[actorID] = mb
		m.wg.Add(1)
		go m.serve(actorID, mb)
	}
	mb.pending++
	m.mu.Unlock()

	select {
	case mb.jobs <- fn:
		return nil
	case <-ctx.Done():
		m.done(mb)
		return ctx.Err()
	case <-m.stopCh:
		m.done(mb)
		return ErrMailboxesClosed
	}
}

func (m *Mailboxes) done(mb *mailbox) {
	m.mu.Lock()
	mb.pending--
	m.mu.Unlock()
}

func (m *Mailboxes) serve(actorID string, mb *mailbox) {
	defer m.wg.Done()

	ctx := context.WithValue(context.Background(), mailboxKey{}, actorID)
	idle := time.NewTimer(m.idle)
	defer idle.Stop()

	for {
		select {
		case fn := <-mb.jobs:
			m.run(ctx, actorID, fn)
			m.done(mb)
			idle.Reset(m.idle)

		case <-idle.C:
			m.mu.Lock()
			if mb.pending == 0 {
				delete(m.boxes, actorID)
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()
			idle.Reset(m.idle)

		case <-m.stopCh:
			for {
				select {
				case fn := <-mb.jobs:
					m.run(ctx, actorID, fn)
					m.done(mb)
				default:
					return
				}
			}
		}
	}
}

func (m *Mailboxes) run(ctx context.Context, actorID string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("mailbox job panicked",
				"actor", actorID,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn(ctx)
}

// Len returns the number of live mailboxes.
func (m *Mailboxes) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.boxes)
}

// Close stops accepting jobs, runs what is already queued and waits for
// every mailbox goroutine to exit.
func (m *Mailboxes) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
}
