package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowmymeds/api/internal/domain/reminder"
)

// DeliveryFunc receives a reminder when its timer fires.
type DeliveryFunc func(content reminder.Content, payload reminder.Payload)

type pendingReminder struct {
	content reminder.Content
	payload reminder.Payload
	fireAt  time.Time
	timer   *time.Timer
}

// LocalNotifier is the in-process rendition of the platform notification
// store: a timer per scheduled reminder, delivered to a sink on fire. It
// implements reminder.Notifier and owns permission state for the process.
type LocalNotifier struct {
	mu      sync.Mutex
	granted bool
	pending map[string]*pendingReminder
	deliver DeliveryFunc
	closed  bool

	log *zap.Logger
}

func NewLocalNotifier(granted bool, deliver DeliveryFunc, log *zap.Logger) *LocalNotifier {
	if deliver == nil {
		deliver = func(reminder.Content, reminder.Payload) {}
	}
	return &LocalNotifier{
		granted: granted,
		pending: make(map[string]*pendingReminder),
		deliver: deliver,
		log:     log,
	}
}

func (n *LocalNotifier) RequestPermission(ctx context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.granted, nil
}

// SetPermission flips the process-wide permission state (settings toggle).
func (n *LocalNotifier) SetPermission(granted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.granted = granted
}

func (n *LocalNotifier) ScheduleAfterDelay(ctx context.Context, delaySeconds int64, content reminder.Content, payload reminder.Payload) (string, error) {
	if delaySeconds < 1 {
		delaySeconds = 1
	}
	delay := time.Duration(delaySeconds) * time.Second

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return "", ErrNotifierClosed
	}

	id := uuid.NewString()
	p := &pendingReminder{
		content: content,
		payload: payload,
		fireAt:  time.Now().Add(delay),
	}
	p.timer = time.AfterFunc(delay, func() { n.fire(id) })
	n.pending[id] = p

	return id, nil
}

func (n *LocalNotifier) fire(id string) {
	n.mu.Lock()
	p, ok := n.pending[id]
	if ok {
		delete(n.pending, id)
	}
	n.mu.Unlock()

	if !ok {
		return
	}

	n.log.Info("reminder fired",
		zap.String("notification_id", id),
		zap.String("prescription_id", p.payload.PrescriptionID),
		zap.String("time", p.payload.Time),
	)
	n.deliver(p.content, p.payload)
}

func (n *LocalNotifier) Cancel(ctx context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.pending[id]
	if !ok {
		return nil
	}
	p.timer.Stop()
	delete(n.pending, id)
	return nil
}

func (n *LocalNotifier) CancelAll(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, p := range n.pending {
		p.timer.Stop()
		delete(n.pending, id)
	}
	return nil
}

func (n *LocalNotifier) ListScheduled(ctx context.Context) ([]reminder.ScheduledReminder, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	out := make([]reminder.ScheduledReminder, 0, len(n.pending))
	for id, p := range n.pending {
		remaining := p.fireAt.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, reminder.ScheduledReminder{
			ID:             id,
			Content:        p.content,
			Payload:        p.payload,
			RemainingDelay: remaining,
		})
	}
	return out, nil
}

// Close stops every pending timer. Scheduling after Close fails.
func (n *LocalNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for id, p := range n.pending {
		p.timer.Stop()
		delete(n.pending, id)
	}
}
