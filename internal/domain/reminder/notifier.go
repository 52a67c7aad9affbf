package reminder

import "context"

// Notifier is the platform's local-notification primitive. The real store is
// external mutable global state owned by the OS/runtime; injecting it as a
// capability lets the scheduler and lifecycle controller run against an
// in-memory fake.
type Notifier interface {
	// RequestPermission reports whether notification permission is granted,
	// prompting the user if the platform supports it.
	RequestPermission(ctx context.Context) (bool, error)

	// ScheduleAfterDelay registers a notification to fire delaySeconds from
	// now and returns the platform-assigned identifier. The primitive is
	// relative-delay-based; callers convert absolute fire instants.
	ScheduleAfterDelay(ctx context.Context, delaySeconds int64, content Content, payload Payload) (string, error)

	// Cancel removes one scheduled notification. Cancelling an unknown id
	// is a no-op.
	Cancel(ctx context.Context, id string) error

	// CancelAll clears every scheduled notification regardless of owner.
	CancelAll(ctx context.Context) error

	// ListScheduled enumerates the notification store.
	ListScheduled(ctx context.Context) ([]ScheduledReminder, error)
}
