package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowmymeds/api/internal/domain/prescription"
	"github.com/knowmymeds/api/internal/domain/reminder"
	"github.com/knowmymeds/api/pkg/metrics"
)

// One collector per test binary; promauto registers into the default registry.
var testMetrics = metrics.NewCollector("test")

type scheduledCall struct {
	delaySeconds int64
	content      reminder.Content
	payload      reminder.Payload
}

// fakeNotifier records scheduling calls and keeps an enumerable registry,
// mirroring the platform store's contract.
type fakeNotifier struct {
	granted bool
	permErr error

	// failOn holds 1-based ScheduleAfterDelay call numbers that should fail.
	failOn map[int]bool

	calls     []scheduledCall
	registry  []reminder.ScheduledReminder
	cancelled []string
	nextID    int
}

func newFakeNotifier(granted bool) *fakeNotifier {
	return &fakeNotifier{granted: granted, failOn: map[int]bool{}}
}

func (f *fakeNotifier) RequestPermission(ctx context.Context) (bool, error) {
	if f.permErr != nil {
		return false, f.permErr
	}
	return f.granted, nil
}

func (f *fakeNotifier) ScheduleAfterDelay(ctx context.Context, delaySeconds int64, content reminder.Content, payload reminder.Payload) (string, error) {
	f.nextID++
	if f.failOn[f.nextID] {
		return "", errors.New("platform rejected the request")
	}
	f.calls = append(f.calls, scheduledCall{delaySeconds, content, payload})
	id := fmt.Sprintf("notif-%d", f.nextID)
	f.registry = append(f.registry, reminder.ScheduledReminder{
		ID:             id,
		Content:        content,
		Payload:        payload,
		RemainingDelay: time.Duration(delaySeconds) * time.Second,
	})
	return id, nil
}

func (f *fakeNotifier) Cancel(ctx context.Context, id string) error {
	for i, r := range f.registry {
		if r.ID == id {
			f.registry = append(f.registry[:i], f.registry[i+1:]...)
			break
		}
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeNotifier) CancelAll(ctx context.Context) error {
	f.registry = nil
	return nil
}

func (f *fakeNotifier) ListScheduled(ctx context.Context) ([]reminder.ScheduledReminder, error) {
	out := make([]reminder.ScheduledReminder, len(f.registry))
	copy(out, f.registry)
	return out, nil
}

func (f *fakeNotifier) addExisting(id string, prescriptionID uuid.UUID, remaining time.Duration) {
	f.registry = append(f.registry, reminder.ScheduledReminder{
		ID:             id,
		Payload:        reminder.Payload{PrescriptionID: prescriptionID.String()},
		RemainingDelay: remaining,
	})
}

func newReminderService(n reminder.Notifier, now time.Time) *ReminderService {
	svc := NewReminderService(n, 30*time.Second, testMetrics, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func testPrescription(start, end time.Time) *prescription.Prescription {
	return &prescription.Prescription{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Medicine:  "Amoxicillin",
		DoseMg:    "500",
		Form:      prescription.FormTablet,
		StartDate: start,
		EndDate:   end,
	}
}

func utc(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestScheduleForPrescriptionDelays(t *testing.T) {
	notifier := newFakeNotifier(true)
	// 07:59:00 on day one, slot at 08:00 across a three-day window.
	svc := newReminderService(notifier, utc(2025, 3, 10, 7, 59, 0))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 12, 0, 0, 0))
	slots := []prescription.ScheduleSlot{{ID: uuid.New(), TimeOfDay: "08:00", TabletCount: 2}}

	result, err := svc.ScheduleForPrescription(context.Background(), rx, slots)
	if err != nil {
		t.Fatalf("ScheduleForPrescription: %v", err)
	}
	if len(result.ScheduledIDs) != 3 || result.Dropped != 0 || result.Failures != 0 {
		t.Fatalf("result = %+v, want 3 scheduled, 0 dropped, 0 failures", result)
	}

	wantDelays := []int64{60, 86460, 172860}
	for i, call := range notifier.calls {
		if call.delaySeconds != wantDelays[i] {
			t.Errorf("call %d: delay = %d, want %d", i, call.delaySeconds, wantDelays[i])
		}
	}
}

func TestScheduleForPrescriptionContent(t *testing.T) {
	notifier := newFakeNotifier(true)
	svc := newReminderService(notifier, utc(2025, 3, 10, 6, 0, 0))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 10, 0, 0, 0))
	slotID := uuid.New()
	slots := []prescription.ScheduleSlot{{ID: slotID, TimeOfDay: "08:00", TabletCount: 2}}

	if _, err := svc.ScheduleForPrescription(context.Background(), rx, slots); err != nil {
		t.Fatalf("ScheduleForPrescription: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(notifier.calls))
	}

	call := notifier.calls[0]
	if call.content.Title != "💊 Medication Reminder" {
		t.Errorf("title = %q", call.content.Title)
	}
	if !strings.Contains(call.content.Body, "Amoxicillin") || !strings.Contains(call.content.Body, "500mg, 2 tablets") {
		t.Errorf("body = %q, want medicine name and dose label", call.content.Body)
	}
	if call.payload.PrescriptionID != rx.ID.String() ||
		call.payload.ScheduleSlotID != slotID.String() ||
		call.payload.Date != "2025-03-10" ||
		call.payload.Time != "08:00" {
		t.Errorf("payload = %+v", call.payload)
	}
}

func TestScheduleForPrescriptionDropsNearNow(t *testing.T) {
	notifier := newFakeNotifier(true)
	// 15 seconds past today's 08:00 slot.
	svc := newReminderService(notifier, utc(2025, 3, 10, 8, 0, 15))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 12, 0, 0, 0))
	slots := []prescription.ScheduleSlot{{ID: uuid.New(), TimeOfDay: "08:00", TabletCount: 1}}

	result, err := svc.ScheduleForPrescription(context.Background(), rx, slots)
	if err != nil {
		t.Fatalf("ScheduleForPrescription: %v", err)
	}
	if result.Dropped != 1 {
		t.Errorf("dropped = %d, want 1 (today's dose is in the past)", result.Dropped)
	}
	if len(result.ScheduledIDs) != 2 {
		t.Errorf("scheduled = %d, want 2 (tomorrow and the day after)", len(result.ScheduledIDs))
	}
}

func TestScheduleForPrescriptionDropsInsideThreshold(t *testing.T) {
	notifier := newFakeNotifier(true)
	// 20 seconds before the slot: future, but inside the 30s threshold.
	svc := newReminderService(notifier, utc(2025, 3, 10, 7, 59, 40))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 10, 0, 0, 0))
	slots := []prescription.ScheduleSlot{{ID: uuid.New(), TimeOfDay: "08:00", TabletCount: 1}}

	result, _ := svc.ScheduleForPrescription(context.Background(), rx, slots)
	if result.Dropped != 1 || len(result.ScheduledIDs) != 0 {
		t.Errorf("result = %+v, want the near-now candidate dropped", result)
	}
}

func TestScheduleForPrescriptionPermissionDenied(t *testing.T) {
	notifier := newFakeNotifier(false)
	svc := newReminderService(notifier, utc(2025, 3, 10, 6, 0, 0))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 12, 0, 0, 0))
	slots := []prescription.ScheduleSlot{{ID: uuid.New(), TimeOfDay: "08:00", TabletCount: 1}}

	result, err := svc.ScheduleForPrescription(context.Background(), rx, slots)
	if err != nil {
		t.Fatalf("permission denial must not be an error, got: %v", err)
	}
	if len(result.ScheduledIDs) != 0 || result.Dropped != 0 || result.Failures != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("made %d platform calls without permission", len(notifier.calls))
	}
}

func TestScheduleForPrescriptionPermissionError(t *testing.T) {
	notifier := newFakeNotifier(true)
	notifier.permErr = errors.New("permission service unavailable")
	svc := newReminderService(notifier, utc(2025, 3, 10, 6, 0, 0))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 10, 0, 0, 0))
	slots := []prescription.ScheduleSlot{{ID: uuid.New(), TimeOfDay: "08:00", TabletCount: 1}}

	result, err := svc.ScheduleForPrescription(context.Background(), rx, slots)
	if err != nil {
		t.Fatalf("permission check failure must not be an error, got: %v", err)
	}
	if len(notifier.calls) != 0 || len(result.ScheduledIDs) != 0 {
		t.Error("no scheduling should happen when the permission check fails")
	}
}

func TestScheduleForPrescriptionFailureNonFatal(t *testing.T) {
	notifier := newFakeNotifier(true)
	notifier.failOn[2] = true
	svc := newReminderService(notifier, utc(2025, 3, 10, 6, 0, 0))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 12, 0, 0, 0))
	slots := []prescription.ScheduleSlot{{ID: uuid.New(), TimeOfDay: "08:00", TabletCount: 1}}

	result, err := svc.ScheduleForPrescription(context.Background(), rx, slots)
	if err != nil {
		t.Fatalf("a single platform failure must not abort the pass: %v", err)
	}
	if len(result.ScheduledIDs) != 2 || result.Failures != 1 {
		t.Errorf("result = %+v, want 2 scheduled and 1 failure", result)
	}
}

func TestScheduleForPrescriptionSkipsZeroTabletSlots(t *testing.T) {
	notifier := newFakeNotifier(true)
	svc := newReminderService(notifier, utc(2025, 3, 10, 6, 0, 0))

	rx := testPrescription(utc(2025, 3, 10, 0, 0, 0), utc(2025, 3, 10, 0, 0, 0))
	slots := []prescription.ScheduleSlot{
		{ID: uuid.New(), TimeOfDay: "08:00", TabletCount: 0},
		{ID: uuid.New(), TimeOfDay: "20:00", TabletCount: 1},
	}

	result, _ := svc.ScheduleForPrescription(context.Background(), rx, slots)
	if len(result.ScheduledIDs) != 1 {
		t.Fatalf("scheduled = %d, want 1 (zero-count slot is inert)", len(result.ScheduledIDs))
	}
	if notifier.calls[0].payload.Time != "20:00" {
		t.Errorf("scheduled slot time = %q, want 20:00", notifier.calls[0].payload.Time)
	}
}

func TestCancelByPrescriptionLeavesOthers(t *testing.T) {
	notifier := newFakeNotifier(true)
	target, other := uuid.New(), uuid.New()
	notifier.addExisting("a", target, time.Hour)
	notifier.addExisting("b", other, time.Hour)
	notifier.addExisting("c", target, 2*time.Hour)

	svc := newReminderService(notifier, time.Now())

	cancelled, err := svc.CancelByPrescription(context.Background(), target)
	if err != nil {
		t.Fatalf("CancelByPrescription: %v", err)
	}
	if cancelled != 2 {
		t.Errorf("cancelled = %d, want 2", cancelled)
	}
	if len(notifier.registry) != 1 || notifier.registry[0].ID != "b" {
		t.Errorf("registry after cancel = %+v, want only the other prescription's reminder", notifier.registry)
	}
}

func TestCancelByPrescriptionEmptyRegistry(t *testing.T) {
	notifier := newFakeNotifier(true)
	svc := newReminderService(notifier, time.Now())

	cancelled, err := svc.CancelByPrescription(context.Background(), uuid.New())
	if err != nil || cancelled != 0 {
		t.Errorf("empty registry: cancelled=%d err=%v, want no-op", cancelled, err)
	}
}

func TestCancelAllReturnsPreExistingSet(t *testing.T) {
	notifier := newFakeNotifier(true)
	notifier.addExisting("a", uuid.New(), time.Hour)
	notifier.addExisting("b", uuid.New(), 2*time.Hour)

	svc := newReminderService(notifier, time.Now())

	existing, err := svc.CancelAll(context.Background())
	if err != nil {
		t.Fatalf("CancelAll: %v", err)
	}
	if len(existing) != 2 {
		t.Errorf("returned set has %d reminders, want the 2 that were registered", len(existing))
	}
	if len(notifier.registry) != 0 {
		t.Errorf("registry not empty after CancelAll: %+v", notifier.registry)
	}
}

func TestCancelNearImmediate(t *testing.T) {
	notifier := newFakeNotifier(true)
	notifier.addExisting("soon", uuid.New(), 5*time.Second)
	notifier.addExisting("close", uuid.New(), 15*time.Second)
	notifier.addExisting("far", uuid.New(), time.Hour)

	svc := newReminderService(notifier, time.Now())

	cancelled, err := svc.CancelNearImmediate(context.Background(), 60*time.Second)
	if err != nil {
		t.Fatalf("CancelNearImmediate: %v", err)
	}
	if len(cancelled) != 2 {
		t.Fatalf("cancelled %d, want 2 (the 5s and 15s reminders)", len(cancelled))
	}
	if len(notifier.registry) != 1 || notifier.registry[0].ID != "far" {
		t.Errorf("registry = %+v, want only the far reminder", notifier.registry)
	}
}

func TestCancelNearImmediateThresholdBoundary(t *testing.T) {
	notifier := newFakeNotifier(true)
	notifier.addExisting("exact", uuid.New(), 60*time.Second)

	svc := newReminderService(notifier, time.Now())

	cancelled, err := svc.CancelNearImmediate(context.Background(), 60*time.Second)
	if err != nil {
		t.Fatalf("CancelNearImmediate: %v", err)
	}
	if len(cancelled) != 0 {
		t.Errorf("a reminder exactly at the threshold must survive, cancelled %d", len(cancelled))
	}
}
