package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowmymeds/api/internal/domain/prescription"
	"github.com/knowmymeds/api/internal/domain/reminder"
	"github.com/knowmymeds/api/pkg/metrics"
)

const reminderTitle = "💊 Medication Reminder"

// ScheduleResult reports the outcome of one bulk-scheduling pass.
type ScheduleResult struct {
	ScheduledIDs []string `json:"scheduled_ids"`
	Dropped      int      `json:"dropped"`
	Failures     int      `json:"failures"`
}

// ReminderService expands a prescription's treatment window into scheduled
// local notifications and manages the registry of notifications already
// scheduled. The registry can only be enumerated, never queried, so every
// targeted cancellation goes through the notification payload.
type ReminderService struct {
	notifier reminder.Notifier
	metrics  *metrics.Collector
	log      *zap.Logger

	// Candidates whose fire instant is within dropThreshold of now are
	// dropped rather than scheduled: platforms mishandle past-due triggers,
	// and a batch of slightly-past candidates all firing at once is a
	// notification storm. Non-zero to absorb clock skew and loop latency.
	dropThreshold time.Duration

	now func() time.Time
}

func NewReminderService(notifier reminder.Notifier, dropThreshold time.Duration, m *metrics.Collector, log *zap.Logger) *ReminderService {
	return &ReminderService{
		notifier:      notifier,
		metrics:       m,
		log:           log,
		dropThreshold: dropThreshold,
		now:           time.Now,
	}
}

// ScheduleForPrescription submits one notification per (date, slot) pair in
// the treatment window that survives the near-now filter. Candidates are
// generated in ascending (date, time) order. A single candidate failing at
// the platform boundary is counted and skipped, never fatal. If permission
// is not granted no platform scheduling calls are made at all.
func (s *ReminderService) ScheduleForPrescription(ctx context.Context, rx *prescription.Prescription, slots []prescription.ScheduleSlot) (*ScheduleResult, error) {
	result := &ScheduleResult{ScheduledIDs: []string{}}

	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		s.log.Warn("notification permission check failed, skipping scheduling",
			zap.String("prescription_id", rx.ID.String()),
			zap.Error(err),
		)
		return result, nil
	}
	if !granted {
		s.log.Info("notification permission not granted, no reminders scheduled",
			zap.String("prescription_id", rx.ID.String()),
		)
		return result, nil
	}

	now := s.now()

	for date := rx.StartDate; !date.After(rx.EndDate); date = date.AddDate(0, 0, 1) {
		for _, slot := range slots {
			if slot.TabletCount <= 0 {
				continue
			}

			fireAt := slot.FireAt(date)
			delay := fireAt.Sub(now)
			if delay <= s.dropThreshold {
				result.Dropped++
				s.metrics.RemindersDroppedTotal.Inc()
				continue
			}

			delaySeconds := int64(delay / time.Second)
			if delaySeconds < 1 {
				delaySeconds = 1
			}

			content := reminder.Content{
				Title: reminderTitle,
				Body:  fmt.Sprintf("Time to take %s (%s)", rx.Medicine, prescription.DoseLabel(rx.DoseMg, slot.TabletCount)),
			}
			payload := reminder.Payload{
				PrescriptionID: rx.ID.String(),
				ScheduleSlotID: slot.ID.String(),
				Date:           date.Format(prescription.DateLayout),
				Medicine:       rx.Medicine,
				Dose:           rx.DoseMg,
				Time:           slot.TimeOfDay,
			}

			id, err := s.notifier.ScheduleAfterDelay(ctx, delaySeconds, content, payload)
			if err != nil {
				result.Failures++
				s.metrics.RemindersFailedTotal.Inc()
				s.log.Error("failed to schedule reminder",
					zap.String("prescription_id", rx.ID.String()),
					zap.String("date", payload.Date),
					zap.String("time", slot.TimeOfDay),
					zap.Error(err),
				)
				continue
			}

			result.ScheduledIDs = append(result.ScheduledIDs, id)
			s.metrics.RemindersScheduledTotal.Inc()
		}
	}

	s.log.Info("reminders scheduled",
		zap.String("prescription_id", rx.ID.String()),
		zap.Int("scheduled", len(result.ScheduledIDs)),
		zap.Int("dropped", result.Dropped),
		zap.Int("failures", result.Failures),
	)

	return result, nil
}

// CancelByPrescription removes every scheduled reminder tagged with the
// prescription id. The store is enumerated and filtered by payload; a
// missing or empty registry is a no-op.
func (s *ReminderService) CancelByPrescription(ctx context.Context, prescriptionID uuid.UUID) (int, error) {
	scheduled, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing scheduled reminders: %w", err)
	}

	id := prescriptionID.String()
	cancelled := 0
	for _, r := range scheduled {
		if r.Payload.PrescriptionID != id {
			continue
		}
		if err := s.notifier.Cancel(ctx, r.ID); err != nil {
			s.log.Error("failed to cancel reminder",
				zap.String("notification_id", r.ID),
				zap.String("prescription_id", id),
				zap.Error(err),
			)
			continue
		}
		cancelled++
		s.metrics.RemindersCancelledTotal.WithLabelValues("prescription_deleted").Inc()
	}

	s.log.Info("cancelled prescription reminders",
		zap.String("prescription_id", id),
		zap.Int("cancelled", cancelled),
	)
	return cancelled, nil
}

// CancelAll clears the entire registry and returns the set that was
// registered beforehand, so a failed clear can never read as a silently
// partial success.
func (s *ReminderService) CancelAll(ctx context.Context) ([]reminder.ScheduledReminder, error) {
	existing, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled reminders: %w", err)
	}

	if err := s.notifier.CancelAll(ctx); err != nil {
		return existing, fmt.Errorf("cancelling all reminders: %w", err)
	}

	for range existing {
		s.metrics.RemindersCancelledTotal.WithLabelValues("clear_all").Inc()
	}
	s.log.Info("cancelled all reminders", zap.Int("count", len(existing)))
	return existing, nil
}

// CancelNearImmediate is a defensive cleanup pass: any reminder whose
// remaining delay is below threshold is cancelled. Recovers from scheduling
// bugs that produced near-instant notifications; safe to run at any time
// with no effect on correctly scheduled future reminders.
func (s *ReminderService) CancelNearImmediate(ctx context.Context, threshold time.Duration) ([]string, error) {
	scheduled, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled reminders: %w", err)
	}

	cancelled := []string{}
	for _, r := range scheduled {
		if r.RemainingDelay >= threshold {
			continue
		}
		if err := s.notifier.Cancel(ctx, r.ID); err != nil {
			s.log.Error("failed to cancel near-immediate reminder",
				zap.String("notification_id", r.ID),
				zap.Error(err),
			)
			continue
		}
		cancelled = append(cancelled, r.ID)
		s.metrics.RemindersCancelledTotal.WithLabelValues("near_immediate").Inc()
	}

	if len(cancelled) > 0 {
		s.log.Warn("cancelled near-immediate reminders",
			zap.Int("count", len(cancelled)),
			zap.Duration("threshold", threshold),
		)
	}
	return cancelled, nil
}

// ListAll enumerates the registry with remaining delays, for diagnostics and
// the settings screen's scheduled-reminder counter.
func (s *ReminderService) ListAll(ctx context.Context) ([]reminder.ScheduledReminder, error) {
	scheduled, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled reminders: %w", err)
	}
	return scheduled, nil
}
