package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowmymeds/api/internal/domain/intakelog"
	"github.com/knowmymeds/api/internal/domain/prescription"
	"github.com/knowmymeds/api/pkg/metrics"
)

// CreateMedicationResult is what the create flow returns to the UI.
type CreateMedicationResult struct {
	Prescription      *prescription.Prescription  `json:"prescription"`
	Slots             []prescription.ScheduleSlot `json:"schedules"`
	TotalDosesCreated int                         `json:"total_doses_created"`
	Reminders         *ScheduleResult             `json:"reminders"`
}

// PrescriptionService is the medication lifecycle controller. Reminder
// scheduling is best-effort relative to data persistence: the create flow
// reports success once the prescription, slots, and intake logs are durable,
// even if some or all reminders failed to schedule.
type PrescriptionService struct {
	repo        prescription.Repository
	logRepo     intakelog.Repository
	reminderSvc *ReminderService
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewPrescriptionService(
	repo prescription.Repository,
	logRepo intakelog.Repository,
	reminderSvc *ReminderService,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		repo:        repo,
		logRepo:     logRepo,
		reminderSvc: reminderSvc,
		auditSvc:    auditSvc,
		metrics:     m,
		log:         log,
	}
}

// CreateMedication persists the prescription, its schedule slots, and the
// full pending intake log set, then schedules reminders. The reminder pass
// never runs before the logs are durable, so a reminder can always be
// correlated back to an existing log entry.
func (s *PrescriptionService) CreateMedication(ctx context.Context, userID uuid.UUID, cmd *prescription.CreateMedicationCommand, ip string) (*CreateMedicationResult, error) {
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}
	if cmd.EndDate.Before(cmd.StartDate) {
		return nil, intakelog.ErrInvalidDateRange
	}

	rx := &prescription.Prescription{
		UserID:              userID,
		Medicine:            strings.TrimSpace(cmd.Medicine),
		DoseMg:              strings.TrimSpace(cmd.DoseMg),
		Form:                cmd.Form,
		Quantity:            strings.TrimSpace(cmd.Quantity),
		StartDate:           cmd.StartDate,
		EndDate:             cmd.EndDate,
		SpecialInstructions: strings.TrimSpace(cmd.SpecialInstructions),
	}

	if err := s.repo.Create(ctx, rx); err != nil {
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	slots, err := s.repo.CreateSlots(ctx, rx.ID, cmd.Slots.Ordered())
	if err != nil {
		return nil, fmt.Errorf("creating schedule slots: %w", err)
	}

	entries, err := intakelog.Generate(rx.ID, userID, slots, rx.StartDate, rx.EndDate)
	if err != nil {
		return nil, fmt.Errorf("generating intake logs: %w", err)
	}

	if err := s.logRepo.BulkInsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("persisting intake logs: %w", err)
	}
	s.metrics.IntakeLogsGeneratedTotal.Add(float64(len(entries)))

	// Best-effort from here: a scheduling shortfall does not fail the create.
	reminders, err := s.reminderSvc.ScheduleForPrescription(ctx, rx, slots)
	if err != nil {
		s.log.Warn("reminder scheduling failed after create",
			zap.String("prescription_id", rx.ID.String()),
			zap.Error(err),
		)
		reminders = &ScheduleResult{ScheduledIDs: []string{}}
	}

	s.metrics.PrescriptionsCreatedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       "create",
		ResourceType: "prescription",
		ResourceID:   rx.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("medication created",
		zap.String("prescription_id", rx.ID.String()),
		zap.String("medicine", rx.Medicine),
		zap.Int("doses", len(entries)),
		zap.Int("reminders_scheduled", len(reminders.ScheduledIDs)),
	)

	return &CreateMedicationResult{
		Prescription:      rx,
		Slots:             slots,
		TotalDosesCreated: len(entries),
		Reminders:         reminders,
	}, nil
}

// DeleteMedication cancels the prescription's reminders before removing its
// persisted data. Cancellation only needs the id value, but it must happen
// while the id is still meaningful to the caller.
func (s *PrescriptionService) DeleteMedication(ctx context.Context, userID, id uuid.UUID, ip string) error {
	rx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rx.UserID != userID {
		return ErrForbidden
	}

	if _, err := s.reminderSvc.CancelByPrescription(ctx, id); err != nil {
		// Deleting the data still proceeds; leftover reminders are caught
		// by the near-immediate cleanup or fire against a gone prescription.
		s.log.Warn("failed to cancel reminders before delete",
			zap.String("prescription_id", id.String()),
			zap.Error(err),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting prescription: %w", err)
	}

	s.metrics.PrescriptionsDeletedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       "delete",
		ResourceType: "prescription",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return nil
}

// SetIntakeStatus updates one dose's adherence status. Deliberately decoupled
// from the reminder lifecycle: marking a dose taken neither cancels nor
// reschedules anything.
func (s *PrescriptionService) SetIntakeStatus(ctx context.Context, userID, prescriptionID, slotID uuid.UUID, date time.Time, status intakelog.Status, takenAt *time.Time, ip string) error {
	if !status.IsValid() {
		return intakelog.ErrInvalidStatus
	}

	rx, err := s.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		return err
	}
	if rx.UserID != userID {
		return ErrForbidden
	}

	if status == intakelog.StatusTaken && takenAt == nil {
		now := time.Now()
		takenAt = &now
	}
	if status != intakelog.StatusTaken {
		takenAt = nil
	}

	if err := s.logRepo.UpdateStatus(ctx, prescriptionID, slotID, date, status, takenAt); err != nil {
		return fmt.Errorf("updating intake status: %w", err)
	}

	s.metrics.IntakeStatusUpdatesTotal.WithLabelValues(string(status)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       "update",
		ResourceType: "intake_log",
		ResourceID:   prescriptionID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"status":%q}`, status),
	})

	return nil
}

func (s *PrescriptionService) GetMedication(ctx context.Context, userID, id uuid.UUID) (*prescription.Prescription, []prescription.ScheduleSlot, error) {
	rx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rx.UserID != userID {
		return nil, nil, ErrForbidden
	}

	slots, err := s.repo.GetSlots(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading schedule slots: %w", err)
	}
	return rx, slots, nil
}

func (s *PrescriptionService) ListMedications(ctx context.Context, q *prescription.ListMedicationsQuery) (*prescription.PagedPrescriptions, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// CalendarSummary returns the user's per-date dose agenda grouped by date,
// each day's rows ordered by time of day.
func (s *PrescriptionService) CalendarSummary(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[string][]intakelog.CalendarEntry, error) {
	if to.Before(from) {
		return nil, intakelog.ErrInvalidDateRange
	}

	rows, err := s.logRepo.CalendarSummary(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading calendar summary: %w", err)
	}

	grouped := make(map[string][]intakelog.CalendarEntry)
	for _, row := range rows {
		grouped[row.Date] = append(grouped[row.Date], row)
	}
	return grouped, nil
}

func validateCreateCommand(cmd *prescription.CreateMedicationCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Medicine) == "" {
		errs = append(errs, "medicine is required")
	}
	if strings.TrimSpace(cmd.DoseMg) == "" {
		errs = append(errs, "dose_in_mg is required")
	}
	if !cmd.Form.IsValid() {
		errs = append(errs, "form is invalid")
	}
	if cmd.StartDate.IsZero() {
		errs = append(errs, "treatment_start_date is required")
	}
	if cmd.EndDate.IsZero() {
		errs = append(errs, "treatment_end_date is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
