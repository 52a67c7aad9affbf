package intakelog

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
	StatusSkipped Status = "skipped"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusTaken, StatusMissed, StatusSkipped:
		return true
	}
	return false
}

// Entry is one persisted record of "this dose, on this date, has this
// adherence status". Exactly one entry exists per (date, slot) pair within
// the treatment window; the unique index on (prescription_id,
// schedule_slot_id, date) makes bulk insertion safe to retry.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;uniqueIndex:idx_intake_logs_dose,priority:1"`
	ScheduleSlotID uuid.UUID `gorm:"column:schedule_slot_id;type:uuid;not null;uniqueIndex:idx_intake_logs_dose,priority:2"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Date   time.Time `gorm:"column:date;type:date;not null;uniqueIndex:idx_intake_logs_dose,priority:3;index"`
	Status Status    `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`

	TakenAt *time.Time `gorm:"column:taken_at"`
}

func (Entry) TableName() string {
	return "meds.intake_logs"
}

// CalendarEntry is one row of the per-date medication agenda: the intake log
// joined with its prescription and slot.
type CalendarEntry struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	ScheduleSlotID uuid.UUID `json:"schedule_slot_id"`
	Date           string    `json:"date"`
	TimeOfDay      string    `json:"time_of_day"`
	Medicine       string    `json:"medicine"`
	DoseMg         string    `json:"dose_in_mg"`
	TabletCount    int       `json:"number_of_tablets"`
	Status         Status    `json:"status"`
	TakenAt        *string   `json:"taken_at,omitempty"`
}
