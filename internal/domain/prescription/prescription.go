package prescription

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MedicineForm string

const (
	FormTablet    MedicineForm = "tablet"
	FormCapsule   MedicineForm = "capsule"
	FormLiquid    MedicineForm = "liquid"
	FormInjection MedicineForm = "injection"
	FormCream     MedicineForm = "cream"
	FormInhaler   MedicineForm = "inhaler"
)

func (f MedicineForm) IsValid() bool {
	switch f {
	case FormTablet, FormCapsule, FormLiquid, FormInjection, FormCream, FormInhaler:
		return true
	}
	return false
}

// DateLayout is the wire and storage format for treatment window dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire and storage format for daily dosing times (24h).
const TimeLayout = "15:04"

// ParseTimeOfDay validates an "HH:MM" dosing time and returns its components.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, ErrInvalidTimeOfDay
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrInvalidTimeOfDay
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidTimeOfDay
	}
	return hour, minute, nil
}

type Prescription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Medicine string       `gorm:"column:medicine;type:varchar(255);not null;index"`
	DoseMg   string       `gorm:"column:dose_in_mg;type:varchar(50);not null"` // e.g. "500"
	Form     MedicineForm `gorm:"column:form;type:varchar(30);not null"`
	Quantity string       `gorm:"column:quantity;type:varchar(50)"`

	StartDate time.Time `gorm:"column:treatment_start_date;type:date;not null;index"`
	EndDate   time.Time `gorm:"column:treatment_end_date;type:date;not null;index"`

	SpecialInstructions string `gorm:"column:special_instructions;type:text"`
}

func (Prescription) TableName() string {
	return "meds.prescriptions"
}

// TreatmentDays is the inclusive length of the treatment window.
func (p *Prescription) TreatmentDays() int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

func (p *Prescription) IsActiveOn(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// ScheduleSlot is one daily dosing time for a prescription. A slot with
// TabletCount == 0 is "not dosed at this time" and is never persisted.
type ScheduleSlot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;index"`
	TimeOfDay      string    `gorm:"column:time_of_day;type:varchar(5);not null"` // "HH:MM"
	TabletCount    int       `gorm:"column:number_of_tablets;not null"`
}

func (ScheduleSlot) TableName() string {
	return "meds.schedule_slots"
}

// FireAt combines a calendar date with the slot's time of day.
// The slot time is assumed valid; persisted slots always are.
func (s *ScheduleSlot) FireAt(date time.Time) time.Time {
	hour, minute, _ := ParseTimeOfDay(s.TimeOfDay)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// SlotSet maps a dosing time ("HH:MM") to its tablet count. Keying by time
// makes the one-slot-per-time invariant structural: a duplicate time simply
// overwrites the earlier count.
type SlotSet map[string]int

// Add registers a dosing time. Times failing validation and non-positive
// counts are rejected so a SlotSet only ever holds schedulable slots.
func (s SlotSet) Add(timeOfDay string, tabletCount int) error {
	if _, _, err := ParseTimeOfDay(timeOfDay); err != nil {
		return err
	}
	if tabletCount < 0 {
		return ErrInvalidTabletCount
	}
	if tabletCount == 0 {
		delete(s, timeOfDay)
		return nil
	}
	s[timeOfDay] = tabletCount
	return nil
}

// Ordered returns the slots in ascending time-of-day order. "HH:MM" strings
// sort lexicographically in chronological order.
func (s SlotSet) Ordered() []ScheduleSlot {
	times := make([]string, 0, len(s))
	for t := range s {
		times = append(times, t)
	}
	sort.Strings(times)

	slots := make([]ScheduleSlot, 0, len(times))
	for _, t := range times {
		slots = append(slots, ScheduleSlot{TimeOfDay: t, TabletCount: s[t]})
	}
	return slots
}

type CreateMedicationCommand struct {
	Medicine            string
	DoseMg              string
	Form                MedicineForm
	Quantity            string
	StartDate           time.Time
	EndDate             time.Time
	SpecialInstructions string
	Slots               SlotSet
}

type ListMedicationsQuery struct {
	UserID   uuid.UUID
	Page     int
	PageSize int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}

// DoseLabel renders the dose plus tablet count the way reminder bodies and
// list rows display it, e.g. "500mg, 2 tablets".
func DoseLabel(doseMg string, tabletCount int) string {
	unit := "tablet"
	if tabletCount > 1 {
		unit = "tablets"
	}
	return fmt.Sprintf("%smg, %d %s", doseMg, tabletCount, unit)
}
