package intakelog

import (
	"time"

	"github.com/google/uuid"

	"github.com/knowmymeds/api/internal/domain/prescription"
)

// Generate expands a treatment window into pending intake log entries: one
// entry per (date, slot) pair, both window endpoints inclusive, slots with a
// zero tablet count excluded. It is pure and deterministic; entries come out
// in ascending (date, time-of-day) order. Deduplication on retry is the
// storage layer's job, not this function's.
func Generate(prescriptionID, userID uuid.UUID, slots []prescription.ScheduleSlot, startDate, endDate time.Time) ([]Entry, error) {
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}

	active := make([]prescription.ScheduleSlot, 0, len(slots))
	for _, s := range slots {
		if s.TabletCount > 0 {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return []Entry{}, nil
	}

	days := int(endDate.Sub(startDate).Hours()/24) + 1
	entries := make([]Entry, 0, days*len(active))
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		for _, slot := range active {
			entries = append(entries, Entry{
				PrescriptionID: prescriptionID,
				ScheduleSlotID: slot.ID,
				UserID:         userID,
				Date:           d,
				Status:         StatusPending,
			})
		}
	}

	return entries, nil
}
