package intakelog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// BulkInsert persists generated entries. Re-inserting an existing
	// (prescription, slot, date) triple is a no-op, so a retried create
	// flow cannot duplicate logs.
	BulkInsert(ctx context.Context, entries []Entry) error

	// UpdateStatus mutates one entry's adherence status. TakenAt is only
	// written when status is "taken".
	UpdateStatus(ctx context.Context, prescriptionID, slotID uuid.UUID, date time.Time, status Status, takenAt *time.Time) error

	// CalendarSummary returns the user's agenda rows for an inclusive date
	// range, ordered by (date, time_of_day).
	CalendarSummary(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]CalendarEntry, error)
}
