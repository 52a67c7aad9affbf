package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	CreateSlots(ctx context.Context, prescriptionID uuid.UUID, slots []ScheduleSlot) ([]ScheduleSlot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetSlots(ctx context.Context, prescriptionID uuid.UUID) ([]ScheduleSlot, error)
	List(ctx context.Context, q *ListMedicationsQuery) (*PagedPrescriptions, error)

	// Delete removes the prescription together with its slots and intake logs.
	Delete(ctx context.Context, id uuid.UUID) error
}
