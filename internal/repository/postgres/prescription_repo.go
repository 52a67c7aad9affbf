package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowmymeds/api/internal/domain/intakelog"
	"github.com/knowmymeds/api/internal/domain/prescription"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PrescriptionRepository) CreateSlots(ctx context.Context, prescriptionID uuid.UUID, slots []prescription.ScheduleSlot) ([]prescription.ScheduleSlot, error) {
	if len(slots) == 0 {
		return []prescription.ScheduleSlot{}, nil
	}

	for i := range slots {
		slots[i].PrescriptionID = prescriptionID
	}
	if err := r.db.WithContext(ctx).Create(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, prescription.ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrescriptionRepository) GetSlots(ctx context.Context, prescriptionID uuid.UUID) ([]prescription.ScheduleSlot, error) {
	var slots []prescription.ScheduleSlot
	err := r.db.WithContext(ctx).
		Where("prescription_id = ?", prescriptionID).
		Order("time_of_day ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *PrescriptionRepository) List(ctx context.Context, q *prescription.ListMedicationsQuery) (*prescription.PagedPrescriptions, error) {
	query := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("user_id = ?", q.UserID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []*prescription.Prescription
	err := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &prescription.PagedPrescriptions{
		Prescriptions: rows,
		TotalCount:    total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    totalPages,
	}, nil
}

// Delete removes the prescription and all derived data in one transaction.
func (r *PrescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prescription_id = ?", id).Delete(&intakelog.Entry{}).Error; err != nil {
			return fmt.Errorf("deleting intake logs: %w", err)
		}
		if err := tx.Where("prescription_id = ?", id).Delete(&prescription.ScheduleSlot{}).Error; err != nil {
			return fmt.Errorf("deleting schedule slots: %w", err)
		}
		res := tx.Unscoped().Delete(&prescription.Prescription{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("deleting prescription: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return prescription.ErrPrescriptionNotFound
		}
		return nil
	})
}
