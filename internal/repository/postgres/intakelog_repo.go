package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/knowmymeds/api/internal/domain/intakelog"
)

type IntakeLogRepository struct {
	db *gorm.DB
}

func NewIntakeLogRepository(db *gorm.DB) *IntakeLogRepository {
	return &IntakeLogRepository{db: db}
}

// BulkInsert writes generated entries, ignoring conflicts on the
// (prescription_id, schedule_slot_id, date) unique index so a retried
// create flow cannot duplicate logs.
func (r *IntakeLogRepository) BulkInsert(ctx context.Context, entries []intakelog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&entries, 500).Error
}

func (r *IntakeLogRepository) UpdateStatus(ctx context.Context, prescriptionID, slotID uuid.UUID, date time.Time, status intakelog.Status, takenAt *time.Time) error {
	updates := map[string]any{
		"status":   status,
		"taken_at": takenAt,
	}

	res := r.db.WithContext(ctx).
		Model(&intakelog.Entry{}).
		Where("prescription_id = ? AND schedule_slot_id = ? AND date = ?", prescriptionID, slotID, date.Format("2006-01-02")).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return intakelog.ErrEntryNotFound
	}
	return nil
}

func (r *IntakeLogRepository) CalendarSummary(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]intakelog.CalendarEntry, error) {
	var rows []intakelog.CalendarEntry
	err := r.db.WithContext(ctx).Raw(`
		SELECT l.prescription_id,
		       l.schedule_slot_id,
		       to_char(l.date, 'YYYY-MM-DD')  AS date,
		       s.time_of_day,
		       p.medicine,
		       p.dose_in_mg                   AS dose_mg,
		       s.number_of_tablets            AS tablet_count,
		       l.status,
		       to_char(l.taken_at, 'YYYY-MM-DD"T"HH24:MI:SSOF') AS taken_at
		FROM meds.intake_logs l
		JOIN meds.schedule_slots s ON s.id = l.schedule_slot_id
		JOIN meds.prescriptions p  ON p.id = l.prescription_id
		WHERE l.user_id = ?
		  AND l.date BETWEEN ? AND ?
		ORDER BY l.date ASC, s.time_of_day ASC`,
		userID, from.Format("2006-01-02"), to.Format("2006-01-02"),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
