package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrInvalidTimeOfDay     = errors.New("dosing time must be HH:MM in 24-hour format")
	ErrInvalidTabletCount   = errors.New("tablet count must not be negative")
	ErrInvalidMedicineForm  = errors.New("invalid medicine form")
)
