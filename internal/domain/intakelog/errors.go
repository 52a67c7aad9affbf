package intakelog

import "errors"

var (
	ErrInvalidDateRange = errors.New("treatment end date is before start date")
	ErrInvalidStatus    = errors.New("invalid intake status")
	ErrEntryNotFound    = errors.New("intake log entry not found")
)
