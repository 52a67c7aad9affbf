package reminder

import "time"

// Content is the user-visible part of a scheduled notification.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Payload tags a notification with the prescription dose it belongs to. The
// platform store cannot be queried relationally, so every association the
// engine needs later must round-trip through this payload.
type Payload struct {
	PrescriptionID string `json:"prescription_id"`
	ScheduleSlotID string `json:"schedule_slot_id"`
	Date           string `json:"date"` // "2006-01-02"
	Medicine       string `json:"medicine"`
	Dose           string `json:"dose"`
	Time           string `json:"time"` // "HH:MM"
}

// ScheduledReminder is one entry of the platform's notification store, as
// seen through ListScheduled.
type ScheduledReminder struct {
	ID             string        `json:"id"`
	Content        Content       `json:"content"`
	Payload        Payload       `json:"payload"`
	RemainingDelay time.Duration `json:"remaining_delay"`
}
