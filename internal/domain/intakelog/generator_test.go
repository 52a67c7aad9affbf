package intakelog

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/knowmymeds/api/internal/domain/prescription"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func slot(timeOfDay string, count int) prescription.ScheduleSlot {
	return prescription.ScheduleSlot{ID: uuid.New(), TimeOfDay: timeOfDay, TabletCount: count}
}

func TestGenerateEntryCount(t *testing.T) {
	rxID, userID := uuid.New(), uuid.New()
	slots := []prescription.ScheduleSlot{slot("08:00", 1), slot("20:00", 2)}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single day", day(2025, 3, 10), day(2025, 3, 10), 2},
		{"one week", day(2025, 3, 10), day(2025, 3, 16), 14},
		{"thirty days", day(2025, 3, 1), day(2025, 3, 30), 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Generate(rxID, userID, slots, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestGenerateAllEntriesPending(t *testing.T) {
	entries, err := Generate(uuid.New(), uuid.New(),
		[]prescription.ScheduleSlot{slot("08:00", 1)},
		day(2025, 3, 10), day(2025, 3, 12),
	)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	for i, e := range entries {
		if e.Status != StatusPending {
			t.Errorf("entry %d: status = %q, want %q", i, e.Status, StatusPending)
		}
		if e.TakenAt != nil {
			t.Errorf("entry %d: TakenAt should be nil before any intake", i)
		}
	}
}

func TestGenerateInvalidDateRange(t *testing.T) {
	_, err := Generate(uuid.New(), uuid.New(),
		[]prescription.ScheduleSlot{slot("08:00", 1)},
		day(2025, 3, 12), day(2025, 3, 10),
	)
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("got %v, want ErrInvalidDateRange", err)
	}
}

func TestGenerateSkipsZeroTabletSlots(t *testing.T) {
	entries, err := Generate(uuid.New(), uuid.New(),
		[]prescription.ScheduleSlot{slot("08:00", 0), slot("14:00", 1), slot("20:00", 0)},
		day(2025, 3, 10), day(2025, 3, 11),
	)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (only the 14:00 slot is active)", len(entries))
	}
}

func TestGenerateNoActiveSlots(t *testing.T) {
	entries, err := Generate(uuid.New(), uuid.New(),
		[]prescription.ScheduleSlot{slot("08:00", 0)},
		day(2025, 3, 10), day(2025, 3, 20),
	)
	if err != nil {
		t.Fatalf("a window with no active slots is legal, got error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}

func TestGenerateDateOrderAndIdentity(t *testing.T) {
	rxID, userID := uuid.New(), uuid.New()
	slots := []prescription.ScheduleSlot{slot("08:00", 1), slot("20:00", 1)}
	start, end := day(2025, 3, 10), day(2025, 3, 12)

	entries, err := Generate(rxID, userID, slots, start, end)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].Date.Before(entries[i-1].Date) {
			t.Fatalf("entries not in ascending date order at index %d", i)
		}
	}
	for i, e := range entries {
		if e.PrescriptionID != rxID || e.UserID != userID {
			t.Errorf("entry %d carries wrong identifiers", i)
		}
	}
	if first, last := entries[0].Date, entries[len(entries)-1].Date; !first.Equal(start) || !last.Equal(end) {
		t.Errorf("window endpoints not covered: first=%v last=%v", first, last)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	rxID, userID := uuid.New(), uuid.New()
	slots := []prescription.ScheduleSlot{slot("08:00", 2)}
	start, end := day(2025, 3, 10), day(2025, 3, 15)

	a, _ := Generate(rxID, userID, slots, start, end)
	b, _ := Generate(rxID, userID, slots, start, end)

	if len(a) != len(b) {
		t.Fatalf("runs disagree on entry count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("entry %d differs between runs", i)
		}
	}
}
