package domain

import (
	"testing"
	"time"
)

func TestReservationOverlapsInclusive(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
	a := Reservation{StartDate: day(1), EndDate: day(3)}

	cases := []struct {
		name string
		b    Reservation
		want bool
	}{
		{"touching end", Reservation{StartDate: day(3), EndDate: day(5)}, true},
		{"inside", Reservation{StartDate: day(2), EndDate: day(2)}, true},
		{"after", Reservation{StartDate: day(4), EndDate: day(6)}, false},
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestReservationStatusActive(t *testing.T) {
	if !ReservationPending.Active() || !ReservationApproved.Active() {
		t.Fatalf("pending and approved should be active")
	}
	if ReservationCancelled.Active() || ReservationRejected.Active() {
		t.Fatalf("cancelled and rejected should not be active")
	}
	if ReservationStatus("lost").Valid() {
		t.Fatalf("unknown status should be invalid")
	}
}

func TestDifficultyRank(t *testing.T) {
	if !(DifficultyLow.Rank() < DifficultyMedium.Rank() && DifficultyMedium.Rank() < DifficultyHigh.Rank()) {
		t.Fatalf("difficulty ranks out of order")
	}
	if Difficulty("Extreme").Rank() <= DifficultyHigh.Rank() {
		t.Fatalf("unknown difficulty should rank last")
	}
}
