package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"geoportal-service/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReservationStoreRejectsOverlaps(t *testing.T) {
	ctx := context.Background()
	store := NewReservationStore()

	first := domain.Reservation{ID: "r1", EquipmentID: "eq-1", UserID: "u1", StartDate: day("2024-11-04"), EndDate: day("2024-11-06"), Status: domain.ReservationPending}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	clash := first
	clash.ID, clash.StartDate, clash.EndDate = "r2", day("2024-11-06"), day("2024-11-08")
	if err := store.Create(ctx, clash); !errors.Is(err, domain.ErrReservationConflict) {
		t.Fatalf("expected conflict on shared end day, got %v", err)
	}

	other := clash
	other.EquipmentID = "eq-2"
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("different equipment should not conflict: %v", err)
	}

	if _, err := store.UpdateStatus(ctx, "r1", domain.ReservationPending, domain.ReservationCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	clash.ID = "r3"
	if err := store.Create(ctx, clash); err != nil {
		t.Fatalf("cancelled reservation should free the dates: %v", err)
	}

	if _, err := store.UpdateStatus(ctx, "r1", domain.ReservationCancelled, domain.ReservationPending); !errors.Is(err, domain.ErrReservationConflict) {
		t.Fatalf("reactivating into a taken range should conflict, got %v", err)
	}
}

func TestReservationStoreListsSortedByStart(t *testing.T) {
	ctx := context.Background()
	store := NewReservationStore()
	_ = store.Create(ctx, domain.Reservation{ID: "late", EquipmentID: "eq-1", UserID: "u1", StartDate: day("2024-12-01"), EndDate: day("2024-12-02"), Status: domain.ReservationPending})
	_ = store.Create(ctx, domain.Reservation{ID: "early", EquipmentID: "eq-1", UserID: "u2", StartDate: day("2024-11-01"), EndDate: day("2024-11-02"), Status: domain.ReservationPending})

	list, err := store.ListByEquipment(ctx, "eq-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "early" || list[1].ID != "late" {
		t.Fatalf("unexpected order %+v", list)
	}

	mine, _ := store.ListByUser(ctx, "u1")
	if len(mine) != 1 || mine[0].ID != "late" {
		t.Fatalf("unexpected user list %+v", mine)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReservationStoreRejectsStaleStatusUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewReservationStore()
	_ = store.Create(ctx, domain.Reservation{ID: "r1", EquipmentID: "eq-1", UserID: "u1", StartDate: day("2024-11-01"), EndDate: day("2024-11-02"), Status: domain.ReservationPending})

	if _, err := store.UpdateStatus(ctx, "r1", domain.ReservationPending, domain.ReservationApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "r1", domain.ReservationPending, domain.ReservationRejected); !errors.Is(err, domain.ErrInvalidReservation) {
		t.Fatalf("expected stale update rejected, got %v", err)
	}
	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.ReservationApproved {
		t.Fatalf("expected approved to stick, got %s", got.Status)
	}
}
