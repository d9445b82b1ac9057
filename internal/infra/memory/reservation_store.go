package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"geoportal-service/internal/domain"
)

// ReservationStore is an in-memory implementation of app.ReservationRepository.
type ReservationStore struct {
	mu           sync.RWMutex
	reservations map[string]domain.Reservation
	byEquipment  map[string][]string
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{
		reservations: make(map[string]domain.Reservation),
		byEquipment:  make(map[string][]string),
	}
}

func (s *ReservationStore) Create(_ context.Context, r domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byEquipment[r.EquipmentID] {
		existing := s.reservations[id]
		if existing.Status.Active() && existing.Overlaps(r) {
			return domain.ErrReservationConflict
		}
	}
	s.reservations[r.ID] = r
	s.byEquipment[r.EquipmentID] = append(s.byEquipment[r.EquipmentID], r.ID)
	return nil
}

func (s *ReservationStore) Get(_ context.Context, id string) (domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return r, nil
}

func (s *ReservationStore) ListByEquipment(_ context.Context, equipmentID string) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Reservation, 0, len(s.byEquipment[equipmentID]))
	for _, id := range s.byEquipment[equipmentID] {
		out = append(out, s.reservations[id])
	}
	sortByStart(out)
	return out, nil
}

func (s *ReservationStore) ListByUser(_ context.Context, userID string) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Reservation{}
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *ReservationStore) UpdateStatus(_ context.Context, id string, from, status domain.ReservationStatus) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if r.Status != from {
		return domain.Reservation{}, fmt.Errorf("%w: reservation is %s, not %s", domain.ErrInvalidReservation, r.Status, from)
	}
	if status.Active() && !r.Status.Active() {
		for _, otherID := range s.byEquipment[r.EquipmentID] {
			other := s.reservations[otherID]
			if otherID != id && other.Status.Active() && other.Overlaps(r) {
				return domain.Reservation{}, domain.ErrReservationConflict
			}
		}
	}
	r.Status = status
	s.reservations[id] = r
	return r, nil
}

// sortByStart orders by start date, then request time, then ID.
func sortByStart(rs []domain.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].StartDate.Equal(rs[j].StartDate) {
			return rs[i].StartDate.Before(rs[j].StartDate)
		}
		if !rs[i].RequestedAt.Equal(rs[j].RequestedAt) {
			return rs[i].RequestedAt.Before(rs[j].RequestedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
