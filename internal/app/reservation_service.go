package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"geoportal-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationRepository persists equipment reservations. Create must reject,
// atomically, a reservation whose dates overlap an active one for the same
// equipment with domain.ErrReservationConflict. UpdateStatus applies only
// while the stored status is still from, otherwise it returns
// domain.ErrInvalidReservation.
type ReservationRepository interface {
	Create(ctx context.Context, r domain.Reservation) error
	Get(ctx context.Context, id string) (domain.Reservation, error)
	ListByEquipment(ctx context.Context, equipmentID string) ([]domain.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (domain.Reservation, error)
}

// ReservationService validates and records equipment reservation requests.
type ReservationService struct {
	catalog *CatalogService
	repo    ReservationRepository
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewReservationService(catalog *CatalogService, repo ReservationRepository, logger *zap.Logger) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		catalog: catalog,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// NewReservationServiceWithClock is test-only for deterministic IDs and timestamps.
func NewReservationServiceWithClock(catalog *CatalogService, repo ReservationRepository, now func() time.Time, newID func() string) *ReservationService {
	s := NewReservationService(catalog, repo, nil)
	s.now = now
	s.newID = newID
	return s
}

// Reserve validates req and records a pending reservation.
func (s *ReservationService) Reserve(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
	reservation, err := s.validate(ctx, req)
	if err != nil {
		return domain.ReservationResult{Success: false, Message: err.Error()}, err
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return domain.ReservationResult{Success: false, Message: err.Error()}, err
	}
	s.logger.Info("reservation requested",
		zap.String("reservation_id", reservation.ID),
		zap.String("equipment_id", reservation.EquipmentID),
		zap.String("user_id", reservation.UserID))
	return domain.ReservationResult{
		Success:     true,
		Message:     "Reservation request submitted",
		Reservation: &reservation,
	}, nil
}

func (s *ReservationService) validate(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return domain.Reservation{}, fmt.Errorf("%w: userId is required", domain.ErrInvalidReservation)
	}
	if strings.TrimSpace(req.EquipmentID) == "" {
		return domain.Reservation{}, fmt.Errorf("%w: equipmentId is required", domain.ErrInvalidReservation)
	}
	equipment, err := s.catalog.EquipmentItem(ctx, req.EquipmentID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if equipment.Availability == domain.Unavailable {
		return domain.Reservation{}, domain.ErrEquipmentUnavailable
	}

	start, err := parseDay(req.StartDate)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: startDate %q", domain.ErrInvalidReservation, req.StartDate)
	}
	end, err := parseDay(req.EndDate)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: endDate %q", domain.ErrInvalidReservation, req.EndDate)
	}
	if end.Before(start) {
		return domain.Reservation{}, fmt.Errorf("%w: endDate before startDate", domain.ErrInvalidReservation)
	}

	return domain.Reservation{
		ID:          s.newID(),
		EquipmentID: equipment.ID,
		UserID:      req.UserID,
		StartDate:   start,
		EndDate:     end,
		Purpose:     strings.TrimSpace(req.Purpose),
		Status:      domain.ReservationPending,
		RequestedAt: s.now().UTC(),
	}, nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	return s.repo.Get(ctx, id)
}

// ForEquipment lists reservations for an equipment item, validating the ID.
func (s *ReservationService) ForEquipment(ctx context.Context, equipmentID string) ([]domain.Reservation, error) {
	if _, err := s.catalog.EquipmentItem(ctx, equipmentID); err != nil {
		return nil, err
	}
	return s.repo.ListByEquipment(ctx, equipmentID)
}

func (s *ReservationService) ForUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidReservation)
	}
	return s.repo.ListByUser(ctx, userID)
}

// allowedTransitions lists the statuses reachable from each status.
var allowedTransitions = map[domain.ReservationStatus][]domain.ReservationStatus{
	domain.ReservationPending:  {domain.ReservationApproved, domain.ReservationRejected, domain.ReservationCancelled},
	domain.ReservationApproved: {domain.ReservationCompleted, domain.ReservationCancelled},
}

// SetStatus moves a reservation along its lifecycle.
func (s *ReservationService) SetStatus(ctx context.Context, id string, status domain.ReservationStatus) (domain.Reservation, error) {
	if !status.Valid() {
		return domain.Reservation{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidReservation, status)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if current.Status == status {
		return current, nil
	}
	if !anyOf(allowedTransitions[current.Status], status) || len(allowedTransitions[current.Status]) == 0 {
		return domain.Reservation{}, fmt.Errorf("%w: cannot move from %s to %s", domain.ErrInvalidReservation, current.Status, status)
	}
	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, status)
	if err != nil {
		return domain.Reservation{}, err
	}
	s.logger.Info("reservation status changed",
		zap.String("reservation_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(status)))
	return updated, nil
}
