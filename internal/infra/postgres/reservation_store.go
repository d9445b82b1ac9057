package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geoportal-service/internal/domain"
	"github.com/uptrace/bun"
)

type reservationRow struct {
	bun.BaseModel `bun:"table:reservations"`

	ID          string    `bun:"id,pk"`
	EquipmentID string    `bun:"equipment_id,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	StartDate   time.Time `bun:"start_date,type:date,notnull"`
	EndDate     time.Time `bun:"end_date,type:date,notnull"`
	Purpose     string    `bun:"purpose,notnull"`
	Status      string    `bun:"status,notnull"`
	RequestedAt time.Time `bun:"requested_at,notnull"`
}

func toRow(r domain.Reservation) reservationRow {
	return reservationRow{
		ID:          r.ID,
		EquipmentID: r.EquipmentID,
		UserID:      r.UserID,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Purpose:     r.Purpose,
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
	}
}

func (row reservationRow) toDomain() domain.Reservation {
	return domain.Reservation{
		ID:          row.ID,
		EquipmentID: row.EquipmentID,
		UserID:      row.UserID,
		StartDate:   utcDay(row.StartDate),
		EndDate:     utcDay(row.EndDate),
		Purpose:     row.Purpose,
		Status:      domain.ReservationStatus(row.Status),
		RequestedAt: row.RequestedAt.UTC(),
	}
}

func utcDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var activeStatuses = []string{string(domain.ReservationPending), string(domain.ReservationApproved)}

// ReservationStore persists reservations with bun. Writes for one equipment
// item are serialized with a transaction-scoped advisory lock so the overlap
// check and the insert are atomic.
type ReservationStore struct {
	db *bun.DB
}

func NewReservationStore(db *bun.DB) *ReservationStore {
	return &ReservationStore{db: db}
}

func (s *ReservationStore) Create(ctx context.Context, r domain.Reservation) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockEquipment(ctx, tx, r.EquipmentID); err != nil {
			return err
		}
		clash, err := overlapping(ctx, tx, r, "")
		if err != nil {
			return err
		}
		if clash {
			return domain.ErrReservationConflict
		}
		row := toRow(r)
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
}

func (s *ReservationStore) Get(ctx context.Context, id string) (domain.Reservation, error) {
	var row reservationRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return row.toDomain(), nil
}

func (s *ReservationStore) ListByEquipment(ctx context.Context, equipmentID string) ([]domain.Reservation, error) {
	return s.list(ctx, "equipment_id = ?", equipmentID)
}

func (s *ReservationStore) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return s.list(ctx, "user_id = ?", userID)
}

func (s *ReservationStore) list(ctx context.Context, where string, arg any) ([]domain.Reservation, error) {
	var rows []reservationRow
	err := s.db.NewSelect().
		Model(&rows).
		Where(where, arg).
		Order("start_date ASC", "requested_at ASC", "id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	out := make([]domain.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateStatus compares the locked row against from and re-checks overlaps
// when an inactive reservation becomes active.
func (s *ReservationStore) UpdateStatus(ctx context.Context, id string, from, status domain.ReservationStatus) (domain.Reservation, error) {
	var updated domain.Reservation
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row reservationRow
		err := tx.NewSelect().Model(&row).Where("id = ?", id).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}

		current := row.toDomain()
		if current.Status != from {
			return fmt.Errorf("%w: reservation is %s, not %s", domain.ErrInvalidReservation, current.Status, from)
		}
		if status.Active() && !current.Status.Active() {
			if err := lockEquipment(ctx, tx, current.EquipmentID); err != nil {
				return err
			}
			clash, err := overlapping(ctx, tx, current, current.ID)
			if err != nil {
				return err
			}
			if clash {
				return domain.ErrReservationConflict
			}
		}

		row.Status = string(status)
		if _, err := tx.NewUpdate().Model(&row).Column("status").WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		updated = row.toDomain()
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return updated, nil
}

func lockEquipment(ctx context.Context, tx bun.Tx, equipmentID string) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", equipmentID); err != nil {
		return fmt.Errorf("lock equipment: %w", err)
	}
	return nil
}

// overlapping reports whether an active reservation other than excludeID
// shares at least one day with r.
func overlapping(ctx context.Context, tx bun.Tx, r domain.Reservation, excludeID string) (bool, error) {
	q := tx.NewSelect().
		Model((*reservationRow)(nil)).
		Where("equipment_id = ?", r.EquipmentID).
		Where("status IN (?)", bun.In(activeStatuses)).
		Where("start_date <= ?", r.EndDate).
		Where("end_date >= ?", r.StartDate)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}
