package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aerodrome/internal/apperr"
	"aerodrome/internal/models"
)

// AssignmentRepository stores the one-per-reservation fuel fill and hangar assignment
type AssignmentRepository interface {
	InsertFuelFill(ctx context.Context, fill *models.FuelFill) error
	UpsertFuelFill(ctx context.Context, fill *models.FuelFill) error
	GetFuelFill(ctx context.Context, reservationID int64) (*models.FuelFill, error)
	InsertHangarAssignment(ctx context.Context, a *models.HangarAssignment) error
	UpsertHangarAssignment(ctx context.Context, a *models.HangarAssignment) error
	GetHangarAssignment(ctx context.Context, reservationID int64) (*models.HangarAssignment, error)
}

type assignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// InsertFuelFill records a fuel fill. A second fill for the same reservation is rejected.
func (r *assignmentRepository) InsertFuelFill(ctx context.Context, fill *models.FuelFill) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fuel_fills (reservation_id, quantity, fuel_type) VALUES (?, ?, ?)`,
		fill.ReservationID, fill.Quantity, fill.FuelType,
	)
	if err != nil {
		return fuelFillError(err, fill)
	}
	return nil
}

// UpsertFuelFill creates or replaces the fuel fill of a reservation in a single statement
func (r *assignmentRepository) UpsertFuelFill(ctx context.Context, fill *models.FuelFill) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fuel_fills (reservation_id, quantity, fuel_type) VALUES (?, ?, ?)
		ON CONFLICT(reservation_id) DO UPDATE SET quantity = excluded.quantity, fuel_type = excluded.fuel_type`,
		fill.ReservationID, fill.Quantity, fill.FuelType,
	)
	if err != nil {
		return fuelFillError(err, fill)
	}
	return nil
}

func fuelFillError(err error, fill *models.FuelFill) error {
	switch {
	case isUniqueViolation(err):
		return apperr.Duplicate("reservation %d already has a fuel fill", fill.ReservationID)
	case isForeignKeyViolation(err):
		return apperr.NotFound("reservation %d or fuel type %q", fill.ReservationID, fill.FuelType)
	case isCheckViolation(err):
		return apperr.Validation("fuel quantity must be positive, got %v", fill.Quantity)
	default:
		return fmt.Errorf("failed to write fuel fill: %w", err)
	}
}

func (r *assignmentRepository) GetFuelFill(ctx context.Context, reservationID int64) (*models.FuelFill, error) {
	f := &models.FuelFill{}
	err := r.db.QueryRowContext(ctx,
		`SELECT reservation_id, quantity, fuel_type FROM fuel_fills WHERE reservation_id = ?`, reservationID,
	).Scan(&f.ReservationID, &f.Quantity, &f.FuelType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("fuel fill for reservation %d", reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fuel fill: %w", err)
	}
	return f, nil
}

// InsertHangarAssignment binds a hangar to a reservation and sets a.ID.
// A second assignment for the same reservation is rejected.
func (r *assignmentRepository) InsertHangarAssignment(ctx context.Context, a *models.HangarAssignment) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO hangar_assignments (reservation_id, hangar_id) VALUES (?, ?)`,
		a.ReservationID, a.HangarID,
	)
	if err != nil {
		return hangarAssignmentError(err, a)
	}
	if a.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read hangar assignment id: %w", err)
	}
	return nil
}

// UpsertHangarAssignment creates or re-points the hangar assignment of a reservation in a
// single statement and sets a.ID to the assignment's identifier.
func (r *assignmentRepository) UpsertHangarAssignment(ctx context.Context, a *models.HangarAssignment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO hangar_assignments (reservation_id, hangar_id) VALUES (?, ?)
		ON CONFLICT(reservation_id) DO UPDATE SET hangar_id = excluded.hangar_id
		RETURNING id`,
		a.ReservationID, a.HangarID,
	).Scan(&a.ID)
	if err != nil {
		return hangarAssignmentError(err, a)
	}
	return nil
}

func hangarAssignmentError(err error, a *models.HangarAssignment) error {
	switch {
	case isUniqueViolation(err):
		return apperr.Duplicate("reservation %d already has a hangar assignment", a.ReservationID)
	case isForeignKeyViolation(err):
		return apperr.NotFound("reservation %d or hangar %d", a.ReservationID, a.HangarID)
	default:
		return fmt.Errorf("failed to write hangar assignment: %w", err)
	}
}

func (r *assignmentRepository) GetHangarAssignment(ctx context.Context, reservationID int64) (*models.HangarAssignment, error) {
	a := &models.HangarAssignment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, reservation_id, hangar_id FROM hangar_assignments WHERE reservation_id = ?`, reservationID,
	).Scan(&a.ID, &a.ReservationID, &a.HangarID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("hangar assignment for reservation %d", reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hangar assignment: %w", err)
	}
	return a, nil
}
