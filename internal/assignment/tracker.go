// Package assignment attaches ground services (fuel, hangar) to reservations, at most one of
// each per reservation.
package assignment

import (
	"context"
	"log/slog"
	"strings"

	"aerodrome/internal/apperr"
	"aerodrome/internal/models"
)

// Store persists fuel fills and hangar assignments. database.AssignmentRepository satisfies it.
type Store interface {
	InsertFuelFill(ctx context.Context, fill *models.FuelFill) error
	UpsertFuelFill(ctx context.Context, fill *models.FuelFill) error
	GetFuelFill(ctx context.Context, reservationID int64) (*models.FuelFill, error)
	InsertHangarAssignment(ctx context.Context, a *models.HangarAssignment) error
	UpsertHangarAssignment(ctx context.Context, a *models.HangarAssignment) error
	GetHangarAssignment(ctx context.Context, reservationID int64) (*models.HangarAssignment, error)
}

// Reservations looks up the reservation a resource is attached to
type Reservations interface {
	Get(ctx context.Context, id int64) (*models.Reservation, error)
}

// Catalog resolves fuel types and hangars
type Catalog interface {
	GetFuelType(ctx context.Context, name string) (*models.FuelType, error)
	GetHangar(ctx context.Context, id int64) (*models.Hangar, error)
}

// Options tunes the tracker's checks
type Options struct {
	// EnforceFuelMaxQuantity rejects fills larger than the fuel type's maximum storable
	// quantity. When false such fills are accepted and logged.
	EnforceFuelMaxQuantity bool
}

// Tracker attaches fuel fills and hangar assignments to reservations
type Tracker struct {
	store        Store
	reservations Reservations
	catalog      Catalog
	opts         Options
}

func NewTracker(store Store, reservations Reservations, catalog Catalog, opts Options) *Tracker {
	return &Tracker{store: store, reservations: reservations, catalog: catalog, opts: opts}
}

// AttachFuel records the fuel fill of a reservation. A reservation that already has a fill
// is rejected with a duplicate error; use UpsertFuel to replace it.
func (t *Tracker) AttachFuel(ctx context.Context, reservationID int64, quantity float64, fuelType string) (*models.FuelFill, error) {
	fill, err := t.prepareFuel(ctx, reservationID, quantity, fuelType)
	if err != nil {
		return nil, err
	}
	if err := t.store.InsertFuelFill(ctx, fill); err != nil {
		return nil, err
	}
	slog.Info("Fuel fill attached", "reservation_id", reservationID, "fuel_type", fill.FuelType, "quantity", quantity)
	return fill, nil
}

// UpsertFuel creates or replaces the fuel fill of a reservation
func (t *Tracker) UpsertFuel(ctx context.Context, reservationID int64, quantity float64, fuelType string) (*models.FuelFill, error) {
	fill, err := t.prepareFuel(ctx, reservationID, quantity, fuelType)
	if err != nil {
		return nil, err
	}
	if err := t.store.UpsertFuelFill(ctx, fill); err != nil {
		return nil, err
	}
	slog.Info("Fuel fill upserted", "reservation_id", reservationID, "fuel_type", fill.FuelType, "quantity", quantity)
	return fill, nil
}

func (t *Tracker) prepareFuel(ctx context.Context, reservationID int64, quantity float64, fuelType string) (*models.FuelFill, error) {
	if quantity <= 0 {
		return nil, apperr.Validation("fuel quantity must be positive, got %v", quantity)
	}
	fuelType = strings.TrimSpace(fuelType)
	if fuelType == "" {
		return nil, apperr.Validation("fuel type is required")
	}

	if _, err := t.reservations.Get(ctx, reservationID); err != nil {
		return nil, err
	}
	fuel, err := t.catalog.GetFuelType(ctx, fuelType)
	if err != nil {
		return nil, err
	}

	if quantity > fuel.MaxQuantity {
		if t.opts.EnforceFuelMaxQuantity {
			return nil, apperr.Validation("fuel quantity %v exceeds %s maximum of %v", quantity, fuel.Name, fuel.MaxQuantity)
		}
		slog.Warn("Fuel quantity exceeds storable maximum",
			"reservation_id", reservationID,
			"fuel_type", fuel.Name,
			"quantity", quantity,
			"max_quantity", fuel.MaxQuantity,
		)
	}

	return &models.FuelFill{ReservationID: reservationID, Quantity: quantity, FuelType: fuel.Name}, nil
}

// AttachHangar assigns a hangar to a reservation. A reservation that already has an
// assignment is rejected with a duplicate error; use UpsertHangar to move it.
func (t *Tracker) AttachHangar(ctx context.Context, reservationID, hangarID int64) (*models.HangarAssignment, error) {
	a, err := t.prepareHangar(ctx, reservationID, hangarID)
	if err != nil {
		return nil, err
	}
	if err := t.store.InsertHangarAssignment(ctx, a); err != nil {
		return nil, err
	}
	slog.Info("Hangar attached", "reservation_id", reservationID, "hangar_id", hangarID, "assignment_id", a.ID)
	return a, nil
}

// UpsertHangar creates or re-points the hangar assignment of a reservation
func (t *Tracker) UpsertHangar(ctx context.Context, reservationID, hangarID int64) (*models.HangarAssignment, error) {
	a, err := t.prepareHangar(ctx, reservationID, hangarID)
	if err != nil {
		return nil, err
	}
	if err := t.store.UpsertHangarAssignment(ctx, a); err != nil {
		return nil, err
	}
	slog.Info("Hangar assignment upserted", "reservation_id", reservationID, "hangar_id", hangarID, "assignment_id", a.ID)
	return a, nil
}

func (t *Tracker) prepareHangar(ctx context.Context, reservationID, hangarID int64) (*models.HangarAssignment, error) {
	if _, err := t.reservations.Get(ctx, reservationID); err != nil {
		return nil, err
	}
	if _, err := t.catalog.GetHangar(ctx, hangarID); err != nil {
		return nil, err
	}
	return &models.HangarAssignment{ReservationID: reservationID, HangarID: hangarID}, nil
}

// FuelFill returns the fuel fill attached to a reservation
func (t *Tracker) FuelFill(ctx context.Context, reservationID int64) (*models.FuelFill, error) {
	return t.store.GetFuelFill(ctx, reservationID)
}

// HangarAssignment returns the hangar assignment attached to a reservation
func (t *Tracker) HangarAssignment(ctx context.Context, reservationID int64) (*models.HangarAssignment, error) {
	return t.store.GetHangarAssignment(ctx, reservationID)
}
