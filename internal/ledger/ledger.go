// Package ledger owns reservation records and their state machine.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aerodrome/internal/apperr"
	"aerodrome/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Store persists reservations. database.ReservationRepository satisfies it.
type Store interface {
	Create(ctx context.Context, flight *models.Flight, res *models.Reservation) error
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	UpdateState(ctx context.Context, id int64, state models.State) error
}

// Catalog resolves the aircraft and parking slot a booking refers to.
// database.CatalogRepository satisfies it.
type Catalog interface {
	GetAircraft(ctx context.Context, id int64) (*models.Aircraft, error)
	GetParkingSlot(ctx context.Context, id int64) (*models.ParkingSlot, error)
}

// ConflictChecker is the availability check run before the initial state is assigned
type ConflictChecker interface {
	CheckConflict(ctx context.Context, date string, parkingSlotID *int64) (bool, error)
}

// BookingRequest is a request to book a flight, optionally with a parking slot
type BookingRequest struct {
	PilotID       int64
	AircraftID    int64
	Date          string // YYYY-MM-DD
	DepartureTime string // HH:MM
	ArrivalTime   string // HH:MM
	ParkingSlotID *int64 // nil when no parking is requested
}

// Ledger creates reservations and applies agent-driven state transitions
type Ledger struct {
	store   Store
	catalog Catalog
	checker ConflictChecker
}

func New(store Store, catalog Catalog, checker ConflictChecker) *Ledger {
	return &Ledger{store: store, catalog: catalog, checker: checker}
}

// CreateReservation books a slot. The initial state is Requested when the slot is free and
// Cancelled when it is already held: conflicting requests are rejected, not queued.
// Flight, invoice and reservation are written atomically.
func (l *Ledger) CreateReservation(ctx context.Context, req BookingRequest) (*models.Reservation, error) {
	if err := l.validate(ctx, req); err != nil {
		return nil, err
	}

	conflict, err := l.checker.CheckConflict(ctx, req.Date, req.ParkingSlotID)
	if err != nil {
		return nil, err
	}

	state := models.StateRequested
	if conflict {
		state = models.StateCancelled
	}

	res := &models.Reservation{
		State:         state,
		Date:          req.Date,
		AircraftID:    req.AircraftID,
		ParkingSlotID: req.ParkingSlotID,
	}
	flight := &models.Flight{DepartureTime: req.DepartureTime, ArrivalTime: req.ArrivalTime}

	if err := l.store.Create(ctx, flight, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	if conflict {
		slog.Info("Booking auto-cancelled, parking slot already held",
			"reservation_id", res.ID,
			"date", res.Date,
			"parking_slot_id", *res.ParkingSlotID,
		)
	} else {
		slog.Info("Reservation requested",
			"reservation_id", res.ID,
			"aircraft_id", res.AircraftID,
			"date", res.Date,
		)
	}

	return res, nil
}

func (l *Ledger) validate(ctx context.Context, req BookingRequest) error {
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return apperr.Validation("date %q must be formatted YYYY-MM-DD", req.Date)
	}
	if _, err := time.Parse(timeLayout, req.DepartureTime); err != nil {
		return apperr.Validation("departure time %q must be formatted HH:MM", req.DepartureTime)
	}
	if _, err := time.Parse(timeLayout, req.ArrivalTime); err != nil {
		return apperr.Validation("arrival time %q must be formatted HH:MM", req.ArrivalTime)
	}

	ac, err := l.catalog.GetAircraft(ctx, req.AircraftID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Validation("aircraft %d does not exist", req.AircraftID)
	}
	if err != nil {
		return err
	}
	if ac.PilotID != req.PilotID {
		return apperr.Validation("aircraft %d is not owned by pilot %d", req.AircraftID, req.PilotID)
	}

	if req.ParkingSlotID != nil {
		_, err := l.catalog.GetParkingSlot(ctx, *req.ParkingSlotID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("parking slot %d does not exist", *req.ParkingSlotID)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// TransitionState moves a reservation to newState. Any of the four non-initial states may be
// targeted from any current state; no transition graph is enforced.
func (l *Ledger) TransitionState(ctx context.Context, id int64, newState models.State) (*models.Reservation, error) {
	if !newState.Valid() || newState == models.StateRequested {
		return nil, apperr.Validation("cannot transition to state %q", newState)
	}

	if err := l.store.UpdateState(ctx, id, newState); err != nil {
		return nil, fmt.Errorf("transition reservation %d: %w", id, err)
	}

	res, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("Reservation state changed",
		"reservation_id", id,
		"state", res.State,
		"available", res.Available(),
	)
	return res, nil
}

// Get returns a reservation by ID
func (l *Ledger) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return l.store.Get(ctx, id)
}

// List returns the reservations matching filter
func (l *Ledger) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	if filter.State != "" && !filter.State.Valid() {
		return nil, apperr.Validation("unknown state %q", filter.State)
	}
	return l.store.List(ctx, filter)
}
