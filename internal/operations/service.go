// Package operations is the entry point used by transports. It checks caller roles, composes
// the availability, ledger, assignment and billing components, and records operation metrics.
package operations

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"aerodrome/internal/apperr"
	"aerodrome/internal/assignment"
	"aerodrome/internal/billing"
	"aerodrome/internal/ledger"
	"aerodrome/internal/models"
)

// Operation names used as metric labels
const (
	OpCreateReservation = "create_reservation"
	OpSetState          = "set_reservation_state"
	OpAttachFuel        = "attach_fuel"
	OpUpsertFuel        = "upsert_fuel"
	OpAttachHangar      = "attach_hangar"
	OpUpsertHangar      = "upsert_hangar"
	OpGenerateInvoice   = "generate_invoice"
)

// Catalog registers people and aircraft and lists ground resources.
// database.CatalogRepository satisfies it.
type Catalog interface {
	CreatePilot(ctx context.Context, name string) (*models.Pilot, error)
	CreateAgent(ctx context.Context, name string) (*models.Agent, error)
	CreateAircraft(ctx context.Context, ac *models.Aircraft) error
	ListParkingSlots(ctx context.Context) ([]*models.ParkingSlot, error)
	ListHangars(ctx context.Context) ([]*models.Hangar, error)
	ListFuelTypes(ctx context.Context) ([]*models.FuelType, error)
}

// Recorder receives operation outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveOperation(operation string, err error, duration time.Duration)
	AddInvoiced(amount float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, error, time.Duration) {}
func (nopRecorder) AddInvoiced(float64)                           {}

// Service exposes the reservation lifecycle and billing operations
type Service struct {
	catalog  Catalog
	ledger   *ledger.Ledger
	tracker  *assignment.Tracker
	billing  *billing.Engine
	recorder Recorder
}

// New builds a Service. A nil recorder disables metrics.
func New(catalog Catalog, l *ledger.Ledger, tracker *assignment.Tracker, engine *billing.Engine, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		catalog:  catalog,
		ledger:   l,
		tracker:  tracker,
		billing:  engine,
		recorder: recorder,
	}
}

func (s *Service) observe(op string, start time.Time, err error) {
	s.recorder.ObserveOperation(op, err, time.Since(start))
	if err != nil {
		slog.Debug("Operation failed", "operation", op, "kind", apperr.Kind(err), "error", err)
	}
}

func requireRole(caller, want models.Role) error {
	if !strings.EqualFold(strings.TrimSpace(string(caller)), string(want)) {
		return apperr.Authorization("role %q is not allowed, %q required", caller, want)
	}
	return nil
}

// CheckAndCreateReservation runs the availability check and records the reservation with the
// resolved initial state.
func (s *Service) CheckAndCreateReservation(ctx context.Context, req ledger.BookingRequest) (res *models.Reservation, err error) {
	defer func(start time.Time) { s.observe(OpCreateReservation, start, err) }(time.Now())
	return s.ledger.CreateReservation(ctx, req)
}

// SetReservationState applies an agent transition. The role is checked before any storage
// access, so a rejected caller leaves the reservation untouched.
func (s *Service) SetReservationState(ctx context.Context, reservationID int64, target models.State, caller models.Role) (res *models.Reservation, err error) {
	defer func(start time.Time) { s.observe(OpSetState, start, err) }(time.Now())

	if err := requireRole(caller, models.RoleAgent); err != nil {
		slog.Warn("Rejected state change", "reservation_id", reservationID, "role", caller)
		return nil, err
	}
	return s.ledger.TransitionState(ctx, reservationID, target)
}

func (s *Service) AttachFuel(ctx context.Context, reservationID int64, quantity float64, fuelType string) (fill *models.FuelFill, err error) {
	defer func(start time.Time) { s.observe(OpAttachFuel, start, err) }(time.Now())
	return s.tracker.AttachFuel(ctx, reservationID, quantity, fuelType)
}

func (s *Service) UpsertFuel(ctx context.Context, reservationID int64, quantity float64, fuelType string) (fill *models.FuelFill, err error) {
	defer func(start time.Time) { s.observe(OpUpsertFuel, start, err) }(time.Now())
	return s.tracker.UpsertFuel(ctx, reservationID, quantity, fuelType)
}

func (s *Service) AttachHangar(ctx context.Context, reservationID, hangarID int64) (a *models.HangarAssignment, err error) {
	defer func(start time.Time) { s.observe(OpAttachHangar, start, err) }(time.Now())
	return s.tracker.AttachHangar(ctx, reservationID, hangarID)
}

func (s *Service) UpsertHangar(ctx context.Context, reservationID, hangarID int64) (a *models.HangarAssignment, err error) {
	defer func(start time.Time) { s.observe(OpUpsertHangar, start, err) }(time.Now())
	return s.tracker.UpsertHangar(ctx, reservationID, hangarID)
}

// GenerateInvoice prices the reservation and stores the total with the responsible agent.
// Only agents may generate invoices.
func (s *Service) GenerateInvoice(ctx context.Context, reservationID, agentID int64, caller models.Role) (b billing.Breakdown, err error) {
	defer func(start time.Time) { s.observe(OpGenerateInvoice, start, err) }(time.Now())

	if err := requireRole(caller, models.RoleAgent); err != nil {
		slog.Warn("Rejected invoice generation", "reservation_id", reservationID, "role", caller)
		return billing.Breakdown{}, err
	}

	b, err = s.billing.GenerateInvoice(ctx, reservationID, agentID)
	if err != nil {
		return billing.Breakdown{}, err
	}
	s.recorder.AddInvoiced(b.Total)
	return b, nil
}

func (s *Service) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.ledger.Get(ctx, id)
}

func (s *Service) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	return s.ledger.List(ctx, filter)
}

func (s *Service) GetInvoice(ctx context.Context, reservationID int64) (*models.Invoice, error) {
	return s.billing.Invoice(ctx, reservationID)
}

func (s *Service) GetFuelFill(ctx context.Context, reservationID int64) (*models.FuelFill, error) {
	return s.tracker.FuelFill(ctx, reservationID)
}

func (s *Service) GetHangarAssignment(ctx context.Context, reservationID int64) (*models.HangarAssignment, error) {
	return s.tracker.HangarAssignment(ctx, reservationID)
}

// RegisterPilot creates a pilot
func (s *Service) RegisterPilot(ctx context.Context, name string) (*models.Pilot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("pilot name is required")
	}
	return s.catalog.CreatePilot(ctx, name)
}

// RegisterAgent creates an operations agent
func (s *Service) RegisterAgent(ctx context.Context, name string) (*models.Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("agent name is required")
	}
	return s.catalog.CreateAgent(ctx, name)
}

// RegisterAircraft creates an aircraft owned by an existing pilot
func (s *Service) RegisterAircraft(ctx context.Context, ac *models.Aircraft) (*models.Aircraft, error) {
	ac.Model = strings.TrimSpace(ac.Model)
	if ac.Model == "" {
		return nil, apperr.Validation("aircraft model is required")
	}
	if ac.FuelCapacity < 0 {
		return nil, apperr.Validation("fuel capacity must not be negative")
	}
	if err := s.catalog.CreateAircraft(ctx, ac); err != nil {
		return nil, err
	}
	slog.Info("Aircraft registered", "aircraft_id", ac.ID, "pilot_id", ac.PilotID, "model", ac.Model)
	return ac, nil
}

func (s *Service) ListParkingSlots(ctx context.Context) ([]*models.ParkingSlot, error) {
	return s.catalog.ListParkingSlots(ctx)
}

func (s *Service) ListHangars(ctx context.Context) ([]*models.Hangar, error) {
	return s.catalog.ListHangars(ctx)
}

func (s *Service) ListFuelTypes(ctx context.Context) ([]*models.FuelType, error) {
	return s.catalog.ListFuelTypes(ctx)
}
