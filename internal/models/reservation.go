package models

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of a reservation
type State string

const (
	StateRequested  State = "Requested"
	StateConfirmed  State = "Confirmed"
	StateAuthorized State = "Authorized"
	StateCompleted  State = "Completed"
	StateCancelled  State = "Cancelled"
)

// States lists every defined state in lifecycle order
var States = []State{StateRequested, StateConfirmed, StateAuthorized, StateCompleted, StateCancelled}

// TerminalStates never block a parking slot
var TerminalStates = []State{StateCancelled, StateCompleted}

// ParseState resolves a state name case-insensitively
func ParseState(s string) (State, error) {
	for _, st := range States {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown reservation state %q", s)
}

// Valid reports whether s is one of the defined states
func (s State) Valid() bool {
	for _, st := range States {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether s is Cancelled or Completed
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted
}

// Available is the derived availability flag: true unless the state is terminal
func (s State) Available() bool {
	return !s.Terminal()
}

// Role is the role string carried by a caller
type Role string

const (
	RolePilot   Role = "pilot"
	RoleAgent   Role = "agent"
	RoleManager Role = "manager"
)

// Flight holds the scheduled times of the flight a reservation was made for
type Flight struct {
	ID            int64  `json:"id"`
	DepartureTime string `json:"departure_time"` // HH:MM
	ArrivalTime   string `json:"arrival_time"`   // HH:MM
}

// Invoice is the monetary record attached 1:1 to a reservation.
// The daily, monthly and yearly revenue fields all receive the computed total.
type Invoice struct {
	ID             int64   `json:"id"`
	DailyRevenue   float64 `json:"daily_revenue"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
	YearlyRevenue  float64 `json:"yearly_revenue"`
	Total          float64 `json:"total"`
	AgentID        *int64  `json:"agent_id"` // nil until billing is finalized
}

// Reservation books one aircraft for one flight on a date, occupying zero or one parking slot
type Reservation struct {
	ID            int64  `json:"id"`
	State         State  `json:"state"`
	Date          string `json:"date"` // YYYY-MM-DD
	FlightID      int64  `json:"flight_id"`
	AircraftID    int64  `json:"aircraft_id"`
	ParkingSlotID *int64 `json:"parking_slot_id"`
	InvoiceID     int64  `json:"invoice_id"`
}

// Available returns the derived availability flag
func (r *Reservation) Available() bool {
	return r.State.Available()
}

// FuelFill records the fuel loaded for a reservation. At most one exists per reservation.
type FuelFill struct {
	ReservationID int64   `json:"reservation_id"`
	Quantity      float64 `json:"quantity"` // liters
	FuelType      string  `json:"fuel_type"`
}

// HangarAssignment binds a reservation to a hangar. At most one exists per reservation.
type HangarAssignment struct {
	ID            int64 `json:"id"`
	ReservationID int64 `json:"reservation_id"`
	HangarID      int64 `json:"hangar_id"`
}

// BillingInputs gathers the resources attached to a reservation that contribute to its total.
// Nil fields mean the resource is not attached.
type BillingInputs struct {
	ReservationID   int64
	InvoiceID       int64
	ParkingTier     *string
	FuelQuantity    *float64
	FuelPrice       *float64
	HangarDailyRate *float64
}

// ReservationFilter selects reservations; zero-valued fields are ignored
type ReservationFilter struct {
	Date          string
	State         State
	ParkingSlotID *int64
	AircraftID    *int64
	Available     *bool
	Limit         int
}
