package database

import (
	"strings"

	"aerodrome/internal/models"
)

// Column is a filterable column. Only the constants below exist, so query text is never
// built from caller-supplied strings; values are always bound as positional parameters.
type Column string

const (
	ColDate          Column = "date"
	ColState         Column = "state"
	ColParkingSlotID Column = "parking_slot_id"
	ColAircraftID    Column = "aircraft_id"
	ColAvailable     Column = "available"
)

// Filter accumulates AND-ed predicates with their bound arguments
type Filter struct {
	conds []string
	args  []any
}

// NewFilter returns an empty filter
func NewFilter() *Filter {
	return &Filter{}
}

// Eq adds "col = ?"
func (f *Filter) Eq(col Column, v any) *Filter {
	f.conds = append(f.conds, string(col)+" = ?")
	f.args = append(f.args, v)
	return f
}

// In adds "col IN (?, ...)". An empty value list matches nothing.
func (f *Filter) In(col Column, vs ...any) *Filter {
	if len(vs) == 0 {
		f.conds = append(f.conds, "1 = 0")
		return f
	}
	f.conds = append(f.conds, string(col)+" IN ("+placeholders(len(vs))+")")
	f.args = append(f.args, vs...)
	return f
}

// NotIn adds "col NOT IN (?, ...)". An empty value list adds nothing.
func (f *Filter) NotIn(col Column, vs ...any) *Filter {
	if len(vs) == 0 {
		return f
	}
	f.conds = append(f.conds, string(col)+" NOT IN ("+placeholders(len(vs))+")")
	f.args = append(f.args, vs...)
	return f
}

// Build renders the WHERE clause (empty when there are no predicates) and its arguments
func (f *Filter) Build() (string, []any) {
	if len(f.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(f.conds, " AND "), f.args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func statesAsArgs(states []models.State) []any {
	out := make([]any, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// reservationFilter translates a ReservationFilter into bound predicates
func reservationFilter(rf models.ReservationFilter) *Filter {
	f := NewFilter()
	if rf.Date != "" {
		f.Eq(ColDate, rf.Date)
	}
	if rf.State != "" {
		f.Eq(ColState, string(rf.State))
	}
	if rf.ParkingSlotID != nil {
		f.Eq(ColParkingSlotID, *rf.ParkingSlotID)
	}
	if rf.AircraftID != nil {
		f.Eq(ColAircraftID, *rf.AircraftID)
	}
	if rf.Available != nil {
		f.Eq(ColAvailable, *rf.Available)
	}
	return f
}
