// Package billing prices a reservation from its attached resources and writes the result to
// its invoice.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"aerodrome/internal/apperr"
	"aerodrome/internal/models"
)

const (
	DefaultHighTierFee = 50.0
	DefaultLowTierFee  = 20.0
)

// Store loads pricing inputs and persists invoice totals. database.InvoiceRepository satisfies it.
type Store interface {
	BillingInputs(ctx context.Context, reservationID int64) (*models.BillingInputs, error)
	UpdateTotals(ctx context.Context, invoiceID int64, total float64, agentID int64) error
	GetByReservation(ctx context.Context, reservationID int64) (*models.Invoice, error)
}

// TierFees is the flat parking fee charged per price tier
type TierFees struct {
	High float64
	Low  float64
}

func DefaultTierFees() TierFees {
	return TierFees{High: DefaultHighTierFee, Low: DefaultLowTierFee}
}

func (f TierFees) fee(tier string) (float64, error) {
	switch tier {
	case models.TierHigh:
		return f.High, nil
	case models.TierLow:
		return f.Low, nil
	default:
		return 0, apperr.Validation("unknown parking price tier %q", tier)
	}
}

// Breakdown is an invoice total split by resource
type Breakdown struct {
	InvoiceID int64   `json:"invoice_id"`
	Parking   float64 `json:"parking"`
	Fuel      float64 `json:"fuel"`
	Hangar    float64 `json:"hangar"`
	Total     float64 `json:"total"`
}

// Engine computes and records reservation invoices
type Engine struct {
	store Store
	fees  TierFees
}

func NewEngine(store Store, fees TierFees) *Engine {
	return &Engine{store: store, fees: fees}
}

// Compute prices a reservation. Absent resources contribute zero.
func (e *Engine) Compute(in models.BillingInputs) (Breakdown, error) {
	b := Breakdown{InvoiceID: in.InvoiceID}

	if in.ParkingTier != nil {
		fee, err := e.fees.fee(*in.ParkingTier)
		if err != nil {
			return Breakdown{}, err
		}
		b.Parking = roundCents(fee)
	}
	if in.FuelQuantity != nil && in.FuelPrice != nil {
		b.Fuel = roundCents(*in.FuelQuantity * *in.FuelPrice)
	}
	if in.HangarDailyRate != nil {
		b.Hangar = roundCents(*in.HangarDailyRate)
	}

	b.Total = roundCents(b.Parking + b.Fuel + b.Hangar)
	return b, nil
}

// GenerateInvoice recomputes the invoice of a reservation and assigns the responsible agent.
// Repeated calls overwrite the previous total and agent.
func (e *Engine) GenerateInvoice(ctx context.Context, reservationID, agentID int64) (Breakdown, error) {
	in, err := e.store.BillingInputs(ctx, reservationID)
	if err != nil {
		return Breakdown{}, err
	}

	b, err := e.Compute(*in)
	if err != nil {
		return Breakdown{}, fmt.Errorf("price reservation %d: %w", reservationID, err)
	}

	if err := e.store.UpdateTotals(ctx, in.InvoiceID, b.Total, agentID); err != nil {
		return Breakdown{}, err
	}

	slog.Info("Invoice generated",
		"reservation_id", reservationID,
		"invoice_id", in.InvoiceID,
		"agent_id", agentID,
		"parking", b.Parking,
		"fuel", b.Fuel,
		"hangar", b.Hangar,
		"total", b.Total,
	)
	return b, nil
}

// Invoice returns the stored invoice of a reservation
func (e *Engine) Invoice(ctx context.Context, reservationID int64) (*models.Invoice, error) {
	return e.store.GetByReservation(ctx, reservationID)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
