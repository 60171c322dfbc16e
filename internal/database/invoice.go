package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aerodrome/internal/apperr"
	"aerodrome/internal/models"
)

// InvoiceRepository reads billing inputs and writes invoice totals
type InvoiceRepository interface {
	BillingInputs(ctx context.Context, reservationID int64) (*models.BillingInputs, error)
	UpdateTotals(ctx context.Context, invoiceID int64, total float64, agentID int64) error
	GetByReservation(ctx context.Context, reservationID int64) (*models.Invoice, error)
}

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// BillingInputs loads the parking tier, fuel fill and hangar rate attached to a reservation
func (r *invoiceRepository) BillingInputs(ctx context.Context, reservationID int64) (*models.BillingInputs, error) {
	var (
		in       = models.BillingInputs{ReservationID: reservationID}
		tier     sql.NullString
		quantity sql.NullFloat64
		price    sql.NullFloat64
		rate     sql.NullFloat64
	)

	err := r.db.QueryRowContext(ctx, `SELECT r.invoice_id, p.price_tier, f.quantity, ft.price_per_liter, h.daily_rate
		FROM reservations r
		LEFT JOIN parking_slots p ON p.id = r.parking_slot_id
		LEFT JOIN fuel_fills f ON f.reservation_id = r.id
		LEFT JOIN fuel_types ft ON ft.name = f.fuel_type
		LEFT JOIN hangar_assignments ha ON ha.reservation_id = r.id
		LEFT JOIN hangars h ON h.id = ha.hangar_id
		WHERE r.id = ?`, reservationID,
	).Scan(&in.InvoiceID, &tier, &quantity, &price, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("reservation %d", reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load billing inputs: %w", err)
	}

	if tier.Valid {
		in.ParkingTier = &tier.String
	}
	if quantity.Valid && price.Valid {
		in.FuelQuantity = &quantity.Float64
		in.FuelPrice = &price.Float64
	}
	if rate.Valid {
		in.HangarDailyRate = &rate.Float64
	}
	return &in, nil
}

// UpdateTotals writes total into the invoice total and revenue fields and sets the responsible agent
func (r *invoiceRepository) UpdateTotals(ctx context.Context, invoiceID int64, total float64, agentID int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE invoices
		SET total = ?, daily_revenue = ?, monthly_revenue = ?, yearly_revenue = ?, agent_id = ?
		WHERE id = ?`,
		total, total, total, total, agentID, invoiceID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Validation("agent %d does not exist", agentID)
		}
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("invoice %d", invoiceID)
	}
	return nil
}

func (r *invoiceRepository) GetByReservation(ctx context.Context, reservationID int64) (*models.Invoice, error) {
	var (
		inv   models.Invoice
		agent sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `SELECT i.id, i.daily_revenue, i.monthly_revenue, i.yearly_revenue, i.total, i.agent_id
		FROM invoices i
		JOIN reservations r ON r.invoice_id = i.id
		WHERE r.id = ?`, reservationID,
	).Scan(&inv.ID, &inv.DailyRevenue, &inv.MonthlyRevenue, &inv.YearlyRevenue, &inv.Total, &agent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("reservation %d", reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if agent.Valid {
		id := agent.Int64
		inv.AgentID = &id
	}
	return &inv, nil
}
