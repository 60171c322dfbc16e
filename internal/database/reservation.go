package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aerodrome/internal/apperr"
	"aerodrome/internal/models"
)

// ReservationRepository stores reservations together with their flight and invoice
type ReservationRepository interface {
	// Create inserts flight, a zeroed invoice and res in one transaction and sets their IDs.
	Create(ctx context.Context, flight *models.Flight, res *models.Reservation) error
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	GetFlight(ctx context.Context, id int64) (*models.Flight, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	HasActiveReservation(ctx context.Context, date string, parkingSlotID int64) (bool, error)
	UpdateState(ctx context.Context, id int64, state models.State) error
	CountByState(ctx context.Context) (map[models.State]int, error)
}

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, state, date, flight_id, aircraft_id, parking_slot_id, invoice_id`

func (r *reservationRepository) Create(ctx context.Context, flight *models.Flight, res *models.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var committed []string
	fail := func(err error) error {
		// ErrTxDone means database/sql already rolled back on context cancellation
		rbErr := tx.Rollback()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && len(committed) > 0 {
			return &apperr.PartialFailureError{Committed: committed, Err: errors.Join(err, rbErr)}
		}
		return err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO flights (departure_time, arrival_time) VALUES (?, ?)`,
		flight.DepartureTime, flight.ArrivalTime,
	)
	if err != nil {
		return fail(fmt.Errorf("failed to insert flight: %w", err))
	}
	if flight.ID, err = result.LastInsertId(); err != nil {
		return fail(fmt.Errorf("failed to read flight id: %w", err))
	}
	committed = append(committed, "flight")

	result, err = tx.ExecContext(ctx, `INSERT INTO invoices DEFAULT VALUES`)
	if err != nil {
		return fail(fmt.Errorf("failed to insert invoice: %w", err))
	}
	invoiceID, err := result.LastInsertId()
	if err != nil {
		return fail(fmt.Errorf("failed to read invoice id: %w", err))
	}
	committed = append(committed, "invoice")

	result, err = tx.ExecContext(ctx,
		`INSERT INTO reservations (state, date, flight_id, aircraft_id, parking_slot_id, invoice_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(res.State), res.Date, flight.ID, res.AircraftID, res.ParkingSlotID, invoiceID,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			err = apperr.Conflict("parking slot %v already reserved on %s", derefID(res.ParkingSlotID), res.Date)
		case isForeignKeyViolation(err):
			err = apperr.Validation("aircraft %d or parking slot %v does not exist", res.AircraftID, derefID(res.ParkingSlotID))
		default:
			err = fmt.Errorf("failed to insert reservation: %w", err)
		}
		return fail(err)
	}
	reservationID, err := result.LastInsertId()
	if err != nil {
		return fail(fmt.Errorf("failed to read reservation id: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	res.ID = reservationID
	res.FlightID = flight.ID
	res.InvoiceID = invoiceID
	return nil
}

func (r *reservationRepository) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("reservation %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return res, nil
}

func (r *reservationRepository) GetFlight(ctx context.Context, id int64) (*models.Flight, error) {
	f := &models.Flight{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, departure_time, arrival_time FROM flights WHERE id = ?`, id,
	).Scan(&f.ID, &f.DepartureTime, &f.ArrivalTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("flight %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flight: %w", err)
	}
	return f, nil
}

func (r *reservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	where, args := reservationFilter(filter).Build()
	query := `SELECT ` + reservationColumns + ` FROM reservations` + where + ` ORDER BY id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// HasActiveReservation reports whether a non-terminal reservation holds parkingSlotID on date
func (r *reservationRepository) HasActiveReservation(ctx context.Context, date string, parkingSlotID int64) (bool, error) {
	where, args := NewFilter().
		Eq(ColDate, date).
		Eq(ColParkingSlotID, parkingSlotID).
		NotIn(ColState, statesAsArgs(models.TerminalStates)...).
		Build()

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reservations`+where+`)`, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check parking slot availability: %w", err)
	}
	return exists, nil
}

// UpdateState sets the state of a reservation. The availability column follows in the same
// statement since it is generated from state.
func (r *reservationRepository) UpdateState(ctx context.Context, id int64, state models.State) error {
	result, err := r.db.ExecContext(ctx, `UPDATE reservations SET state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("reservation %d cannot become %s: its parking slot is held by another active reservation", id, state)
		}
		if isCheckViolation(err) {
			return apperr.Validation("invalid state %q", state)
		}
		return fmt.Errorf("failed to update reservation state: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("reservation %d", id)
	}
	return nil
}

func (r *reservationRepository) CountByState(ctx context.Context) (map[models.State]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM reservations GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.State]int, len(models.States))
	for _, st := range models.States {
		counts[st] = 0
	}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan reservation count: %w", err)
		}
		counts[models.State(state)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		res   models.Reservation
		state string
		slot  sql.NullInt64
	)
	if err := row.Scan(&res.ID, &state, &res.Date, &res.FlightID, &res.AircraftID, &slot, &res.InvoiceID); err != nil {
		return nil, err
	}
	res.State = models.State(state)
	if slot.Valid {
		id := slot.Int64
		res.ParkingSlotID = &id
	}
	return &res, nil
}

func derefID(id *int64) any {
	if id == nil {
		return "none"
	}
	return *id
}
