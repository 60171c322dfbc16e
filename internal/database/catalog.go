package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aerodrome/internal/apperr"
	"aerodrome/internal/models"
)

// CatalogTable names a seedable catalog table
type CatalogTable string

const (
	TableFuelTypes    CatalogTable = "fuel_types"
	TableParkingSlots CatalogTable = "parking_slots"
	TableHangars      CatalogTable = "hangars"
)

// CatalogRepository stores the people and ground resources reservations refer to
type CatalogRepository interface {
	CreatePilot(ctx context.Context, name string) (*models.Pilot, error)
	CreateAgent(ctx context.Context, name string) (*models.Agent, error)
	CreateAircraft(ctx context.Context, ac *models.Aircraft) error
	GetAircraft(ctx context.Context, id int64) (*models.Aircraft, error)
	GetParkingSlot(ctx context.Context, id int64) (*models.ParkingSlot, error)
	GetHangar(ctx context.Context, id int64) (*models.Hangar, error)
	GetFuelType(ctx context.Context, name string) (*models.FuelType, error)
	ListParkingSlots(ctx context.Context) ([]*models.ParkingSlot, error)
	ListHangars(ctx context.Context) ([]*models.Hangar, error)
	ListFuelTypes(ctx context.Context) ([]*models.FuelType, error)
	InsertFuelTypes(ctx context.Context, fuels []*models.FuelType) error
	InsertParkingSlots(ctx context.Context, slots []*models.ParkingSlot) error
	InsertHangars(ctx context.Context, hangars []*models.Hangar) error
	IsTablePopulated(ctx context.Context, table CatalogTable) (bool, error)
	CountRows(ctx context.Context, table CatalogTable) (int, error)
}

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreatePilot(ctx context.Context, name string) (*models.Pilot, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO pilots (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pilot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read pilot id: %w", err)
	}
	return &models.Pilot{ID: id, Name: name}, nil
}

func (r *catalogRepository) CreateAgent(ctx context.Context, name string) (*models.Agent, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO agents (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert agent: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read agent id: %w", err)
	}
	return &models.Agent{ID: id, Name: name}, nil
}

// CreateAircraft inserts ac and sets its ID. The owning pilot must exist.
func (r *catalogRepository) CreateAircraft(ctx context.Context, ac *models.Aircraft) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO aircraft (model, fuel_capacity, pilot_id) VALUES (?, ?, ?)`,
		ac.Model, ac.FuelCapacity, ac.PilotID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Validation("pilot %d does not exist", ac.PilotID)
		}
		return fmt.Errorf("failed to insert aircraft: %w", err)
	}
	ac.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read aircraft id: %w", err)
	}
	return nil
}

func (r *catalogRepository) GetAircraft(ctx context.Context, id int64) (*models.Aircraft, error) {
	ac := &models.Aircraft{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, model, fuel_capacity, pilot_id FROM aircraft WHERE id = ?`, id,
	).Scan(&ac.ID, &ac.Model, &ac.FuelCapacity, &ac.PilotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("aircraft %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load aircraft: %w", err)
	}
	return ac, nil
}

func (r *catalogRepository) GetParkingSlot(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	p := &models.ParkingSlot{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, size, price_tier FROM parking_slots WHERE id = ?`, id,
	).Scan(&p.ID, &p.Size, &p.PriceTier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("parking slot %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load parking slot: %w", err)
	}
	return p, nil
}

func (r *catalogRepository) GetHangar(ctx context.Context, id int64) (*models.Hangar, error) {
	h := &models.Hangar{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, size, daily_rate, weekly_rate, monthly_rate FROM hangars WHERE id = ?`, id,
	).Scan(&h.ID, &h.Size, &h.DailyRate, &h.WeeklyRate, &h.MonthlyRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("hangar %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hangar: %w", err)
	}
	return h, nil
}

func (r *catalogRepository) GetFuelType(ctx context.Context, name string) (*models.FuelType, error) {
	f := &models.FuelType{}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, price_per_liter, max_quantity FROM fuel_types WHERE name = ?`, name,
	).Scan(&f.Name, &f.PricePerLiter, &f.MaxQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("fuel type %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fuel type: %w", err)
	}
	return f, nil
}

func (r *catalogRepository) ListParkingSlots(ctx context.Context) ([]*models.ParkingSlot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, size, price_tier FROM parking_slots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list parking slots: %w", err)
	}
	defer rows.Close()

	var out []*models.ParkingSlot
	for rows.Next() {
		p := &models.ParkingSlot{}
		if err := rows.Scan(&p.ID, &p.Size, &p.PriceTier); err != nil {
			return nil, fmt.Errorf("failed to scan parking slot: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *catalogRepository) ListHangars(ctx context.Context) ([]*models.Hangar, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, size, daily_rate, weekly_rate, monthly_rate FROM hangars ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hangars: %w", err)
	}
	defer rows.Close()

	var out []*models.Hangar
	for rows.Next() {
		h := &models.Hangar{}
		if err := rows.Scan(&h.ID, &h.Size, &h.DailyRate, &h.WeeklyRate, &h.MonthlyRate); err != nil {
			return nil, fmt.Errorf("failed to scan hangar: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *catalogRepository) ListFuelTypes(ctx context.Context) ([]*models.FuelType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, price_per_liter, max_quantity FROM fuel_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fuel types: %w", err)
	}
	defer rows.Close()

	var out []*models.FuelType
	for rows.Next() {
		f := &models.FuelType{}
		if err := rows.Scan(&f.Name, &f.PricePerLiter, &f.MaxQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan fuel type: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// InsertFuelTypes inserts fuel types in a single transaction; existing names are left untouched
func (r *catalogRepository) InsertFuelTypes(ctx context.Context, fuels []*models.FuelType) error {
	rows := make([][]any, 0, len(fuels))
	for _, f := range fuels {
		rows = append(rows, []any{f.Name, f.PricePerLiter, f.MaxQuantity})
	}
	return r.insertBatch(ctx,
		`INSERT INTO fuel_types (name, price_per_liter, max_quantity) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rows,
	)
}

// InsertParkingSlots inserts parking slots in a single transaction. A zero ID lets SQLite assign one;
// existing IDs are left untouched.
func (r *catalogRepository) InsertParkingSlots(ctx context.Context, slots []*models.ParkingSlot) error {
	rows := make([][]any, 0, len(slots))
	for _, p := range slots {
		rows = append(rows, []any{nullableID(p.ID), p.Size, p.PriceTier})
	}
	return r.insertBatch(ctx,
		`INSERT INTO parking_slots (id, size, price_tier) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rows,
	)
}

// InsertHangars inserts hangars in a single transaction. A zero ID lets SQLite assign one;
// existing IDs are left untouched.
func (r *catalogRepository) InsertHangars(ctx context.Context, hangars []*models.Hangar) error {
	rows := make([][]any, 0, len(hangars))
	for _, h := range hangars {
		rows = append(rows, []any{nullableID(h.ID), h.Size, h.DailyRate, h.WeeklyRate, h.MonthlyRate})
	}
	return r.insertBatch(ctx,
		`INSERT INTO hangars (id, size, daily_rate, weekly_rate, monthly_rate) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rows,
	)
}

func (r *catalogRepository) insertBatch(ctx context.Context, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if isCheckViolation(err) {
				return apperr.Validation("catalog row %v rejected by constraint", args)
			}
			return fmt.Errorf("failed to insert catalog row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *catalogRepository) IsTablePopulated(ctx context.Context, table CatalogTable) (bool, error) {
	var ignored int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM "+string(table)+" LIMIT 1").Scan(&ignored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s table: %w", table, err)
	}
	return true, nil
}

func (r *catalogRepository) CountRows(ctx context.Context, table CatalogTable) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+string(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}
	return n, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
