package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3_aerodrome"

func init() {
	// Per-connection pragmas. Journal mode, foreign keys, busy timeout and the
	// transaction lock mode are set through the DSN in New.
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			pragmas := []string{
				"PRAGMA cache_size=-64000",
				"PRAGMA temp_store=MEMORY",
			}
			for _, p := range pragmas {
				if _, err := conn.Exec(p, nil); err != nil {
					return fmt.Errorf("failed to apply %q: %w", p, err)
				}
			}
			return nil
		},
	})
}

// DB owns the SQLite handle and hands out the per-entity repositories
type DB struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath and initializes the schema
func New(dbPath string) (*DB, error) {
	// _txlock=immediate takes the write lock at BEGIN so concurrent writers queue on the
	// busy timeout instead of failing mid-transaction.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks the connection is alive
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Catalog returns the repository for pilots, agents, aircraft and ground resources
func (d *DB) Catalog() CatalogRepository {
	return NewCatalogRepository(d.db)
}

// Reservations returns the reservation repository
func (d *DB) Reservations() ReservationRepository {
	return NewReservationRepository(d.db)
}

// Invoices returns the invoice repository
func (d *DB) Invoices() InvoiceRepository {
	return NewInvoiceRepository(d.db)
}

// Assignments returns the fuel fill / hangar assignment repository
func (d *DB) Assignments() AssignmentRepository {
	return NewAssignmentRepository(d.db)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	tables := []struct {
		name   string
		schema string
	}{
		{"pilots", `CREATE TABLE IF NOT EXISTS pilots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`},
		{"agents", `CREATE TABLE IF NOT EXISTS agents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`},
		{"aircraft", `CREATE TABLE IF NOT EXISTS aircraft (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			fuel_capacity REAL NOT NULL,
			pilot_id INTEGER NOT NULL REFERENCES pilots(id)
		)`},
		{"fuel_types", `CREATE TABLE IF NOT EXISTS fuel_types (
			name TEXT PRIMARY KEY,
			price_per_liter REAL NOT NULL CHECK (price_per_liter >= 0),
			max_quantity REAL NOT NULL CHECK (max_quantity >= 0)
		)`},
		{"hangars", `CREATE TABLE IF NOT EXISTS hangars (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			size TEXT NOT NULL,
			daily_rate REAL NOT NULL CHECK (daily_rate >= 0),
			weekly_rate REAL NOT NULL CHECK (weekly_rate >= 0),
			monthly_rate REAL NOT NULL CHECK (monthly_rate >= 0)
		)`},
		{"parking_slots", `CREATE TABLE IF NOT EXISTS parking_slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			size TEXT NOT NULL,
			price_tier TEXT NOT NULL CHECK (price_tier IN ('A', 'B'))
		)`},
		{"flights", `CREATE TABLE IF NOT EXISTS flights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			departure_time TEXT NOT NULL,
			arrival_time TEXT NOT NULL
		)`},
		{"invoices", `CREATE TABLE IF NOT EXISTS invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			daily_revenue REAL NOT NULL DEFAULT 0,
			monthly_revenue REAL NOT NULL DEFAULT 0,
			yearly_revenue REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL DEFAULT 0,
			agent_id INTEGER REFERENCES agents(id)
		)`},
		// available is derived from state and cannot be written.
		{"reservations", `CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			state TEXT NOT NULL CHECK (state IN ('Requested', 'Confirmed', 'Authorized', 'Completed', 'Cancelled')),
			date TEXT NOT NULL,
			available INTEGER GENERATED ALWAYS AS (state NOT IN ('Cancelled', 'Completed')) VIRTUAL,
			flight_id INTEGER NOT NULL UNIQUE REFERENCES flights(id),
			aircraft_id INTEGER NOT NULL REFERENCES aircraft(id),
			parking_slot_id INTEGER REFERENCES parking_slots(id),
			invoice_id INTEGER NOT NULL UNIQUE REFERENCES invoices(id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
		{"fuel_fills", `CREATE TABLE IF NOT EXISTS fuel_fills (
			reservation_id INTEGER PRIMARY KEY REFERENCES reservations(id),
			quantity REAL NOT NULL CHECK (quantity > 0),
			fuel_type TEXT NOT NULL REFERENCES fuel_types(name)
		)`},
		{"hangar_assignments", `CREATE TABLE IF NOT EXISTS hangar_assignments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reservation_id INTEGER NOT NULL UNIQUE REFERENCES reservations(id),
			hangar_id INTEGER NOT NULL REFERENCES hangars(id)
		)`},
	}

	indexes := []string{
		// At most one active reservation per date and parking slot.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_active_slot
			ON reservations(date, parking_slot_id)
			WHERE state NOT IN ('Cancelled', 'Completed') AND parking_slot_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_aircraft ON reservations(aircraft_id)`,
		`CREATE INDEX IF NOT EXISTS idx_aircraft_pilot ON aircraft(pilot_id)`,
	}

	for _, t := range tables {
		if _, err := d.db.Exec(t.schema); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func sqliteCode(err error) (sqlite3.ErrNoExtended, bool) {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode, true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.ErrConstraintUnique || code == sqlite3.ErrConstraintPrimaryKey)
}

func isForeignKeyViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.ErrConstraintForeignKey
}

func isCheckViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.ErrConstraintCheck
}
