package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"aerodrome/internal/api"
	"aerodrome/internal/assignment"
	"aerodrome/internal/availability"
	"aerodrome/internal/billing"
	"aerodrome/internal/config"
	"aerodrome/internal/database"
	"aerodrome/internal/ledger"
	"aerodrome/internal/metrics"
	"aerodrome/internal/operations"
	"aerodrome/internal/scheduler"
	"aerodrome/internal/tasks"
)

const (
	shutdownTimeout  = 10 * time.Second
	limiterIdleAfter = 10 * time.Minute
)

// Daemon represents the main daemon structure
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	database  *database.DB
	server    *http.Server
	listener  net.Listener
	errc      chan error
}

// New wires the store, the reservation components, the background tasks and the HTTP server
func New(cfg *config.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	db, err := database.New(cfg.DBPath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	catalog := db.Catalog()
	if err := database.SeedCatalog(ctx, catalog, database.SeedPaths{
		FuelTypes:    cfg.Seed.FuelTypes,
		ParkingSlots: cfg.Seed.ParkingSlots,
		Hangars:      cfg.Seed.Hangars,
	}); err != nil {
		db.Close()
		cancel()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	m := metrics.New(metrics.Namespace)
	reservations := db.Reservations()

	svc := operations.New(
		catalog,
		ledger.New(reservations, catalog, availability.NewChecker(reservations)),
		assignment.NewTracker(db.Assignments(), reservations, catalog, assignment.Options{
			EnforceFuelMaxQuantity: cfg.Fuel.EnforceMaxQuantity,
		}),
		billing.NewEngine(db.Invoices(), billing.TierFees{
			High: cfg.Billing.HighTierFee,
			Low:  cfg.Billing.LowTierFee,
		}),
		m,
	)

	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, m.IncRateLimited)

	sched := scheduler.New(ctx)
	sched.AddTask(tasks.NewOccupancySnapshotWithInterval(reservations, m, cfg.SnapshotInterval))
	sched.AddTask(tasks.NewLimiterSweep(limiter, limiterIdleAfter, limiterIdleAfter/2))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc, db, api.Options{Metrics: m, Limiter: limiter}),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: sched,
		database:  db,
		server:    server,
		errc:      make(chan error, 1),
	}, nil
}

// Start binds the HTTP listener and starts the scheduler. It returns once the server is
// accepting connections.
func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	ln, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.server.Addr, err)
	}
	d.listener = ln

	d.scheduler.Start()

	go func() {
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.errc <- err
		}
		close(d.errc)
	}()

	slog.Info("Daemon started successfully", "http_addr", ln.Addr().String())
	return nil
}

// Addr returns the address the HTTP server listens on, or "" before Start
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Err delivers a fatal HTTP server error. It is closed when the server stops.
func (d *Daemon) Err() <-chan error {
	return d.errc
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
	}

	d.cancel()
	d.scheduler.Stop()

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
	}

	slog.Info("Daemon stopped")
	return nil
}
