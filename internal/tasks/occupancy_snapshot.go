package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aerodrome/internal/models"
)

// StateCounter counts reservations per state. database.ReservationRepository satisfies it.
type StateCounter interface {
	CountByState(ctx context.Context) (map[models.State]int, error)
}

// StateGauges publishes per-state counts. *metrics.Metrics satisfies it.
type StateGauges interface {
	SetReservationsByState(counts map[models.State]int)
}

// OccupancySnapshot periodically refreshes the reservations-by-state gauges
type OccupancySnapshot struct {
	counter  StateCounter
	gauges   StateGauges
	interval time.Duration
}

// Default interval is one minute
func NewOccupancySnapshot(counter StateCounter, gauges StateGauges) *OccupancySnapshot {
	return NewOccupancySnapshotWithInterval(counter, gauges, time.Minute)
}

func NewOccupancySnapshotWithInterval(counter StateCounter, gauges StateGauges, interval time.Duration) *OccupancySnapshot {
	return &OccupancySnapshot{counter: counter, gauges: gauges, interval: interval}
}

func (o *OccupancySnapshot) Run(ctx context.Context) error {
	counts, err := o.counter.CountByState(ctx)
	if err != nil {
		return fmt.Errorf("count reservations by state: %w", err)
	}
	o.gauges.SetReservationsByState(counts)

	active := 0
	for st, n := range counts {
		if st.Available() {
			active += n
		}
	}
	slog.Debug("Occupancy snapshot", "active", active, "requested", counts[models.StateRequested], "cancelled", counts[models.StateCancelled])
	return nil
}

func (o *OccupancySnapshot) Interval() time.Duration { return o.interval }

func (o *OccupancySnapshot) Name() string { return "occupancy_snapshot" }
