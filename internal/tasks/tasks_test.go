package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"aerodrome/internal/models"
	"aerodrome/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository is a simple mock implementation of StateCounter
type mockRepository struct {
	counts map[models.State]int
	err    error
	calls  int
}

func (m *mockRepository) CountByState(context.Context) (map[models.State]int, error) {
	m.calls++
	return m.counts, m.err
}

type mockGauges struct {
	last map[models.State]int
	sets int
}

func (m *mockGauges) SetReservationsByState(counts map[models.State]int) {
	m.last = counts
	m.sets++
}

func TestNewOccupancySnapshot(t *testing.T) {
	task := NewOccupancySnapshot(&mockRepository{}, &mockGauges{})

	require.NotNil(t, task)
	assert.Equal(t, time.Minute, task.Interval())
	assert.Equal(t, "occupancy_snapshot", task.Name())

	var _ scheduler.Task = task
}

func TestOccupancySnapshot_Run(t *testing.T) {
	repo := &mockRepository{counts: map[models.State]int{
		models.StateRequested: 4,
		models.StateConfirmed: 1,
		models.StateCancelled: 2,
	}}
	gauges := &mockGauges{}
	task := NewOccupancySnapshotWithInterval(repo, gauges, time.Second)

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, gauges.sets)
	assert.Equal(t, 4, gauges.last[models.StateRequested])
}

func TestOccupancySnapshot_RunError(t *testing.T) {
	repo := &mockRepository{err: errors.New("database is locked")}
	gauges := &mockGauges{}
	task := NewOccupancySnapshot(repo, gauges)

	err := task.Run(context.Background())
	assert.ErrorContains(t, err, "database is locked")
	assert.Zero(t, gauges.sets, "gauges keep their previous values on failure")
}

func TestOccupancySnapshot_Scheduled(t *testing.T) {
	repo := &mockRepository{counts: map[models.State]int{}}
	gauges := &mockGauges{}

	s := scheduler.New(context.Background())
	s.AddTask(NewOccupancySnapshotWithInterval(repo, gauges, time.Hour))
	s.Start()
	assert.Eventually(t, func() bool { return s.Stats("occupancy_snapshot").Runs == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, 1, gauges.sets)
}

type mockSweeper struct {
	idle    time.Duration
	removed int
}

func (m *mockSweeper) Sweep(idle time.Duration) int {
	m.idle = idle
	return m.removed
}

func TestLimiterSweep(t *testing.T) {
	sweeper := &mockSweeper{removed: 3}
	task := NewLimiterSweep(sweeper, 10*time.Minute, time.Minute)

	var _ scheduler.Task = task
	assert.Equal(t, "limiter_sweep", task.Name())
	assert.Equal(t, time.Minute, task.Interval())

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 10*time.Minute, sweeper.idle)
}
