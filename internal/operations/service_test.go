package operations

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aerodrome/internal/apperr"
	"aerodrome/internal/assignment"
	"aerodrome/internal/availability"
	"aerodrome/internal/billing"
	"aerodrome/internal/database"
	"aerodrome/internal/ledger"
	"aerodrome/internal/metrics"
	"aerodrome/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	pilot    *models.Pilot
	agent    *models.Agent
	aircraft *models.Aircraft
}

func setupService(t *testing.T) *fixture {
	db, err := database.New(filepath.Join(t.TempDir(), "ops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	catalog := db.Catalog()
	require.NoError(t, catalog.InsertParkingSlots(ctx, []*models.ParkingSlot{
		{ID: 1, Size: "Standard", PriceTier: models.TierHigh},
		{ID: 2, Size: "Standard", PriceTier: models.TierLow},
	}))
	require.NoError(t, catalog.InsertHangars(ctx, []*models.Hangar{{ID: 1, Size: "Large", DailyRate: 50, WeeklyRate: 300, MonthlyRate: 1000}}))
	require.NoError(t, catalog.InsertFuelTypes(ctx, []*models.FuelType{
		{Name: "JET A1", PricePerLiter: 1.85, MaxQuantity: 25000},
		{Name: "AVGAS 100LL", PricePerLiter: 2.35, MaxQuantity: 10000},
	}))

	reservations := db.Reservations()
	svc := New(
		catalog,
		ledger.New(reservations, catalog, availability.NewChecker(reservations)),
		assignment.NewTracker(db.Assignments(), reservations, catalog, assignment.Options{}),
		billing.NewEngine(db.Invoices(), billing.DefaultTierFees()),
		metrics.New("test"),
	)

	pilot, err := svc.RegisterPilot(ctx, "P1")
	require.NoError(t, err)
	agent, err := svc.RegisterAgent(ctx, "Agent Smith")
	require.NoError(t, err)
	ac, err := svc.RegisterAircraft(ctx, &models.Aircraft{Model: "Robin DR400", FuelCapacity: 110, PilotID: pilot.ID})
	require.NoError(t, err)

	return &fixture{svc: svc, pilot: pilot, agent: agent, aircraft: ac}
}

func (f *fixture) booking(date string, slot int64) ledger.BookingRequest {
	return ledger.BookingRequest{
		PilotID:       f.pilot.ID,
		AircraftID:    f.aircraft.ID,
		Date:          date,
		DepartureTime: "08:30",
		ArrivalTime:   "10:00",
		ParkingSlotID: &slot,
	}
}

func TestReservationLifecycleScenario(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	first, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-01", 1))
	require.NoError(t, err)
	assert.Equal(t, models.StateRequested, first.State)

	second, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-01", 1))
	require.NoError(t, err)
	assert.Equal(t, models.StateCancelled, second.State)

	_, err = f.svc.SetReservationState(ctx, first.ID, models.StateCompleted, models.RoleAgent)
	require.NoError(t, err)

	third, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-01", 1))
	require.NoError(t, err)
	assert.Equal(t, models.StateRequested, third.State)
}

func TestInvoiceScenario(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	res, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-02", 1))
	require.NoError(t, err)

	_, err = f.svc.AttachFuel(ctx, res.ID, 40, "JET A1")
	require.NoError(t, err)

	_, err = f.svc.AttachFuel(ctx, res.ID, 40, "JET A1")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	b, err := f.svc.GenerateInvoice(ctx, res.ID, f.agent.ID, models.RoleAgent)
	require.NoError(t, err)
	assert.InDelta(t, 124.0, b.Total, 1e-9)

	inv, err := f.svc.GetInvoice(ctx, res.ID)
	require.NoError(t, err)
	assert.InDelta(t, 124.0, inv.Total, 1e-9)
	require.NotNil(t, inv.AgentID)
	assert.Equal(t, f.agent.ID, *inv.AgentID)
}

func TestTotalsSumAttachedResources(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	res, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-03", 2))
	require.NoError(t, err)
	_, err = f.svc.AttachFuel(ctx, res.ID, 10, "AVGAS 100LL")
	require.NoError(t, err)
	_, err = f.svc.AttachHangar(ctx, res.ID, 1)
	require.NoError(t, err)

	b, err := f.svc.GenerateInvoice(ctx, res.ID, f.agent.ID, models.RoleAgent)
	require.NoError(t, err)
	assert.InDelta(t, 20+23.5+50, b.Total, 1e-9)

	_, err = f.svc.UpsertFuel(ctx, res.ID, 20, "AVGAS 100LL")
	require.NoError(t, err)
	b, err = f.svc.GenerateInvoice(ctx, res.ID, f.agent.ID, models.RoleAgent)
	require.NoError(t, err)
	assert.InDelta(t, 20+47+50, b.Total, 1e-9)
}

func TestSetReservationState_RequiresAgent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	res, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-04", 1))
	require.NoError(t, err)

	for _, role := range []models.Role{models.RolePilot, models.RoleManager, "", "admin"} {
		_, err := f.svc.SetReservationState(ctx, res.ID, models.StateCancelled, role)
		assert.ErrorIs(t, err, apperr.ErrAuthorization, "role %q", role)
	}

	got, err := f.svc.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateRequested, got.State)
	assert.True(t, got.Available())

	// Role check comes first even for missing reservations
	_, err = f.svc.SetReservationState(ctx, 9999, models.StateConfirmed, models.RolePilot)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	got, err = f.svc.SetReservationState(ctx, res.ID, models.StateConfirmed, "Agent")
	require.NoError(t, err)
	assert.Equal(t, models.StateConfirmed, got.State)
}

func TestGenerateInvoice_RequiresAgent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	res, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-05", 1))
	require.NoError(t, err)

	_, err = f.svc.GenerateInvoice(ctx, res.ID, f.agent.ID, models.RolePilot)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	inv, err := f.svc.GetInvoice(ctx, res.ID)
	require.NoError(t, err)
	assert.Zero(t, inv.Total)
	assert.Nil(t, inv.AgentID)

	_, err = f.svc.GenerateInvoice(ctx, 9999, f.agent.ID, models.RoleAgent)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegisterValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.RegisterPilot(ctx, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.RegisterAgent(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.RegisterAircraft(ctx, &models.Aircraft{Model: "", PilotID: f.pilot.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.RegisterAircraft(ctx, &models.Aircraft{Model: "Cap 10", FuelCapacity: -1, PilotID: f.pilot.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.RegisterAircraft(ctx, &models.Aircraft{Model: "Cap 10", PilotID: 4242})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCatalogListing(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	slots, err := f.svc.ListParkingSlots(ctx)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	hangars, err := f.svc.ListHangars(ctx)
	require.NoError(t, err)
	assert.Len(t, hangars, 1)

	fuels, err := f.svc.ListFuelTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, fuels, 2)
}

type countingRecorder struct {
	outcomes map[string][]string
	invoiced float64
}

func (c *countingRecorder) ObserveOperation(op string, err error, _ time.Duration) {
	if c.outcomes == nil {
		c.outcomes = map[string][]string{}
	}
	c.outcomes[op] = append(c.outcomes[op], apperr.Kind(err))
}

func (c *countingRecorder) AddInvoiced(amount float64) { c.invoiced += amount }

func TestService_RecordsOutcomes(t *testing.T) {
	f := setupService(t)
	rec := &countingRecorder{}
	f.svc.recorder = rec
	ctx := context.Background()

	res, err := f.svc.CheckAndCreateReservation(ctx, f.booking("2025-06-06", 1))
	require.NoError(t, err)
	_, _ = f.svc.SetReservationState(ctx, res.ID, models.StateConfirmed, models.RolePilot)
	_, err = f.svc.AttachFuel(ctx, res.ID, 40, "JET A1")
	require.NoError(t, err)
	_, _ = f.svc.AttachFuel(ctx, res.ID, 40, "JET A1")
	_, err = f.svc.GenerateInvoice(ctx, res.ID, f.agent.ID, models.RoleAgent)
	require.NoError(t, err)

	assert.Equal(t, []string{"none"}, rec.outcomes[OpCreateReservation])
	assert.Equal(t, []string{"authorization"}, rec.outcomes[OpSetState])
	assert.Equal(t, []string{"none", "duplicate"}, rec.outcomes[OpAttachFuel])
	assert.InDelta(t, 124.0, rec.invoiced, 1e-9)
}
