package billing

import (
	"context"
	"path/filepath"
	"testing"

	"aerodrome/internal/apperr"
	"aerodrome/internal/database"
	"aerodrome/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCompute(t *testing.T) {
	engine := NewEngine(nil, DefaultTierFees())

	tests := []struct {
		name string
		in   models.BillingInputs
		want Breakdown
	}{
		{
			name: "nothing attached",
			in:   models.BillingInputs{InvoiceID: 3},
			want: Breakdown{InvoiceID: 3},
		},
		{
			name: "tier A parking and jet fuel",
			in: models.BillingInputs{
				ParkingTier:  ptr(models.TierHigh),
				FuelQuantity: ptr(40.0),
				FuelPrice:    ptr(1.85),
			},
			want: Breakdown{Parking: 50, Fuel: 74, Total: 124},
		},
		{
			name: "tier B parking with hangar",
			in: models.BillingInputs{
				ParkingTier:     ptr(models.TierLow),
				HangarDailyRate: ptr(50.0),
			},
			want: Breakdown{Parking: 20, Hangar: 50, Total: 70},
		},
		{
			name: "all resources",
			in: models.BillingInputs{
				ParkingTier:     ptr(models.TierLow),
				FuelQuantity:    ptr(12.5),
				FuelPrice:       ptr(2.35),
				HangarDailyRate: ptr(50.0),
			},
			want: Breakdown{Parking: 20, Fuel: 29.38, Hangar: 50, Total: 99.38},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Compute(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want.InvoiceID, got.InvoiceID)
			assert.InDelta(t, tt.want.Parking, got.Parking, 1e-9)
			assert.InDelta(t, tt.want.Fuel, got.Fuel, 1e-9)
			assert.InDelta(t, tt.want.Hangar, got.Hangar, 1e-9)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9)
		})
	}
}

func TestCompute_CustomFees(t *testing.T) {
	engine := NewEngine(nil, TierFees{High: 80, Low: 35.5})

	got, err := engine.Compute(models.BillingInputs{ParkingTier: ptr(models.TierLow)})
	require.NoError(t, err)
	assert.InDelta(t, 35.5, got.Total, 1e-9)
}

func TestCompute_UnknownTier(t *testing.T) {
	engine := NewEngine(nil, DefaultTierFees())

	_, err := engine.Compute(models.BillingInputs{ParkingTier: ptr("C")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// mockStore records UpdateTotals calls
type mockStore struct {
	inputs  *models.BillingInputs
	err     error
	updates int
	total   float64
	agentID int64
}

func (m *mockStore) BillingInputs(context.Context, int64) (*models.BillingInputs, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.inputs, nil
}

func (m *mockStore) UpdateTotals(_ context.Context, _ int64, total float64, agentID int64) error {
	m.updates++
	m.total = total
	m.agentID = agentID
	return nil
}

func (m *mockStore) GetByReservation(context.Context, int64) (*models.Invoice, error) {
	return nil, apperr.NotFound("invoice")
}

func TestGenerateInvoice_DoesNotWriteOnError(t *testing.T) {
	store := &mockStore{err: apperr.NotFound("reservation 9")}
	_, err := NewEngine(store, DefaultTierFees()).GenerateInvoice(context.Background(), 9, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, store.updates)

	store = &mockStore{inputs: &models.BillingInputs{InvoiceID: 1, ParkingTier: ptr("Z")}}
	_, err = NewEngine(store, DefaultTierFees()).GenerateInvoice(context.Background(), 1, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, store.updates)
}

func TestGenerateInvoice_SQLite(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "billing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	catalog := db.Catalog()
	pilot, err := catalog.CreatePilot(ctx, "Claire Dubois")
	require.NoError(t, err)
	agent, err := catalog.CreateAgent(ctx, "Marc Leroy")
	require.NoError(t, err)
	ac := &models.Aircraft{Model: "Piper PA-28", FuelCapacity: 180, PilotID: pilot.ID}
	require.NoError(t, catalog.CreateAircraft(ctx, ac))
	require.NoError(t, catalog.InsertParkingSlots(ctx, []*models.ParkingSlot{{ID: 1, Size: "Standard", PriceTier: models.TierHigh}}))
	require.NoError(t, catalog.InsertFuelTypes(ctx, []*models.FuelType{{Name: "JET A1", PricePerLiter: 1.85, MaxQuantity: 25000}}))
	require.NoError(t, catalog.InsertHangars(ctx, []*models.Hangar{{ID: 1, Size: "Large", DailyRate: 50, WeeklyRate: 300, MonthlyRate: 1000}}))

	slot := int64(1)
	res := &models.Reservation{State: models.StateRequested, Date: "2025-06-01", AircraftID: ac.ID, ParkingSlotID: &slot}
	require.NoError(t, db.Reservations().Create(ctx, &models.Flight{DepartureTime: "10:00", ArrivalTime: "11:30"}, res))
	require.NoError(t, db.Assignments().InsertFuelFill(ctx, &models.FuelFill{ReservationID: res.ID, Quantity: 40, FuelType: "JET A1"}))

	engine := NewEngine(db.Invoices(), DefaultTierFees())

	b, err := engine.GenerateInvoice(ctx, res.ID, agent.ID)
	require.NoError(t, err)
	assert.InDelta(t, 124.0, b.Total, 1e-9)

	inv, err := engine.Invoice(ctx, res.ID)
	require.NoError(t, err)
	assert.InDelta(t, 124.0, inv.Total, 1e-9)
	assert.InDelta(t, 124.0, inv.DailyRevenue, 1e-9)
	assert.InDelta(t, 124.0, inv.MonthlyRevenue, 1e-9)
	assert.InDelta(t, 124.0, inv.YearlyRevenue, 1e-9)
	require.NotNil(t, inv.AgentID)
	assert.Equal(t, agent.ID, *inv.AgentID)

	// Hangar attached afterwards: regeneration recomputes from scratch
	require.NoError(t, db.Assignments().InsertHangarAssignment(ctx, &models.HangarAssignment{ReservationID: res.ID, HangarID: 1}))
	b, err = engine.GenerateInvoice(ctx, res.ID, agent.ID)
	require.NoError(t, err)
	assert.InDelta(t, 174.0, b.Total, 1e-9)

	_, err = engine.GenerateInvoice(ctx, res.ID, 999)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = engine.GenerateInvoice(ctx, 4242, agent.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
