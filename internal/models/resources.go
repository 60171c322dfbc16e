package models

// Parking price tier codes. Only two tiers exist.
const (
	TierHigh = "A"
	TierLow  = "B"
)

// ValidTier reports whether code is one of the two parking price tiers
func ValidTier(code string) bool {
	return code == TierHigh || code == TierLow
}

// ParkingSlot is an outdoor parking position billed at a flat per-reservation tier fee
type ParkingSlot struct {
	ID        int64  `json:"id"`
	Size      string `json:"size"`
	PriceTier string `json:"price_tier"` // TierHigh or TierLow
}

// Hangar is a covered resource billed at its daily rate
type Hangar struct {
	ID          int64   `json:"id"`
	Size        string  `json:"size"`
	DailyRate   float64 `json:"daily_rate"`
	WeeklyRate  float64 `json:"weekly_rate"`
	MonthlyRate float64 `json:"monthly_rate"`
}

// FuelType is a fuel grade held in the aerodrome's inventory
type FuelType struct {
	Name          string  `json:"name"` // Unique (e.g., "JET A1")
	PricePerLiter float64 `json:"price_per_liter"`
	MaxQuantity   float64 `json:"max_quantity"` // Maximum storable quantity in liters
}
