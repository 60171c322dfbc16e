package models

// Pilot owns zero or more aircraft based at the aerodrome
type Pilot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Agent is an operations agent; agents drive reservation state and sign off invoices
type Agent struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Aircraft represents a registered aircraft. Each aircraft has exactly one owning pilot.
type Aircraft struct {
	ID           int64   `json:"id"`
	Model        string  `json:"model"`         // Aircraft model (e.g., Robin DR400)
	FuelCapacity float64 `json:"fuel_capacity"` // Tank capacity in liters
	PilotID      int64   `json:"pilot_id"`      // Owning pilot
}
