// Package availability decides whether a parking slot is free on a given date.
package availability

import (
	"context"
	"fmt"
)

// SlotIndex answers whether a non-terminal reservation holds a slot on a date.
// database.ReservationRepository satisfies it.
type SlotIndex interface {
	HasActiveReservation(ctx context.Context, date string, parkingSlotID int64) (bool, error)
}

// Checker performs the read-only availability check run before a reservation is created
type Checker struct {
	index SlotIndex
}

func NewChecker(index SlotIndex) *Checker {
	return &Checker{index: index}
}

// CheckConflict reports true when an active reservation already occupies parkingSlotID on
// date. Dates compare by exact equality. A nil slot means no parking was requested and never
// conflicts.
func (c *Checker) CheckConflict(ctx context.Context, date string, parkingSlotID *int64) (bool, error) {
	if parkingSlotID == nil {
		return false, nil
	}

	conflict, err := c.index.HasActiveReservation(ctx, date, *parkingSlotID)
	if err != nil {
		return false, fmt.Errorf("availability check for slot %d on %s: %w", *parkingSlotID, date, err)
	}
	return conflict, nil
}
