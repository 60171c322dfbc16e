package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"validation", Validation("aircraft %d does not exist", 7), "validation"},
		{"not found", NotFound("reservation %d", 1), "not_found"},
		{"duplicate", Duplicate("fuel fill"), "duplicate"},
		{"authorization", Authorization("role %q", "pilot"), "authorization"},
		{"conflict", Conflict("slot taken"), "conflict"},
		{"wrapped", fmt.Errorf("create: %w", NotFound("x")), "not_found"},
		{"partial", &PartialFailureError{Committed: []string{"flight"}, Err: errors.New("boom")}, "partial_failure"},
		{"other", errors.New("disk I/O error"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestPartialFailureError(t *testing.T) {
	cause := errors.New("rollback failed")
	err := fmt.Errorf("create reservation: %w", &PartialFailureError{
		Committed: []string{"flight", "invoice"},
		Err:       cause,
	})

	var partial *PartialFailureError
	assert.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"flight", "invoice"}, partial.Committed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "flight, invoice")
}
