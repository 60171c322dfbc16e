package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    State
		wantErr bool
	}{
		{name: "exact", input: "Confirmed", want: StateConfirmed},
		{name: "lower case", input: "completed", want: StateCompleted},
		{name: "padded", input: "  Authorized ", want: StateAuthorized},
		{name: "unknown", input: "Pending", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateAvailable(t *testing.T) {
	for _, st := range States {
		want := st != StateCancelled && st != StateCompleted
		assert.Equal(t, want, st.Available(), "state %s", st)
		assert.Equal(t, !want, st.Terminal(), "state %s", st)
		assert.True(t, st.Valid())
	}
	assert.False(t, State("Pending").Valid())

	r := &Reservation{State: StateCompleted}
	assert.False(t, r.Available())
	r.State = StateConfirmed
	assert.True(t, r.Available())
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier("A"))
	assert.True(t, ValidTier("B"))
	assert.False(t, ValidTier("C"))
	assert.False(t, ValidTier("a"))
}
