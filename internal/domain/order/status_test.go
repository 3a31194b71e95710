package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus_Membership(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"PENDING", StatusPending},
		{"confirmed", StatusConfirmed},
		{" Preparing ", StatusPreparing},
		{"shipped", StatusShipped},
		{"DELIVERED", StatusDelivered},
		{"cancelled", StatusCancelled},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err, "status %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	for _, in := range []string{"", "REFUNDED", "CANCELED", "done"} {
		_, err := ParseStatus(in)
		var invErr *InvalidStatusError
		require.ErrorAs(t, err, &invErr, "status %q", in)
		assert.Equal(t, in, invErr.Value)
	}
}
