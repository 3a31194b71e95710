package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMethod(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"contra-entrega", "CONTRA_ENTREGA"},
		{"CONTRA_ENTREGA", "CONTRA_ENTREGA"},
		{"  Contra-Entrega ", "CONTRA_ENTREGA"},
		{"cash-on-delivery", "CASH_ON_DELIVERY"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMethod(tt.in))
	}
}

func TestRegistry_ResolveNormalizes(t *testing.T) {
	r := NewRegistry()
	r.Register(MethodCashOnDelivery, CashOnDelivery{})

	s, key, err := r.Resolve("contra-entrega")
	require.NoError(t, err)
	assert.Equal(t, MethodCashOnDelivery, key)
	assert.NotNil(t, s)
}

func TestRegistry_ResolveUnsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(MethodCashOnDelivery, CashOnDelivery{})

	_, _, err := r.Resolve("BITCOIN")

	var umErr *UnsupportedMethodError
	require.ErrorAs(t, err, &umErr)
	assert.Equal(t, "BITCOIN", umErr.Method)
	assert.Equal(t, []string{MethodCashOnDelivery}, umErr.Supported)
}

func TestRegistry_SupportedSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("psE", CashOnDelivery{})
	r.Register(MethodCashOnDelivery, CashOnDelivery{})
	r.Register("credit-card", CashOnDelivery{})

	assert.Equal(t, []string{MethodCashOnDelivery, "CREDIT_CARD", "PSE"}, r.Supported())
}

func TestCashOnDelivery_AlwaysApproves(t *testing.T) {
	out, err := CashOnDelivery{}.Process(context.Background(), "order-1", decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, StatusApproved, out.Status)
	assert.Empty(t, out.ExternalReference)
}
