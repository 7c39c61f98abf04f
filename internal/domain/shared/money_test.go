package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApproxEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "10.00", "10.00", true},
		{"within tolerance", "10.00", "10.01", true},
		{"outside tolerance", "10.00", "10.02", false},
		{"negative difference", "10.01", "10.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApproxEqual(decimal.RequireFromString(tt.a), decimal.RequireFromString(tt.b)))
		})
	}
}

func TestExceedsWithTolerance(t *testing.T) {
	due := decimal.NewFromInt(100)
	assert.False(t, ExceedsWithTolerance(decimal.RequireFromString("100.01"), due))
	assert.True(t, ExceedsWithTolerance(decimal.RequireFromString("100.02"), due))
}

func TestIsSettledAmount(t *testing.T) {
	assert.True(t, IsSettledAmount(decimal.Zero))
	assert.True(t, IsSettledAmount(decimal.RequireFromString("-0.005")))
	assert.False(t, IsSettledAmount(decimal.RequireFromString("0.5")))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "3.33", RoundMoney(decimal.RequireFromString("3.334")).String())
}
