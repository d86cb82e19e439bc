package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"already_two_places", 12.34, 12.34},
		{"half_up", 2.345, 2.35},
		{"binary_error_1_005", 1.005, 1.01},
		{"below_half", 2.344, 2.34},
		{"integer", 1000, 1000},
		{"zero", 0, 0},
		{"product_drift", 0.1 * 3, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}

func TestSumMoney(t *testing.T) {
	assert.Equal(t, 0.3, SumMoney(0.1, 0.2))
	assert.Equal(t, 180.0, SumMoney(90, 90))
	assert.Equal(t, 0.0, SumMoney())
	assert.Equal(t, 10.03, SumMoney(3.01, 3.01, 4.01))
}

func TestSubMoney(t *testing.T) {
	assert.Equal(t, 280.0, SubMoney(1180, 900))
	assert.Equal(t, 0.1, SubMoney(0.3, 0.2))
}
