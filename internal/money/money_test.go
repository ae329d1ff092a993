package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.005, 1.01},
		{-12.345, -12.35},
		{12.345, 12.35},
		{2.675, 2.68},
		{-0.001, 0},
		{10.1, 10.1},
		{0.1 + 0.2, 0.3},
		{-1234567.891, -1234567.89},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Round2(tc.in), "Round2(%v)", tc.in)
	}
}

func TestRound2Idempotent(t *testing.T) {
	for _, x := range []float64{1.005, -12.345, 99.995, 0.125, -0.125, 1e6 + 0.555} {
		once := Round2(x)
		assert.Equal(t, once, Round2(once))
	}
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 0.0, Sum())
	assert.Equal(t, -5.5, Sum(-10, 4.5))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33.33, Percent(100, 33.333))
	assert.Equal(t, 2.5, Percent(10, 25))
	assert.Equal(t, 0.0, Percent(0, 50))
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(0.004))
	assert.True(t, IsZero(-0.0049))
	assert.False(t, IsZero(0.005))
}
