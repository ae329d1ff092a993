package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func in(v float64) Entry  { return Entry{Direction: DirectionIn, Amount: v} }
func out(v float64) Entry { return Entry{Direction: DirectionOut, Amount: v} }

func TestNet(t *testing.T) {
	n := Net([]Entry{in(10.1), in(20.2), out(5.05)})
	assert.Equal(t, 30.3, n.Entradas)
	assert.Equal(t, 5.05, n.Saidas)
	assert.Equal(t, 25.25, n.Net)

	empty := Net(nil)
	assert.Equal(t, NetResult{}, empty)
	assert.False(t, empty.HasMovement())
}

func TestNetInvariants(t *testing.T) {
	sets := [][]Entry{
		{},
		{in(0.01)},
		{out(999.99)},
		{in(0.1), in(0.2), out(0.3)},
		{in(100), out(30), out(70.005)},
	}
	for _, entries := range sets {
		n := Net(entries)
		assert.GreaterOrEqual(t, n.Entradas, 0.0)
		assert.GreaterOrEqual(t, n.Saidas, 0.0)
		assert.InDelta(t, n.Entradas-n.Saidas, n.Net, 1e-9)
	}
}

func TestDetermineStatus(t *testing.T) {
	assert.Equal(t, StatusNeutro, DetermineStatus(0, nil))
	assert.Equal(t, StatusAberto, DetermineStatus(70, nil))
	assert.Equal(t, StatusParcial, DetermineStatus(70, []Entry{in(30)}))
	assert.Equal(t, StatusPago, DetermineStatus(0, []Entry{in(100)}))
	assert.Equal(t, StatusParcial, DetermineStatus(100, []Entry{in(30), out(30)}))

	// Half-cent epsilon.
	assert.Equal(t, StatusNeutro, DetermineStatus(0.004, nil))
	assert.Equal(t, StatusAberto, DetermineStatus(-0.01, nil))
}
