package domain

import (
	"github.com/railzwaylabs/clubsettle/internal/money"
	"github.com/shopspring/decimal"
)

// NetResult totals one entity's movements for a week.
type NetResult struct {
	Entradas float64 `json:"entradas"`
	Saidas   float64 `json:"saidas"`
	Net      float64 `json:"net"`
}

// Net sums IN and OUT movements. Totals are accumulated in decimal and
// rounded once.
func Net(entries []Entry) NetResult {
	in, out := decimal.Zero, decimal.Zero
	for _, e := range entries {
		amount := decimal.NewFromFloat(e.Amount).Abs()
		switch e.Direction {
		case DirectionIn:
			in = in.Add(amount)
		case DirectionOut:
			out = out.Add(amount)
		}
	}
	entradas, _ := in.Float64()
	saidas, _ := out.Float64()
	entradas = money.Round2(entradas)
	saidas = money.Round2(saidas)
	return NetResult{
		Entradas: entradas,
		Saidas:   saidas,
		Net:      money.Round2(entradas - saidas),
	}
}

// HasMovement reports whether any gross movement happened.
func (n NetResult) HasMovement() bool {
	return n.Entradas > 0 || n.Saidas > 0
}

type PaymentStatus string

const (
	StatusNeutro  PaymentStatus = "neutro"
	StatusAberto  PaymentStatus = "aberto"
	StatusParcial PaymentStatus = "parcial"
	StatusPago    PaymentStatus = "pago"
)

// DetermineStatus classifies an entity for the week from the balance the
// caller considers open. Gross movement counts: an IN and OUT that cancel
// out still make a non-zero balance parcial.
func DetermineStatus(openBalance float64, entries []Entry) PaymentStatus {
	return StatusFor(openBalance, Net(entries))
}

// StatusFor is DetermineStatus over precomputed totals.
func StatusFor(openBalance float64, net NetResult) PaymentStatus {
	moved := net.HasMovement()
	zero := money.IsZero(openBalance)
	switch {
	case zero && !moved:
		return StatusNeutro
	case !zero && !moved:
		return StatusAberto
	case !zero && moved:
		return StatusParcial
	default:
		return StatusPago
	}
}
