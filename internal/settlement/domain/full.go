package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/money"
)

// Totals is the summed view of a group of metrics.
type Totals struct {
	Players   int     `json:"players"`
	Winnings  float64 `json:"winnings"`
	Rake      float64 `json:"rake"`
	GGR       float64 `json:"ggr"`
	Rakeback  float64 `json:"rakeback"`
	Resultado float64 `json:"resultado"`
	Hands     int64   `json:"hands"`
	Games     int64   `json:"games"`
}

// Add folds o into t, rounding every monetary field.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Players:   t.Players + o.Players,
		Winnings:  money.Sum(t.Winnings, o.Winnings),
		Rake:      money.Sum(t.Rake, o.Rake),
		GGR:       money.Sum(t.GGR, o.GGR),
		Rakeback:  money.Sum(t.Rakeback, o.Rakeback),
		Resultado: money.Sum(t.Resultado, o.Resultado),
		Hands:     t.Hands + o.Hands,
		Games:     t.Games + o.Games,
	}
}

func TotalsOfAgent(m AgentWeeklyMetric) Totals {
	return Totals{
		Players:   m.PlayerCount,
		Winnings:  m.Winnings,
		Rake:      m.Rake,
		GGR:       m.GGR,
		Rakeback:  m.RakebackValue,
		Resultado: m.NetResult,
		Hands:     m.Hands,
		Games:     m.Games,
	}
}

type AgentBreakdown struct {
	AgentID      snowflake.ID         `json:"agent_id"`
	Name         string               `json:"name"`
	IsDirect     bool                 `json:"is_direct"`
	RakebackRate float64              `json:"rakeback_rate"`
	Totals       Totals               `json:"totals"`
	Players      []PlayerWeeklyMetric `json:"players"`
}

type SubclubBreakdown struct {
	SubclubID snowflake.ID     `json:"subclub_id"`
	Name      string           `json:"name"`
	Totals    Totals           `json:"totals"`
	Agents    []AgentBreakdown `json:"agents"`
}

// FullSettlement is the per-subclub read model of a settlement.
type FullSettlement struct {
	Settlement Settlement         `json:"settlement"`
	Scope      string             `json:"scope"`
	Totals     Totals             `json:"totals"`
	Subclubs   []SubclubBreakdown `json:"subclubs"`
}
