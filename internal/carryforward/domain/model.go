// Package domain holds the balance carried by each entity from one week into
// the next.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	"github.com/railzwaylabs/clubsettle/internal/money"
)

// CarryForward is the balance an entity opens WeekStart with. Positive means
// the entity owes the club.
type CarryForward struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID     snowflake.ID  `gorm:"not null;uniqueIndex:ux_carry_forwards_entity_week" json:"tenant_id"`
	ClubID       snowflake.ID  `gorm:"not null;uniqueIndex:ux_carry_forwards_entity_week" json:"club_id"`
	EntityID     snowflake.ID  `gorm:"not null;uniqueIndex:ux_carry_forwards_entity_week" json:"entity_id"`
	WeekStart    calendar.Date `gorm:"not null;uniqueIndex:ux_carry_forwards_entity_week" json:"week_start"`
	Amount       float64       `gorm:"not null" json:"amount"`
	SettlementID snowflake.ID  `gorm:"not null;index" json:"settlement_id"`
	ComputedAt   time.Time     `gorm:"not null" json:"computed_at"`
}

func (CarryForward) TableName() string { return "carry_forwards" }

// CalcSaldoAtual closes one entity's week: the opening balance plus the
// week result minus what was settled through the ledger.
func CalcSaldoAtual(saldoAnterior, resultado, ledgerNet float64) float64 {
	return money.Round2(saldoAnterior + resultado - ledgerNet)
}

type Carry struct {
	EntityID      snowflake.ID `json:"entity_id"`
	SaldoAnterior float64      `json:"saldo_anterior"`
	Resultado     float64      `json:"resultado"`
	LedgerNet     float64      `json:"ledger_net"`
	SaldoFinal    float64      `json:"saldo_final"`
}

type CloseResult struct {
	SettlementID snowflake.ID  `json:"settlement_id"`
	WeekClosed   calendar.Date `json:"week_closed"`
	NextWeek     calendar.Date `json:"next_week"`
	Count        int           `json:"count"`
	Carries      []Carry       `json:"carries"`
	Warnings     []string      `json:"warnings"`
}

type EntityStatus struct {
	EntityID      snowflake.ID               `json:"entity_id"`
	SaldoAnterior float64                    `json:"saldo_anterior"`
	Resultado     float64                    `json:"resultado"`
	Ledger        ledgerdomain.NetResult     `json:"ledger"`
	OpenBalance   float64                    `json:"open_balance"`
	Status        ledgerdomain.PaymentStatus `json:"status"`
}
