// Package domain holds versioned rakeback rates for agents and players.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
)

type EntityType string

const (
	EntityAgent  EntityType = "agent"
	EntityPlayer EntityType = "player"
)

func (t EntityType) Valid() bool {
	return t == EntityAgent || t == EntityPlayer
}

// Rate is one version of an entity's rakeback percentage. A nil EffectiveTo
// marks the current version; at most one row per entity has it.
type Rate struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID      snowflake.ID   `gorm:"not null;index:ix_rakeback_rates_entity" json:"tenant_id"`
	EntityType    EntityType     `gorm:"type:text;not null;index:ix_rakeback_rates_entity" json:"entity_type"`
	EntityID      snowflake.ID   `gorm:"not null;index:ix_rakeback_rates_entity" json:"entity_id"`
	Rate          float64        `gorm:"not null" json:"rate"`
	EffectiveFrom calendar.Date  `gorm:"not null" json:"effective_from"`
	EffectiveTo   *calendar.Date `json:"effective_to"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (Rate) TableName() string { return "rakeback_rates" }
