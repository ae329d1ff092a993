// Package domain models the weekly settlement of a club and the immutable
// per-player and per-agent metrics it owns.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
)

type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusFinal Status = "FINAL"
	StatusVoid  Status = "VOID"
)

// Locked reports whether the settlement rejects further edits to its week.
func (s Status) Locked() bool {
	return s == StatusFinal || s == StatusVoid
}

// Settlement is one version of a club week. Only Finalize and Void mutate it.
type Settlement struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID  `gorm:"not null;uniqueIndex:ux_settlements_week_version" json:"tenant_id"`
	ClubID      snowflake.ID  `gorm:"not null;uniqueIndex:ux_settlements_week_version" json:"club_id"`
	WeekStart   calendar.Date `gorm:"not null;uniqueIndex:ux_settlements_week_version" json:"week_start"`
	Version     int           `gorm:"not null;uniqueIndex:ux_settlements_week_version" json:"version"`
	Status      Status        `gorm:"type:text;not null;index" json:"status"`
	ImportID    *snowflake.ID `gorm:"index" json:"import_id,omitempty"`
	FinalizedBy *snowflake.ID `json:"finalized_by,omitempty"`
	FinalizedAt *time.Time    `json:"finalized_at,omitempty"`
	VoidedBy    *snowflake.ID `json:"voided_by,omitempty"`
	VoidedAt    *time.Time    `json:"voided_at,omitempty"`
	VoidReason  *string       `gorm:"type:text" json:"void_reason,omitempty"`
	CreatedAt   time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updated_at"`
}

func (Settlement) TableName() string { return "settlements" }

// PlayerWeeklyMetric is written once by an import and never updated.
type PlayerWeeklyMetric struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID         snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	SettlementID     snowflake.ID `gorm:"not null;index" json:"settlement_id"`
	ImportID         snowflake.ID `gorm:"not null;index" json:"import_id"`
	PlayerID         snowflake.ID `gorm:"not null" json:"player_id"`
	ExternalPlayerID string       `gorm:"type:text;not null" json:"external_player_id"`
	Nickname         string       `gorm:"type:text" json:"nickname"`
	AgentID          snowflake.ID `gorm:"not null;index" json:"agent_id"`
	SubclubID        snowflake.ID `gorm:"not null" json:"subclub_id"`
	Winnings         float64      `gorm:"not null" json:"winnings"`
	Rake             float64      `gorm:"not null" json:"rake"`
	GGR              float64      `gorm:"column:ggr;not null" json:"ggr"`
	RakebackRate     float64      `gorm:"not null" json:"rakeback_rate"`
	RakebackValue    float64      `gorm:"not null" json:"rakeback_value"`
	NetResult        float64      `gorm:"not null" json:"resultado"`
	Hands            int64        `gorm:"not null;default:0" json:"hands"`
	Games            int64        `gorm:"not null;default:0" json:"games"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
}

func (PlayerWeeklyMetric) TableName() string { return "player_weekly_metrics" }

// AgentWeeklyMetric aggregates one import's players under an agent. In merge
// mode an agent can own several rows in one settlement; readers sum them.
// NetResult is what the agent owes the club for the week (negative: the club
// owes the agent).
type AgentWeeklyMetric struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID      snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	SettlementID  snowflake.ID `gorm:"not null;index" json:"settlement_id"`
	ImportID      snowflake.ID `gorm:"not null;index" json:"import_id"`
	AgentID       snowflake.ID `gorm:"not null;index" json:"agent_id"`
	AgentName     string       `gorm:"type:text;not null" json:"agent_name"`
	SubclubID     snowflake.ID `gorm:"not null" json:"subclub_id"`
	SubclubName   string       `gorm:"type:text" json:"subclub_name"`
	IsDirect      bool         `gorm:"not null;default:false" json:"is_direct"`
	PlayerCount   int          `gorm:"not null" json:"player_count"`
	Winnings      float64      `gorm:"not null" json:"winnings"`
	Rake          float64      `gorm:"not null" json:"rake"`
	GGR           float64      `gorm:"column:ggr;not null" json:"ggr"`
	RakebackRate  float64      `gorm:"not null" json:"rakeback_rate"`
	RakebackValue float64      `gorm:"not null" json:"rakeback_value"`
	NetResult     float64      `gorm:"not null" json:"resultado"`
	Hands         int64        `gorm:"not null;default:0" json:"hands"`
	Games         int64        `gorm:"not null;default:0" json:"games"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
}

func (AgentWeeklyMetric) TableName() string { return "agent_weekly_metrics" }
