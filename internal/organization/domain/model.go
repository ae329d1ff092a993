// Package domain contains the club hierarchy: CLUB → SUBCLUB → AGENT, plus players.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Type string

const (
	TypeClub    Type = "CLUB"
	TypeSubclub Type = "SUBCLUB"
	TypeAgent   Type = "AGENT"
)

// DefaultSubclubName hosts agents that arrive in an import without a subclub.
const DefaultSubclubName = "GERAL"

type Organization struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID  `gorm:"not null;index" json:"tenant_id"`
	ParentID  *snowflake.ID `gorm:"index" json:"parent_id,omitempty"`
	Type      Type          `gorm:"type:text;not null" json:"type"`
	Name      string        `gorm:"type:text;not null" json:"name"`
	IsDirect  bool          `gorm:"not null;default:false" json:"is_direct"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
}

func (Organization) TableName() string { return "organizations" }

type Player struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID `gorm:"not null;uniqueIndex:ux_players_external" json:"tenant_id"`
	ClubID     snowflake.ID `gorm:"not null;uniqueIndex:ux_players_external" json:"club_id"`
	ExternalID string       `gorm:"type:text;not null;uniqueIndex:ux_players_external" json:"external_id"`
	AgentID    snowflake.ID `gorm:"not null;index" json:"agent_id"`
	Nickname   string       `gorm:"type:text" json:"nickname"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

func (Player) TableName() string { return "players" }

// AgentRow is an agent together with the subclub it belongs to.
type AgentRow struct {
	ID          snowflake.ID
	Name        string
	IsDirect    bool
	SubclubID   snowflake.ID
	SubclubName string
}
