// Package domain describes a confirmed weekly statement import and the
// player rows it carries.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

type Mode string

const (
	ModeNew   Mode = "new"
	ModeMerge Mode = "merge"
)

type Import struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID  `gorm:"not null;index:ix_imports_week" json:"tenant_id"`
	ClubID    snowflake.ID  `gorm:"not null;index:ix_imports_week" json:"club_id"`
	WeekStart calendar.Date `gorm:"not null;index:ix_imports_week" json:"week_start"`
	FileName  string        `gorm:"type:text" json:"file_name"`
	Mode      Mode          `gorm:"type:text;not null" json:"mode"`
	Status    Status        `gorm:"type:text;not null" json:"status"`
	RowCount  int           `gorm:"not null;default:0" json:"row_count"`
	CreatedBy snowflake.ID  `json:"created_by"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null" json:"updated_at"`
}

func (Import) TableName() string { return "imports" }

// PlayerRow is one line of a weekly statement, already parsed by the
// statement importer.
type PlayerRow struct {
	ExternalPlayerID string  `json:"external_player_id" binding:"required"`
	Nickname         string  `json:"nickname"`
	AgentName        string  `json:"agent_name" binding:"required"`
	SubclubName      string  `json:"subclub_name"`
	IsDirect         bool    `json:"is_direct"`
	Winnings         float64 `json:"winnings"`
	Rake             float64 `json:"rake"`
	GGR              float64 `json:"ggr"`
	Hands            int64   `json:"hands"`
	Games            int64   `json:"games"`
}
