package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, org *Organization) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Organization, error)
	FindChildByName(ctx context.Context, db *gorm.DB, tenantID, parentID snowflake.ID, typ Type, name string) (*Organization, error)
	// FindAgent returns the agent only when it sits under a subclub of clubID.
	FindAgent(ctx context.Context, db *gorm.DB, tenantID, clubID, agentID snowflake.ID) (*AgentRow, error)
	FindAgentByName(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, name string) (*AgentRow, error)
	ListAgents(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID) ([]AgentRow, error)

	InsertPlayer(ctx context.Context, db *gorm.DB, p *Player) error
	FindPlayerByExternalID(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, externalID string) (*Player, error)
}
