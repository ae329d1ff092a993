package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert overwrites the amount of an existing (tenant, club, entity, week) row.
	Upsert(ctx context.Context, db *gorm.DB, cf *CarryForward) error
	ListForWeek(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) ([]CarryForward, error)
	Find(ctx context.Context, db *gorm.DB, tenantID, clubID, entityID snowflake.ID, week calendar.Date) (*CarryForward, error)
}
