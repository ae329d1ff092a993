package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, r *Rate) error
	Update(ctx context.Context, db *gorm.DB, r *Rate) error
	FindByEffectiveFrom(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ EntityType, entityID snowflake.ID, from calendar.Date) (*Rate, error)
	// FindPrevious returns the latest version starting strictly before date.
	FindPrevious(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ EntityType, entityID snowflake.ID, date calendar.Date) (*Rate, error)
	// FindNext returns the earliest version starting strictly after date.
	FindNext(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ EntityType, entityID snowflake.ID, date calendar.Date) (*Rate, error)
	FindAt(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ EntityType, entityID snowflake.ID, date calendar.Date) (*Rate, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ EntityType, entityID snowflake.ID) ([]Rate, error)
}
