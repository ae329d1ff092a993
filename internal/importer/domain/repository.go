package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, imp *Import) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Import, error)
	Complete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, status Status, rowCount int) error
	// ListContributors returns the other done imports that own the settlement
	// or contributed metrics to it, newest first.
	ListContributors(ctx context.Context, db *gorm.DB, tenantID, settlementID, excludeID snowflake.ID) ([]Import, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error
}
