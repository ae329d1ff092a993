package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	importdomain "github.com/railzwaylabs/clubsettle/internal/importer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() importdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, imp *importdomain.Import) error {
	return db.WithContext(ctx).Create(imp).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*importdomain.Import, error) {
	var imp importdomain.Import
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&imp).Error
	if err != nil {
		return nil, err
	}
	if imp.ID == 0 {
		return nil, nil
	}
	return &imp, nil
}

func (r *repo) Complete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, status importdomain.Status, rowCount int) error {
	return db.WithContext(ctx).
		Model(&importdomain.Import{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"status":     status,
			"row_count":  rowCount,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) ListContributors(ctx context.Context, db *gorm.DB, tenantID, settlementID, excludeID snowflake.ID) ([]importdomain.Import, error) {
	var items []importdomain.Import
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM imports
		 WHERE tenant_id = ? AND status = ? AND id <> ?
		   AND (id IN (SELECT import_id FROM settlements WHERE tenant_id = ? AND id = ?)
		     OR id IN (SELECT import_id FROM agent_weekly_metrics WHERE tenant_id = ? AND settlement_id = ?))
		 ORDER BY id DESC`,
		tenantID,
		importdomain.StatusDone,
		excludeID,
		tenantID,
		settlementID,
		tenantID,
		settlementID,
	).Scan(&items).Error
	return items, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&importdomain.Import{}).Error
}
