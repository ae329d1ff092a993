package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	ratedomain "github.com/railzwaylabs/clubsettle/internal/rate/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ratedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rate *ratedomain.Rate) error {
	return db.WithContext(ctx).Create(rate).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rate *ratedomain.Rate) error {
	return db.WithContext(ctx).
		Model(&ratedomain.Rate{}).
		Where("tenant_id = ? AND id = ?", rate.TenantID, rate.ID).
		Updates(map[string]any{
			"rate":         rate.Rate,
			"effective_to": rate.EffectiveTo,
			"updated_at":   rate.UpdatedAt,
		}).Error
}

func (r *repo) scoped(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ ratedomain.EntityType, entityID snowflake.ID) *gorm.DB {
	return db.WithContext(ctx).
		Model(&ratedomain.Rate{}).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, typ, entityID)
}

func first(q *gorm.DB) (*ratedomain.Rate, error) {
	var rate ratedomain.Rate
	if err := q.Limit(1).Find(&rate).Error; err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repo) FindByEffectiveFrom(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ ratedomain.EntityType, entityID snowflake.ID, from calendar.Date) (*ratedomain.Rate, error) {
	return first(r.scoped(ctx, db, tenantID, typ, entityID).Where("effective_from = ?", from))
}

func (r *repo) FindPrevious(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ ratedomain.EntityType, entityID snowflake.ID, date calendar.Date) (*ratedomain.Rate, error) {
	return first(r.scoped(ctx, db, tenantID, typ, entityID).
		Where("effective_from < ?", date).
		Order("effective_from DESC"))
}

func (r *repo) FindNext(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ ratedomain.EntityType, entityID snowflake.ID, date calendar.Date) (*ratedomain.Rate, error) {
	return first(r.scoped(ctx, db, tenantID, typ, entityID).
		Where("effective_from > ?", date).
		Order("effective_from ASC"))
}

// FindAt resolves the version covering date. On a boundary day, where the
// closed version ends and the next one starts, the newer version wins.
func (r *repo) FindAt(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ ratedomain.EntityType, entityID snowflake.ID, date calendar.Date) (*ratedomain.Rate, error) {
	return first(r.scoped(ctx, db, tenantID, typ, entityID).
		Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", date, date).
		Order("effective_from DESC"))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, typ ratedomain.EntityType, entityID snowflake.ID) ([]ratedomain.Rate, error) {
	var rates []ratedomain.Rate
	err := r.scoped(ctx, db, tenantID, typ, entityID).
		Order("effective_from DESC").
		Find(&rates).Error
	return rates, err
}
