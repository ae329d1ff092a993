package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	carryforwarddomain "github.com/railzwaylabs/clubsettle/internal/carryforward/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() carryforwarddomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, cf *carryforwarddomain.CarryForward) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "club_id"},
			{Name: "entity_id"},
			{Name: "week_start"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "settlement_id", "computed_at"}),
	}).Create(cf).Error
}

func (r *repo) ListForWeek(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) ([]carryforwarddomain.CarryForward, error) {
	var items []carryforwarddomain.CarryForward
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND club_id = ? AND week_start = ?", tenantID, clubID, week).
		Order("entity_id ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, tenantID, clubID, entityID snowflake.ID, week calendar.Date) (*carryforwarddomain.CarryForward, error) {
	var cf carryforwarddomain.CarryForward
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND club_id = ? AND entity_id = ? AND week_start = ?", tenantID, clubID, entityID, week).
		Limit(1).
		Find(&cf).Error
	if err != nil {
		return nil, err
	}
	if cf.ID == 0 {
		return nil, nil
	}
	return &cf, nil
}
