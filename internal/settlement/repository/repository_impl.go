package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() settlementdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *settlementdomain.Settlement) error {
	return db.WithContext(ctx).Create(s).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*settlementdomain.Settlement, error) {
	var s settlementdomain.Settlement
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindLatest(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) (*settlementdomain.Settlement, error) {
	var s settlementdomain.Settlement
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND club_id = ? AND week_start = ?", tenantID, clubID, week).
		Order("version DESC").
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) ListForImport(ctx context.Context, db *gorm.DB, tenantID, importID snowflake.ID) ([]settlementdomain.Settlement, error) {
	var items []settlementdomain.Settlement
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM settlements
		 WHERE tenant_id = ?
		   AND (import_id = ? OR id IN (
		     SELECT settlement_id FROM agent_weekly_metrics WHERE tenant_id = ? AND import_id = ?
		   ))
		 ORDER BY version DESC`,
		tenantID,
		importID,
		tenantID,
		importID,
	).Scan(&items).Error
	return items, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter settlementdomain.ListFilter) ([]settlementdomain.Settlement, error) {
	query := db.WithContext(ctx).
		Model(&settlementdomain.Settlement{}).
		Where("tenant_id = ?", tenantID)
	if filter.ClubID != nil {
		query = query.Where("club_id = ?", *filter.ClubID)
	}
	if filter.WeekStart != nil {
		query = query.Where("week_start = ?", *filter.WeekStart)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var items []settlementdomain.Settlement
	err := query.Order("week_start DESC, version DESC").Find(&items).Error
	return items, err
}

func (r *repo) CompareAndFinalize(ctx context.Context, db *gorm.DB, tenantID, id, userID snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE settlements
		 SET status = ?, finalized_by = ?, finalized_at = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND status = ?`,
		settlementdomain.StatusFinal,
		userID,
		at,
		at,
		tenantID,
		id,
		settlementdomain.StatusDraft,
	)
	return result.RowsAffected == 1, result.Error
}

func (r *repo) CompareAndVoid(ctx context.Context, db *gorm.DB, tenantID, id, userID snowflake.ID, reason string, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE settlements
		 SET status = ?, voided_by = ?, voided_at = ?, void_reason = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND status = ?`,
		settlementdomain.StatusVoid,
		userID,
		at,
		reason,
		at,
		tenantID,
		id,
		settlementdomain.StatusFinal,
	)
	return result.RowsAffected == 1, result.Error
}

func (r *repo) ReassignImport(ctx context.Context, db *gorm.DB, tenantID, id, importID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&settlementdomain.Settlement{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"import_id":  importID,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&settlementdomain.Settlement{}).Error
}

func (r *repo) InsertPlayerMetrics(ctx context.Context, db *gorm.DB, rows []settlementdomain.PlayerWeeklyMetric) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *repo) InsertAgentMetrics(ctx context.Context, db *gorm.DB, rows []settlementdomain.AgentWeeklyMetric) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *repo) ListPlayerMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) ([]settlementdomain.PlayerWeeklyMetric, error) {
	var items []settlementdomain.PlayerWeeklyMetric
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Order("agent_id ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) ListAgentMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) ([]settlementdomain.AgentWeeklyMetric, error) {
	var items []settlementdomain.AgentWeeklyMetric
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Order("agent_id ASC, id ASC").
		Find(&items).Error
	return items, err
}

// DeleteMetrics removes player rows before agent rows.
func (r *repo) DeleteMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Delete(&settlementdomain.PlayerWeeklyMetric{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Delete(&settlementdomain.AgentWeeklyMetric{}).Error
}

func (r *repo) DeleteMetricsByImport(ctx context.Context, db *gorm.DB, tenantID, settlementID, importID snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ? AND import_id = ?", tenantID, settlementID, importID).
		Delete(&settlementdomain.PlayerWeeklyMetric{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ? AND import_id = ?", tenantID, settlementID, importID).
		Delete(&settlementdomain.AgentWeeklyMetric{}).Error
}

func (r *repo) CountMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) (int64, error) {
	var players, agents int64
	if err := db.WithContext(ctx).
		Model(&settlementdomain.PlayerWeeklyMetric{}).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Count(&players).Error; err != nil {
		return 0, err
	}
	if err := db.WithContext(ctx).
		Model(&settlementdomain.AgentWeeklyMetric{}).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Count(&agents).Error; err != nil {
		return 0, err
	}
	return players + agents, nil
}
