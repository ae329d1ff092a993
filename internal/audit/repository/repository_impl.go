package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() auditdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, log *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Create(log).Error
}

func (r *repo) ListByTarget(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, targetType string, targetID snowflake.ID) ([]auditdomain.AuditLog, error) {
	var logs []auditdomain.AuditLog
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND target_type = ? AND target_id = ?", tenantID, targetType, targetID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}

func (r *repo) ListRange(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, start, end time.Time, actions []string) ([]auditdomain.AuditLog, error) {
	query := db.WithContext(ctx).
		Model(&auditdomain.AuditLog{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, start, end)
	if len(actions) > 0 {
		query = query.Where("action IN ?", actions)
	}

	var logs []auditdomain.AuditLog
	err := query.Order("created_at ASC, id ASC").Find(&logs).Error
	return logs, err
}
