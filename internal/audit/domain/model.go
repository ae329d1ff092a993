// Package domain contains the audit trail of settlement-affecting actions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/errs"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is append-only; rows are never updated or deleted.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID      `gorm:"not null;index:ix_audit_logs_target" json:"tenant_id"`
	ActorID    snowflake.ID      `json:"actor_id"`
	ActorRole  string            `gorm:"type:text" json:"actor_role"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null;index:ix_audit_logs_target" json:"target_type"`
	TargetID   snowflake.ID      `gorm:"not null;index:ix_audit_logs_target" json:"target_id"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, log *AuditLog) error
	ListByTarget(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, targetType string, targetID snowflake.ID) ([]AuditLog, error)
	ListRange(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, start, end time.Time, actions []string) ([]AuditLog, error)
}

type Service interface {
	// AuditLog records an action. tx may be nil to use the service connection.
	AuditLog(ctx context.Context, tx *gorm.DB, action, targetType string, targetID snowflake.ID, metadata map[string]any) error
	Trail(ctx context.Context, targetType string, targetID snowflake.ID) ([]AuditLog, error)
}

var ErrInvalidAction = errs.Validation("invalid_audit_action")
