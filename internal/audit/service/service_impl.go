package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, tx *gorm.DB, action, targetType string, targetID snowflake.ID, metadata map[string]any) error {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return err
	}
	action = strings.TrimSpace(action)
	if action == "" || strings.TrimSpace(targetType) == "" {
		return auditdomain.ErrInvalidAction
	}
	if tx == nil {
		tx = s.db
	}

	entry := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		TenantID:   identity.TenantID,
		ActorID:    identity.UserID,
		ActorRole:  identity.Role,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  time.Now().UTC(),
	}
	if len(metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(metadata)
	}
	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		s.log.Error("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) Trail(ctx context.Context, targetType string, targetID snowflake.ID) ([]auditdomain.AuditLog, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByTarget(ctx, s.db, identity.TenantID, targetType, targetID)
}
