package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	ratedomain "github.com/railzwaylabs/clubsettle/internal/rate/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"github.com/railzwaylabs/clubsettle/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  ratedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  ratedomain.Repository
}

func New(p Params) ratedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rate.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// SetRate records a new rate version. Re-entering the same effective date
// updates that version in place; otherwise the version covering the date is
// closed at effectiveFrom and the new one is inserted after it.
func (s *Service) SetRate(ctx context.Context, req ratedomain.SetRateRequest) (*ratedomain.Rate, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !req.EntityType.Valid() {
		return nil, ratedomain.ErrInvalidEntityType
	}
	if req.EntityID == 0 {
		return nil, ratedomain.ErrInvalidEntity
	}
	if req.Rate < 0 || req.Rate > 100 {
		return nil, ratedomain.ErrInvalidRate
	}
	if req.EffectiveFrom.IsZero() {
		return nil, ratedomain.ErrInvalidEffectiveFrom
	}

	tenantID := identity.TenantID
	var out *ratedomain.Rate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := db.LockKey(ctx, tx, "rakeback_rate", tenantID.String(), string(req.EntityType), req.EntityID.String()); err != nil {
			return err
		}

		now := time.Now().UTC()
		next, err := s.repo.FindNext(ctx, tx, tenantID, req.EntityType, req.EntityID, req.EffectiveFrom)
		if err != nil {
			return err
		}
		var effectiveTo *calendar.Date
		if next != nil {
			to := next.EffectiveFrom
			effectiveTo = &to
		}

		existing, err := s.repo.FindByEffectiveFrom(ctx, tx, tenantID, req.EntityType, req.EntityID, req.EffectiveFrom)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Rate = req.Rate
			existing.EffectiveTo = effectiveTo
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		}

		prev, err := s.repo.FindPrevious(ctx, tx, tenantID, req.EntityType, req.EntityID, req.EffectiveFrom)
		if err != nil {
			return err
		}
		if prev != nil {
			closeAt := req.EffectiveFrom
			prev.EffectiveTo = &closeAt
			prev.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, prev); err != nil {
				return err
			}
		}

		rate := &ratedomain.Rate{
			ID:            s.genID.Generate(),
			TenantID:      tenantID,
			EntityType:    req.EntityType,
			EntityID:      req.EntityID,
			Rate:          req.Rate,
			EffectiveFrom: req.EffectiveFrom,
			EffectiveTo:   effectiveTo,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, rate); err != nil {
			return err
		}
		out = rate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rakeback rate set",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entity_type", string(req.EntityType)),
		zap.String("entity_id", req.EntityID.String()),
		zap.Float64("rate", req.Rate),
		zap.String("effective_from", req.EffectiveFrom.String()),
	)
	return out, nil
}

func (s *Service) GetRateAt(ctx context.Context, typ ratedomain.EntityType, entityID snowflake.ID, date calendar.Date) (*ratedomain.Rate, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, ratedomain.ErrInvalidEntityType
	}
	rate, err := s.repo.FindAt(ctx, s.db, identity.TenantID, typ, entityID, date)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, ratedomain.ErrRateNotFound
	}
	return rate, nil
}

func (s *Service) History(ctx context.Context, typ ratedomain.EntityType, entityID snowflake.ID) ([]ratedomain.Rate, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, ratedomain.ErrInvalidEntityType
	}
	return s.repo.List(ctx, s.db, identity.TenantID, typ, entityID)
}
