package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
)

type Service interface {
	SetRate(ctx context.Context, req SetRateRequest) (*Rate, error)
	GetRateAt(ctx context.Context, typ EntityType, entityID snowflake.ID, date calendar.Date) (*Rate, error)
	History(ctx context.Context, typ EntityType, entityID snowflake.ID) ([]Rate, error)
}

type SetRateRequest struct {
	EntityType    EntityType
	EntityID      snowflake.ID
	Rate          float64
	EffectiveFrom calendar.Date
}

var (
	ErrInvalidRate          = errs.Validation("invalid_rate")
	ErrInvalidEntityType    = errs.Validation("invalid_entity_type")
	ErrInvalidEntity        = errs.Validation("invalid_entity")
	ErrInvalidEffectiveFrom = errs.Validation("invalid_effective_from")
	ErrRateNotFound         = errs.NotFound("rate_not_found")
)
