package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
)

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Settlement, error)
	List(ctx context.Context, req ListRequest) ([]Settlement, error)
	Finalize(ctx context.Context, id snowflake.ID) (*Settlement, error)
	Void(ctx context.Context, id snowflake.ID, reason string) (*Settlement, error)
	Full(ctx context.Context, id snowflake.ID) (*FullSettlement, error)
}

type ListRequest struct {
	ClubID    *snowflake.ID
	WeekStart *calendar.Date
	Status    *Status
}

// Cache stores FullSettlement snapshots. Implementations must make
// Invalidate remove every scope of a settlement.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID, settlementID snowflake.ID) error
}

var (
	ErrInvalidID          = errs.Validation("invalid_settlement_id")
	ErrSettlementNotFound = errs.NotFound("settlement_not_found")
	ErrSettlementNotDraft = errs.Conflict("settlement_not_draft")
	ErrSettlementNotFinal = errs.Conflict("settlement_not_final")
	ErrSettlementVoid     = errs.Conflict("settlement_void")
	ErrSettlementLocked   = errs.Conflict("settlement_locked")
	ErrVoidReasonRequired = errs.Validation("void_reason_required")
)
