package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
)

type Service interface {
	ComputeAndPersist(ctx context.Context, settlementID snowflake.ID) (*CloseResult, error)
	Get(ctx context.Context, req GetRequest) (*GetResponse, error)
	Statuses(ctx context.Context, settlementID snowflake.ID) ([]EntityStatus, error)
}

type GetRequest struct {
	ClubID    snowflake.ID
	WeekStart calendar.Date
	EntityID  *snowflake.ID
}

// GetResponse carries Amount when a single entity was requested and
// Amounts otherwise.
type GetResponse struct {
	WeekStart calendar.Date            `json:"week_start"`
	EntityID  *snowflake.ID            `json:"entity_id,omitempty"`
	Amount    *float64                 `json:"amount,omitempty"`
	Amounts   map[snowflake.ID]float64 `json:"amounts,omitempty"`
}

var (
	ErrInvalidSettlement  = errs.Validation("invalid_settlement_id")
	ErrInvalidClub        = errs.Validation("invalid_club_id")
	ErrInvalidWeekStart   = errs.Validation("invalid_week_start")
	ErrSettlementNotFound = errs.NotFound("settlement_not_found")
	ErrSettlementVoid     = errs.Conflict("settlement_void")
)
