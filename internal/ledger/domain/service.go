package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
	"github.com/railzwaylabs/clubsettle/pkg/db/pagination"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Entry, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, id snowflake.ID) error
	Reconcile(ctx context.Context, id snowflake.ID, reconciled bool) (*Entry, error)

	// CreateInTx is used by bank reconciliation to write an entry inside its
	// own transaction.
	CreateInTx(ctx context.Context, tx *gorm.DB, req CreateRequest) (*Entry, error)
	// WeekNets returns the net movement of every entity with entries in the week.
	WeekNets(ctx context.Context, tx *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) (map[snowflake.ID]NetResult, error)
}

type CreateRequest struct {
	ClubID            snowflake.ID
	EntityID          snowflake.ID
	WeekStart         calendar.Date
	Direction         Direction
	Amount            float64
	Method            string
	Description       string
	Source            Source
	BankTransactionID *snowflake.ID
}

type ListRequest struct {
	ClubID    *snowflake.ID
	EntityID  *snowflake.ID
	WeekStart calendar.Date
	pagination.Pagination
}

type ListResponse struct {
	Entries  []Entry             `json:"entries"`
	Totals   NetResult           `json:"totals"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidClub      = errs.Validation("invalid_club")
	ErrInvalidEntity    = errs.Validation("invalid_entity")
	ErrInvalidWeekStart = errs.Validation("invalid_week_start")
	ErrInvalidDirection = errs.Validation("invalid_direction")
	ErrInvalidAmount    = errs.Validation("invalid_amount")
	ErrEntryNotFound    = errs.NotFound("ledger_entry_not_found")
	ErrEntityNotFound   = errs.NotFound("entity_not_found")
	ErrSettlementLocked = errs.Conflict("settlement_locked")
)
