package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
)

type Service interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
	Delete(ctx context.Context, id snowflake.ID) (*DeleteResult, error)
}

type ConfirmRequest struct {
	ClubID    snowflake.ID
	WeekStart calendar.Date
	FileName  string
	Mode      Mode
	Rows      []PlayerRow
}

type ConfirmResult struct {
	Import     Import                      `json:"import"`
	Settlement settlementdomain.Settlement `json:"settlement"`
	Players    int                         `json:"players"`
	Agents     int                         `json:"agents"`
}

// DeleteResult reports what the cascade did.
type DeleteResult struct {
	ImportID          snowflake.ID  `json:"import_id"`
	SettlementID      *snowflake.ID `json:"settlement_id,omitempty"`
	SettlementDeleted bool          `json:"settlement_deleted"`
	ReassignedTo      *snowflake.ID `json:"reassigned_to,omitempty"`
}

var (
	ErrInvalidClub      = errs.Validation("invalid_club_id")
	ErrInvalidWeekStart = errs.Validation("invalid_week_start")
	ErrInvalidMode      = errs.Validation("invalid_import_mode")
	ErrEmptyImport      = errs.Validation("empty_import")
	ErrInvalidRow       = errs.Validation("invalid_import_row")
	ErrClubNotFound     = errs.NotFound("club_not_found")
	ErrImportNotFound   = errs.NotFound("import_not_found")
	ErrDraftExists      = errs.Conflict("draft_settlement_exists")
	ErrSettlementLocked = errs.Conflict("settlement_locked")
)
