package domain

import (
	"context"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
)

type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	List(ctx context.Context, req ListRequest) ([]BankTransaction, error)
	Link(ctx context.Context, id snowflake.ID, req LinkRequest) (*BankTransaction, error)
	Unlink(ctx context.Context, id snowflake.ID) (*BankTransaction, error)
	Ignore(ctx context.Context, id snowflake.ID, ignore bool) (*BankTransaction, error)
	AutoMatch(ctx context.Context, clubID snowflake.ID, week calendar.Date) ([]Suggestion, error)
	ApplyLinked(ctx context.Context, clubID snowflake.ID, week calendar.Date) (*ApplyResult, error)
}

type UploadRequest struct {
	ClubID    snowflake.ID
	WeekStart calendar.Date
	Body      io.Reader
}

type ListRequest struct {
	ClubID    *snowflake.ID
	WeekStart calendar.Date
	Status    *Status
}

type LinkRequest struct {
	EntityID   snowflake.ID
	EntityName string
	Category   string
}

var (
	ErrInvalidClub         = errs.Validation("invalid_club_id")
	ErrInvalidWeekStart    = errs.Validation("invalid_week_start")
	ErrInvalidEntity       = errs.Validation("invalid_entity_id")
	ErrInvalidStatus       = errs.Validation("invalid_status")
	ErrInvalidStatement    = errs.Validation("invalid_ofx_statement")
	ErrTransactionNotFound = errs.NotFound("bank_transaction_not_found")
	ErrEntityNotFound      = errs.NotFound("entity_not_found")
	ErrTransactionApplied  = errs.Conflict("bank_transaction_applied")
	ErrTransactionIgnored  = errs.Conflict("bank_transaction_ignored")
)
