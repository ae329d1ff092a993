package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	ClubID    *snowflake.ID
	EntityID  *snowflake.ID
	WeekStart calendar.Date
	AfterID   int64
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, e *Entry) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Entry, error)
	FindByBankTransactionID(ctx context.Context, db *gorm.DB, tenantID, txID snowflake.ID) (*Entry, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]Entry, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error)
	SetReconciled(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, reconciled bool) (int64, error)

	// ListForWeek returns the entries that count toward week totals; entries
	// whose bank transaction is currently ignored are excluded.
	ListForWeek(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) ([]Entry, error)

	// ListCounted returns every entry matching the filter, ignoring paging,
	// with the same ignored-transaction exclusion as ListForWeek.
	ListCounted(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListFilter) ([]Entry, error)

	// ReleaseBankTransaction moves an applied bank transaction back to linked
	// after its ledger entry is removed.
	ReleaseBankTransaction(ctx context.Context, db *gorm.DB, tenantID, txID snowflake.ID) error

	// WeekSettlementStatus returns the status of the latest settlement
	// version for the club week, or "" when there is none.
	WeekSettlementStatus(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) (string, error)
}
