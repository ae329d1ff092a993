package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"gorm.io/gorm"
)

type ListFilter struct {
	ClubID    *snowflake.ID
	WeekStart calendar.Date
	Status    *Status
}

type Repository interface {
	// InsertIgnoreDuplicates reports whether the row was new.
	InsertIgnoreDuplicates(ctx context.Context, db *gorm.DB, tx *BankTransaction) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*BankTransaction, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListFilter) ([]BankTransaction, error)
	Update(ctx context.Context, db *gorm.DB, tx *BankTransaction) error
	// MarkApplied moves a linked row to applied; false when it was not linked.
	MarkApplied(ctx context.Context, db *gorm.DB, tenantID, id, ledgerEntryID snowflake.ID) (bool, error)
}
