package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bankdomain "github.com/railzwaylabs/clubsettle/internal/bankstatement/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() bankdomain.Repository {
	return &repo{}
}

func (r *repo) InsertIgnoreDuplicates(ctx context.Context, db *gorm.DB, tx *bankdomain.BankTransaction) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "fit_id"}},
			DoNothing: true,
		}).
		Create(tx)
	return result.RowsAffected == 1, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*bankdomain.BankTransaction, error) {
	var tx bankdomain.BankTransaction
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&tx).Error
	if err != nil {
		return nil, err
	}
	if tx.ID == 0 {
		return nil, nil
	}
	return &tx, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter bankdomain.ListFilter) ([]bankdomain.BankTransaction, error) {
	query := db.WithContext(ctx).
		Model(&bankdomain.BankTransaction{}).
		Where("tenant_id = ? AND week_start = ?", tenantID, filter.WeekStart)
	if filter.ClubID != nil {
		query = query.Where("club_id = ?", *filter.ClubID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var items []bankdomain.BankTransaction
	err := query.Order("posted_at ASC, id ASC").Find(&items).Error
	return items, err
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tx *bankdomain.BankTransaction) error {
	return db.WithContext(ctx).Save(tx).Error
}

func (r *repo) MarkApplied(ctx context.Context, db *gorm.DB, tenantID, id, ledgerEntryID snowflake.ID) (bool, error) {
	now := time.Now().UTC()
	result := db.WithContext(ctx).
		Model(&bankdomain.BankTransaction{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, bankdomain.StatusLinked).
		Updates(map[string]any{
			"status":          bankdomain.StatusApplied,
			"ledger_entry_id": ledgerEntryID,
			"applied_at":      now,
			"updated_at":      now,
		})
	return result.RowsAffected == 1, result.Error
}
