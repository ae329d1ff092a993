package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	"github.com/railzwaylabs/clubsettle/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ledgerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *ledgerdomain.Entry) error {
	return db.WithContext(ctx).Create(e).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*ledgerdomain.Entry, error) {
	var e ledgerdomain.Entry
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) FindByBankTransactionID(ctx context.Context, db *gorm.DB, tenantID, txID snowflake.ID) (*ledgerdomain.Entry, error) {
	var e ledgerdomain.Entry
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND bank_transaction_id = ?", tenantID, txID).
		Limit(1).
		Find(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ledgerdomain.ListFilter, page pagination.Pagination) ([]ledgerdomain.Entry, error) {
	query := db.WithContext(ctx).
		Model(&ledgerdomain.Entry{}).
		Where("tenant_id = ? AND week_start = ?", tenantID, filter.WeekStart)

	if filter.ClubID != nil {
		query = query.Where("club_id = ?", *filter.ClubID)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.AfterID > 0 {
		query = query.Where("id < ?", filter.AfterID)
	}
	if page.PageSize > 0 {
		query = query.Limit(page.PageSize + 1)
	}

	var items []ledgerdomain.Entry
	err := query.Order("id DESC").Find(&items).Error
	return items, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&ledgerdomain.Entry{})
	return result.RowsAffected, result.Error
}

func (r *repo) SetReconciled(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, reconciled bool) (int64, error) {
	result := db.WithContext(ctx).
		Model(&ledgerdomain.Entry{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"is_reconciled": reconciled,
			"updated_at":    db.NowFunc(),
		})
	return result.RowsAffected, result.Error
}

func (r *repo) ListForWeek(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) ([]ledgerdomain.Entry, error) {
	var items []ledgerdomain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT e.*
		 FROM ledger_entries e
		 LEFT JOIN bank_transactions b ON b.id = e.bank_transaction_id AND b.tenant_id = e.tenant_id
		 WHERE e.tenant_id = ? AND e.club_id = ? AND e.week_start = ?
		   AND (b.id IS NULL OR b.ignored = ?)
		 ORDER BY e.id ASC`,
		tenantID,
		clubID,
		week,
		false,
	).Scan(&items).Error
	return items, err
}

func (r *repo) ListCounted(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ledgerdomain.ListFilter) ([]ledgerdomain.Entry, error) {
	query := db.WithContext(ctx).
		Table("ledger_entries AS e").
		Select("e.*").
		Joins("LEFT JOIN bank_transactions b ON b.id = e.bank_transaction_id AND b.tenant_id = e.tenant_id").
		Where("e.tenant_id = ? AND e.week_start = ?", tenantID, filter.WeekStart).
		Where("(b.id IS NULL OR b.ignored = ?)", false)

	if filter.ClubID != nil {
		query = query.Where("e.club_id = ?", *filter.ClubID)
	}
	if filter.EntityID != nil {
		query = query.Where("e.entity_id = ?", *filter.EntityID)
	}

	var items []ledgerdomain.Entry
	err := query.Order("e.id ASC").Scan(&items).Error
	return items, err
}

func (r *repo) WeekSettlementStatus(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) (string, error) {
	var status string
	err := db.WithContext(ctx).Raw(
		`SELECT status FROM settlements
		 WHERE tenant_id = ? AND club_id = ? AND week_start = ?
		 ORDER BY version DESC
		 LIMIT 1`,
		tenantID,
		clubID,
		week,
	).Scan(&status).Error
	return status, err
}

func (r *repo) ReleaseBankTransaction(ctx context.Context, db *gorm.DB, tenantID, txID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bank_transactions
		 SET status = ?, ledger_entry_id = NULL, applied_at = NULL
		 WHERE tenant_id = ? AND id = ? AND status = ?`,
		"linked",
		tenantID,
		txID,
		"applied",
	).Error
}
