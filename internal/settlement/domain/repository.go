package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"gorm.io/gorm"
)

type ListFilter struct {
	ClubID    *snowflake.ID
	WeekStart *calendar.Date
	Status    *Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, s *Settlement) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Settlement, error)
	FindLatest(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) (*Settlement, error)
	// ListForImport returns every settlement an import created or contributed metrics to, newest version first.
	ListForImport(ctx context.Context, db *gorm.DB, tenantID, importID snowflake.ID) ([]Settlement, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListFilter) ([]Settlement, error)

	// CompareAndFinalize moves DRAFT → FINAL; it reports whether the row changed.
	CompareAndFinalize(ctx context.Context, db *gorm.DB, tenantID, id, userID snowflake.ID, at time.Time) (bool, error)
	// CompareAndVoid moves FINAL → VOID; it reports whether the row changed.
	CompareAndVoid(ctx context.Context, db *gorm.DB, tenantID, id, userID snowflake.ID, reason string, at time.Time) (bool, error)
	ReassignImport(ctx context.Context, db *gorm.DB, tenantID, id, importID snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error

	InsertPlayerMetrics(ctx context.Context, db *gorm.DB, rows []PlayerWeeklyMetric) error
	InsertAgentMetrics(ctx context.Context, db *gorm.DB, rows []AgentWeeklyMetric) error
	ListPlayerMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) ([]PlayerWeeklyMetric, error)
	ListAgentMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) ([]AgentWeeklyMetric, error)
	DeleteMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) error
	DeleteMetricsByImport(ctx context.Context, db *gorm.DB, tenantID, settlementID, importID snowflake.ID) error
	CountMetrics(ctx context.Context, db *gorm.DB, tenantID, settlementID snowflake.ID) (int64, error)
}
