package migration

import (
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	bankdomain "github.com/railzwaylabs/clubsettle/internal/bankstatement/domain"
	carryforwarddomain "github.com/railzwaylabs/clubsettle/internal/carryforward/domain"
	importdomain "github.com/railzwaylabs/clubsettle/internal/importer/domain"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	ratedomain "github.com/railzwaylabs/clubsettle/internal/rate/domain"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"gorm.io/gorm"
)

// Models lists every persisted model, parents first.
func Models() []any {
	return []any{
		&orgdomain.Organization{},
		&orgdomain.Player{},
		&ratedomain.Rate{},
		&importdomain.Import{},
		&settlementdomain.Settlement{},
		&settlementdomain.PlayerWeeklyMetric{},
		&settlementdomain.AgentWeeklyMetric{},
		&bankdomain.BankTransaction{},
		&ledgerdomain.Entry{},
		&carryforwarddomain.CarryForward{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate builds the schema from the models. Used for sqlite and mysql,
// which the embedded SQL does not target.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
