package migration

import (
	"context"
	"time"

	"github.com/railzwaylabs/clubsettle/internal/config"
	"github.com/railzwaylabs/clubsettle/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// SchemaGate stops a server from starting against an unmigrated postgres.
var SchemaGate = fx.Invoke(EnforceSchemaGate)

// Run migrates postgres with the embedded SQL and every other driver with
// gorm AutoMigrate when enabled.
func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if !db.IsPostgres(conn) {
		if !cfg.Database.AutoMigrate {
			log.Info("auto migrate disabled", zap.String("driver", cfg.Database.Driver))
			return nil
		}
		log.Info("auto migrating schema", zap.String("driver", cfg.Database.Driver))
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

func EnforceSchemaGate(conn *gorm.DB, log *zap.Logger) error {
	if !db.IsPostgres(conn) {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := CheckSchemaState(ctx, sqlDB); err != nil {
		return err
	}
	log.Info("schema state verified")
	return nil
}
