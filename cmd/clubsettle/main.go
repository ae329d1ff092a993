package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/audit"
	"github.com/railzwaylabs/clubsettle/internal/authorization"
	"github.com/railzwaylabs/clubsettle/internal/bankstatement"
	"github.com/railzwaylabs/clubsettle/internal/carryforward"
	"github.com/railzwaylabs/clubsettle/internal/config"
	"github.com/railzwaylabs/clubsettle/internal/importer"
	"github.com/railzwaylabs/clubsettle/internal/ledger"
	"github.com/railzwaylabs/clubsettle/internal/migration"
	"github.com/railzwaylabs/clubsettle/internal/observability"
	"github.com/railzwaylabs/clubsettle/internal/organization"
	"github.com/railzwaylabs/clubsettle/internal/rate"
	"github.com/railzwaylabs/clubsettle/internal/redis"
	"github.com/railzwaylabs/clubsettle/internal/server"
	"github.com/railzwaylabs/clubsettle/internal/settlement"
	"github.com/railzwaylabs/clubsettle/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "clubsettle",
		Short:   "Club settlement and ledger reconciliation engine",
		Version: readVersionFromEnv(),
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newAllCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run migrations, then start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(); err != nil {
				return err
			}
			runServe()
			return nil
		},
	}
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.SchemaGate,
		redis.Module,
		authorization.Module,
		audit.Module,
		organization.Module,
		rate.Module,
		ledger.Module,
		settlement.Module,
		carryforward.Module,
		importer.Module,
		bankstatement.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
