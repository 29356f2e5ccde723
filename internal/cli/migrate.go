package cli

import (
	"context"
	"database/sql"
	"fmt"

	"esquematiza/internal/config"
	"esquematiza/internal/domain"
	"esquematiza/internal/infra/memory"
	pgmigrations "esquematiza/internal/infra/postgres/migrations"
	"esquematiza/internal/infra/sqlite"
	"esquematiza/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations for the configured bank.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the bank schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Format)
			return runMigrations(cmd.Context(), cfg, seed, log)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the built-in demo questions into an empty sqlite bank")
	return cmd
}

func runMigrations(ctx context.Context, cfg config.Config, seed bool, log logrus.FieldLogger) error {
	loc := cfg.Bank.Location
	switch {
	case loc == "":
		return fmt.Errorf("bank location not configured")
	case config.IsPostgresURL(loc):
		return runMigrationsWithURL(ctx, loc, log)
	default:
		// The sqlite schema is created on open.
		store, err := sqlite.New(loc)
		if err != nil {
			return err
		}
		defer store.Close()
		var questions []domain.Question
		if seed {
			questions = memory.DemoQuestions()
		}
		if err := store.Seed(ctx, questions, memory.DemoPrompts()); err != nil {
			return err
		}
		log.WithField("path", loc).Info("sqlite bank ready")
		return nil
	}
}

func runMigrationsWithURL(ctx context.Context, url string, log logrus.FieldLogger) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}
