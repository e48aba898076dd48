package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemongo "github.com/golang-migrate/migrate/v4/database/mongodb"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/db"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/memory"
	mongoinfra "github.com/oksasatya/go-task-manager/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-task-manager/internal/infrastructure/postgres"
)

type store struct {
	users repository.UserRepository
	tasks repository.TaskRepository
	close func(ctx context.Context)
}

// openStore connects the driver named by STORE_DRIVER and applies its migrations.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return &store{
			users: memory.NewUserRepository(),
			tasks: memory.NewTaskRepository(),
			close: func(context.Context) {},
		}, nil

	case config.StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.MigrationsEnabled {
			if err := migratePostgres(cfg.DatabaseURL, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		return &store{
			users: pginfra.NewUserRepository(pool),
			tasks: pginfra.NewTaskRepository(pool),
			close: func(context.Context) { pool.Close() },
		}, nil

	default:
		client, err := mongoinfra.NewClient(ctx, cfg.MongoURL, cfg.MongoTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		if cfg.MigrationsEnabled {
			driver, err := migratemongo.WithInstance(client, &migratemongo.Config{DatabaseName: cfg.MongoDatabase})
			if err == nil {
				err = runMigrations(driver, "mongodb", db.MongoMigrationsDir, logger)
			}
			if err != nil {
				_ = client.Disconnect(ctx)
				return nil, fmt.Errorf("mongodb migrations: %w", err)
			}
		}
		mdb := client.Database(cfg.MongoDatabase)
		return &store{
			users: mongoinfra.NewUserRepository(mdb),
			tasks: mongoinfra.NewTaskRepository(mdb),
			close: func(ctx context.Context) {
				if err := client.Disconnect(ctx); err != nil {
					logger.WithError(err).Warn("mongodb disconnect failed")
				}
			},
		}, nil
	}
}

func migratePostgres(dsn string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	driver, err := pgmigrate.WithInstance(sqlDB, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	return runMigrations(driver, "postgres", db.PostgresMigrationsDir, logger)
}

// runMigrations applies every pending up migration from the embedded dir.
// The driver is left open: closing the mongodb driver disconnects the shared client.
func runMigrations(driver database.Driver, name, dir string, logger *logrus.Logger) error {
	src, err := iofs.New(db.Migrations, dir)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return err
	}
	logger.WithField("store", name).Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
