package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/database"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		fixturesPath = flag.String("fixtures", "configs/fixtures.yaml", "path to fixtures.yaml")
		driver       = flag.String("driver", database.DriverSQLite, "sqlite3 or postgres")
		dbPath       = flag.String("db", "./data/tourbook.db", "path to sqlite db")
		pgHost       = flag.String("pg-host", "localhost", "postgres host when -driver=postgres")
		pgPort       = flag.Int("pg-port", 5432, "postgres port")
		pgUser       = flag.String("pg-user", "postgres", "postgres user")
		pgPassword   = flag.String("pg-password", os.Getenv("PGPASSWORD"), "postgres password")
		pgName       = flag.String("pg-db", "tourbook", "postgres database")
	)
	flag.Parse()

	fx, err := database.LoadFixtures(*fixturesPath)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(fx.Posts) == 0 {
		return fmt.Errorf("no posts in %s", *fixturesPath)
	}

	db, err := database.Open(config.DatabaseConfig{
		Driver: *driver,
		Path:   *dbPath,
		Postgres: config.PostgresConfig{
			Host:     *pgHost,
			Port:     *pgPort,
			User:     *pgUser,
			Password: *pgPassword,
			DBName:   *pgName,
		},
	}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := db.Seed(ctx, fx)
	if err != nil {
		return err
	}

	logger.Info().Str("fixtures", *fixturesPath).Str("driver", db.Driver()).Int("posts", stats.Posts).Msg("seed complete")
	return nil
}
