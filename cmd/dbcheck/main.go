package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/offer-marketplace/config"
	pginfra "github.com/oksasatya/offer-marketplace/internal/infrastructure/postgres"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
)

// dbcheck counts rows in the main tables to confirm the database is reachable and migrated.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-dbcheck", cfg.Env)

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		logger.WithError(err).Fatal("failed to open db")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	results := pginfra.SmokeCheck(ctx, db, logger)
	cancel()
	_ = db.Close()

	for _, r := range results {
		if r.Err != nil {
			os.Exit(1)
		}
	}
}
