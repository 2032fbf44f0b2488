package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/offer-marketplace/config"
	pginfra "github.com/oksasatya/offer-marketplace/internal/infrastructure/postgres"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("seed failed")
		os.Exit(1)
	}
}

// run inserts the default contract step and always closes the connection.
func run(cfg *config.Config, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	step := pginfra.DefaultContractStep
	id, err := pginfra.SeedContractStep(ctx, db, step)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"id": id, "title": step.Title}).Info("seeded contract step")
	return nil
}
