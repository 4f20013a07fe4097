package main

import (
	"log"

	"github.com/finvoice/finvoice/internal/config"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
	"github.com/finvoice/finvoice/migrations"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.NewLogger(logger.Config{Level: cfg.Logging.Level})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	db, err := postgres.NewDB(cfg, l)
	if err != nil {
		l.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if _, err := db.DB.Exec(migrations.Schema); err != nil {
		l.Fatalf("failed to apply schema: %v", err)
	}

	l.Info("schema applied")
}
