package main

import (
	"context"
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/config"
	"github.com/kasap-ot/thesis-project/internal/logging"
	"github.com/kasap-ot/thesis-project/internal/store"
)

// Applies the embedded schema migrations, or rolls back with -down N.
func main() {
	down := flag.Int("down", 0, "number of migrations to roll back")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Production())

	db, err := store.NewDB(context.Background(), cfg.DatabaseURL, store.Options{MaxOpenConns: 1})
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	defer db.Close()

	if *down > 0 {
		if err := store.Rollback(db.Client.DB, *down); err != nil {
			log.WithError(err).Fatal("rollback failed")
		}
		log.WithField("steps", *down).Info("rolled back")
		return
	}
	if err := store.Migrate(db.Client.DB); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}
}
