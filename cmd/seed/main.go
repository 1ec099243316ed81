// Command seed replaces every listing with the sample data set. The samples
// are owned by the user named by SEED_OWNER_ID.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/pkg/logger/zerolog"
	"github.com/duynhne/wanderlust/config"
	"github.com/duynhne/wanderlust/internal/core"
	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/internal/core/storage"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Configuration load failed: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}
	zerolog.Setup(cfg.Logging.Level)

	ownerID := strings.TrimSpace(os.Getenv("SEED_OWNER_ID"))
	if !domain.ValidID(ownerID) {
		log.Fatal().Str("owner_id", ownerID).Msg("SEED_OWNER_ID must be a valid user id")
	}
	if cfg.Database.Driver == core.DriverMemory {
		log.Warn().Msg("Seeding the in-memory store; the data is discarded on exit")
	}

	ctx, cancel := context.WithTimeout(zerolog.WithContext(context.Background()), time.Minute)
	defer cancel()

	store, err := core.Open(ctx, core.Options{
		Driver:            cfg.Database.Driver,
		DatabaseURL:       cfg.Database.URL,
		MongoDatabase:     cfg.Database.MongoDatabase,
		MongoTransactions: cfg.Database.MongoTransactions,
		SessionStore:      core.SessionStoreMemory,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Store close error")
		}
	}()

	owner, err := store.Users.GetByID(ctx, ownerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to look up owner")
	}
	if owner == nil {
		log.Warn().Str("owner_id", ownerID).Msg("Owner does not exist; listings will show no owner")
	}

	listings := logicv1.NewListingService(store.Listings, store.Reviews, store.Users, storage.NewMemoryStore(), cfg.GetWriteTimeoutDuration())
	n, err := listings.Reseed(ctx, sampleListings, ownerID)
	if err != nil {
		log.Fatal().Err(err).Int("inserted", n).Msg("Seeding failed")
	}
	log.Info().Int("inserted", n).Str("owner_id", ownerID).Msg("Sample listings seeded")
}
