// Command seed loads the demo catalog and the game details documents.
//
// Usage:
//
//	seed [-games] [-reset=false]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/LulDrako/playmarket-docker/internal/config"
	"github.com/LulDrako/playmarket-docker/internal/docstore"
	"github.com/LulDrako/playmarket-docker/internal/repo"
	"github.com/LulDrako/playmarket-docker/internal/sysutil"
)

func main() {
	withGames := flag.Bool("games", false, "insert the demo catalog when the games table is empty")
	reset := flag.Bool("reset", true, "delete existing game details before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	data, err := loadSeed(seedJSON)
	if err != nil {
		log.Fatal().Err(err).Msg("seed data")
	}

	if *withGames {
		db, err := repo.Open(cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		n, err := seedGames(ctx, db, data.Games)
		if err != nil {
			log.Fatal().Err(err).Msg("seeding games failed")
		}
		log.Info().Int("games", n).Msg("demo catalog seeded")
	}

	client, docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("document store connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := docs.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("document store indexes")
	}
	n, err := seedDetails(ctx, docs, data.Details, *reset)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding game details failed")
	}
	log.Info().Int("details", n).Msg("game details seeded")
}
