// Command server runs the PlayMarket HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/config"
	"github.com/LulDrako/playmarket-docker/internal/docstore"
	"github.com/LulDrako/playmarket-docker/internal/events"
	httpapi "github.com/LulDrako/playmarket-docker/internal/http"
	"github.com/LulDrako/playmarket-docker/internal/observability"
	"github.com/LulDrako/playmarket-docker/internal/repo"
	"github.com/LulDrako/playmarket-docker/internal/services"
	"github.com/LulDrako/playmarket-docker/internal/sysutil"
)

// janitorEvery is how often expired idempotency keys are purged.
const janitorEvery = 10 * time.Minute

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(c)
	}()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			EnableTracing:    true,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
			Environment:      cfg.Env,
			Release:          cfg.Version,
		}); err != nil {
			log.Error().Err(err).Msg("sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db := mustOpenDB(cfg)
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	client, docs := openDocs(ctx, cfg)
	if client != nil {
		defer func() { _ = client.Disconnect(context.Background()) }()
	}

	publisher := openEvents(ctx, cfg, docs)
	defer func() { _ = publisher.Close() }()

	go runJanitor(ctx, &services.OrderService{DB: db})

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:     db,
		Docs:   docs,
		Tokens: auth.NewTokenService(cfg.JWT),
		Events: publisher,
	}, cfg)

	srv := httpapi.NewServer(r, cfg)
	if err := httpapi.Serve(ctx, srv, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}

func mustOpenDB(cfg config.Config) *gorm.DB {
	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("database connection failed")
	}
	if cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("relational store ready")
	return db
}

// openDocs connects the document store. The API keeps serving the catalog
// without it, so failures are logged rather than fatal.
func openDocs(ctx context.Context, cfg config.Config) (*mongo.Client, *docstore.Store) {
	client, docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Warn().Err(err).Msg("document store unavailable, /mongo routes disabled")
		return nil, nil
	}
	if err := docs.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("document store indexes not ensured")
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("document store ready")
	return client, docs
}

// openEvents dials the broker when configured and starts the purchase
// consumer when enabled and a document store is present.
func openEvents(ctx context.Context, cfg config.Config, docs *docstore.Store) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.NopPublisher{}
	}
	pub, err := events.DialPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		log.Warn().Err(err).Msg("broker unavailable, order events disabled")
		return events.NopPublisher{}
	}
	if cfg.AMQP.ConsumerEnabled && docs != nil {
		msgs, _, err := events.Subscribe(pub.Conn(), cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			log.Warn().Err(err).Msg("activity consumer not started")
		} else {
			consumer := &events.PurchaseConsumer{Store: docs}
			go consumer.Run(ctx, msgs)
			log.Info().Str("queue", cfg.AMQP.Queue).Msg("activity consumer started")
		}
	}
	return pub
}

func runJanitor(ctx context.Context, orders *services.OrderService) {
	t := time.NewTicker(janitorEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := orders.PurgeExpiredKeys(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
