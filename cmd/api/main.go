// Command api serves the estimate system HTTP API.
//
// @title                       Estimate System API
// @version                     1.0
// @description                 Multi-tenant estimates for traders: customers, catalog, pricing and dashboards.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	_ "github.com/quotebook/estimate-system/docs"
	"github.com/quotebook/estimate-system/internal/api"
	"github.com/quotebook/estimate-system/internal/api/handler"
	"github.com/quotebook/estimate-system/internal/core/ports"
	"github.com/quotebook/estimate-system/internal/infrastructure/db/mongo"
	"github.com/quotebook/estimate-system/internal/infrastructure/db/redis"
	"github.com/quotebook/estimate-system/internal/infrastructure/messaging/rabbitmq"
	"github.com/quotebook/estimate-system/internal/infrastructure/queue"
	"github.com/quotebook/estimate-system/internal/pkg/config"
	"github.com/quotebook/estimate-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "estimate-api",
	})

	// money renders as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	checks := map[string]handler.HealthCheck{"mongodb": handler.MongoCheck(db)}

	var cache ports.PrincipalCache
	if cfg.Redis.Addr != "" {
		var rdb *goredis.Client
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		cache = redis.NewPrincipalCache(rdb)
		checks["redis"] = handler.RedisCheck(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, principal cache disabled")
	}

	var publisher ports.Publisher
	if cfg.AMQP.URL != "" {
		publisher, err = rabbitmq.NewPublisher(rabbitmq.Config{URL: cfg.AMQP.URL, Queue: cfg.AMQP.Queue}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
	} else {
		log.Warn().Msg("AMQP_URL not set, notifications will only be logged")
		publisher = rabbitmq.NewLogPublisher(log)
	}
	defer publisher.Close()

	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, publisher, log.With().Str("component", "notifications").Logger())
	dispatcher.Start(ctx)

	svc := api.NewServices(api.Repositories{
		Users:     mongo.NewUserRepository(db),
		Customers: mongo.NewCustomerRepository(db),
		Brands:    mongo.NewBrandRepository(db),
		Items:     mongo.NewItemRepository(db),
		Estimates: mongo.NewEstimateRepository(db),
		Sequence:  mongo.NewEstimateSequence(db),
		Dashboard: mongo.NewDashboardRepository(db),
	}, api.ServiceConfig{
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.JWTTTL,
		Cache:        cache,
		PrincipalTTL: cfg.Redis.PrincipalTTL,
		Notifier:     dispatcher,
		Logger:       log,
	})

	if cfg.Seed.AdminEmail != "" && cfg.Seed.AdminPassword != "" {
		if err := svc.Auth.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin account")
		}
	}

	e := api.NewRouter(svc, api.RouterConfig{
		JWTSecret:    cfg.JWTSecret,
		HealthChecks: checks,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
