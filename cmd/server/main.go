package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/recommend_shop/internal/config"
	"github.com/Skotchmaster/recommend_shop/internal/db"
	"github.com/Skotchmaster/recommend_shop/internal/es"
	"github.com/Skotchmaster/recommend_shop/internal/events"
	"github.com/Skotchmaster/recommend_shop/internal/httpserver"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/repo"
	"github.com/Skotchmaster/recommend_shop/internal/service"
	"github.com/Skotchmaster/recommend_shop/internal/service/recommend"
)

type store interface {
	service.UserRepository
	service.RefreshTokenRepository
	httpserver.Pinger
}

type publisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	cfg := config.Load()
	cfg.MustValid()

	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx := logging.IntoContext(context.Background(), log)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	esClient, err := es.NewClient(initCtx, cfg)
	cancel()
	if err != nil {
		log.Error("es_init_failed", "error", err)
		os.Exit(1)
	}

	var (
		users   store
		closeDB = func() error { return nil }
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		gdb, err := db.Open(initCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Error("db_init_failed", "error", err)
			os.Exit(1)
		}
		users = repo.NewGormRepo(gdb)
		closeDB = func() error { return db.Close(gdb) }
	case config.BackendElasticsearch:
		users = repo.NewESRepo(esClient, cfg.UsersIndex, cfg.RefreshTokensIndex)
	}

	var pub publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		pub = p
	} else {
		log.Info("events_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	auth := &service.AuthService{
		Credentials: &service.CredentialStore{
			Users:    users,
			ResetTTL: cfg.ResetTokenTTL,
		},
		Tokens: &service.TokenIssuer{
			Tokens:     users,
			Users:      users,
			JWTSecret:  cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
		Events:          pub,
		UserEventsTopic: cfg.UserEventsTopic,
		EventTimeout:    cfg.EventTimeout,
	}

	e := httpserver.New(&httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: auth},
		RecommendHandler: &httpserver.RecommendHTTP{Svc: &recommend.Service{
			ES:              esClient,
			ProductsIndex:   cfg.ProductsIndex,
			OrderItemsIndex: cfg.OrderItemsIndex,
		}},
		Checks: map[string]httpserver.Pinger{
			"store":  users,
			"search": httpserver.PingFunc(esPing(esClient)),
		},
		JWTSecret: cfg.JWTSecret,
		RateLimit: cfg.AuthRateLimit,
		RateBurst: cfg.AuthRateBurst,
		Logger:    log,
	})

	go func() {
		log.Info("server_starting", "addr", cfg.Addr(), "store", cfg.StoreBackend)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", "error", err)
	}
	if err := closeDB(); err != nil {
		log.Error("db_close_failed", "error", err)
	}
	if err := pub.Close(); err != nil {
		log.Error("kafka_close_failed", "error", err)
	}

	log.Info("shutdown_complete")
}

func esPing(client *elasticsearch.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := client.Ping(client.Ping.WithContext(ctx))
		return es.Decode(res, err, nil)
	}
}
