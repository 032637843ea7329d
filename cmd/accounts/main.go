package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/identity"
	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/application/username"
	"github.com/SiameseJames22/2DWORLD/internal/config"
	httprouter "github.com/SiameseJames22/2DWORLD/internal/infrastructure/http"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/http/handlers"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/http/middleware"
	identityclient "github.com/SiameseJames22/2DWORLD/internal/infrastructure/identity"
	identitymemory "github.com/SiameseJames22/2DWORLD/internal/infrastructure/identity/memory"
	storememory "github.com/SiameseJames22/2DWORLD/internal/infrastructure/persistence/memory"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/persistence/postgres"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/queue"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()

	var pool *pgxpool.Pool
	var docStore ports.DocStore
	if cfg.Database.URL != "" {
		pool, err = pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("ping database")
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("ensure schema")
		}
		docStore = postgres.NewDocStore(pool, log)
	} else {
		log.Warn().Msg("DATABASE_URL not set; using in-memory document store")
		docStore = storememory.NewDocStore()
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	var taskEnqueuer ports.TaskEnqueuer
	var asynqWorker *queue.Worker
	if redisClient != nil && cfg.Webhook.URL != "" {
		redisOpt, _ := redis.ParseURL(cfg.Redis.URL)
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq, err := queue.NewAsynqEnqueuer(asynqOpt, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create asynq enqueuer")
		}
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq

		var emitter ports.WebhookEmitter
		opts := []webhook.HTTPEmitterOption{}
		if cfg.Webhook.AuthToken != "" {
			opts = append(opts, webhook.WithHeader("Authorization", "Bearer "+cfg.Webhook.AuthToken))
		}
		emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, opts...)
		asynqWorker = queue.NewWorker(asynqOpt, emitter, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		taskEnqueuer = queue.NewNoopEnqueuer()
	}

	var provider ports.Provider
	var widgets ports.WidgetFactory
	if cfg.Identity.BaseURL != "" {
		client := identityclient.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey, cfg.Identity.Timeout, log)
		provider = client
		widgets = client
	} else {
		log.Warn().Msg("IDENTITY_BASE_URL not set; using in-process dev identity provider")
		dev := identitymemory.NewProvider(log)
		provider = dev
		widgets = dev
	}

	claims := username.NewService(docStore, log)
	sessionRegistry := middleware.NewSessionRegistry(
		[]byte(cfg.Session.Secret),
		cfg.Session.CookieName,
		cfg.Session.TTL,
		!cfg.Secure.IsDevelopment,
		func() *identity.Session {
			return identity.NewSession(provider, claims, widgets, log)
		},
		log,
	)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionRegistry.Sweep()
			middleware.RecordLiveSessions(sessionRegistry.Len())
		}
	}()

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment))
	corsMiddleware := middleware.CORS(cfg.CORS.AllowedOrigins, nil, nil)

	accountsHandler := handlers.NewAccountsHandler(taskEnqueuer, log)
	healthHandler := handlers.NewHealthHandler(pool, redisClient)
	router := httprouter.NewRouter(httprouter.RouterConfig{
		AccountsHandler: accountsHandler,
		HealthHandler:   healthHandler,
		Sessions:        sessionRegistry,
		Log:             log,
		Secure:          secureMiddleware,
		CORS:            corsMiddleware,
		IPRateLimit:     ipLimit,
		Metrics:         true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}
