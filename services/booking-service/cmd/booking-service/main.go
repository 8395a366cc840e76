package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/barberbook/barberbook/libs/auth"
	"github.com/barberbook/barberbook/libs/db"
	"github.com/barberbook/barberbook/libs/grpcx"
	"github.com/barberbook/barberbook/libs/httpx"
	"github.com/barberbook/barberbook/libs/kafkax"
	otelx "github.com/barberbook/barberbook/libs/otel"
	"github.com/barberbook/barberbook/libs/runtime"
	"github.com/barberbook/barberbook/services/booking-service/internal/availability"
	"github.com/barberbook/barberbook/services/booking-service/internal/booking"
	"github.com/barberbook/barberbook/services/booking-service/internal/handlers"
	"github.com/barberbook/barberbook/services/booking-service/internal/outbox"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := db.Migrate(ctx, pool, storage.Migrations(), logger); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}

	outboxRepo := outbox.NewRepository(pool)
	repo := storage.NewRepository(pool, outboxRepo)

	engine := booking.NewEngine(repo, logger, booking.WithLocation(cfg.Location))
	resolver := availability.NewResolver(repo, cfg.Location, time.Now)

	publisher := outbox.NewPublisher(outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	if publisher.Enabled() {
		go publisher.Run(ctx)
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox events stay pending")
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.TokenTTL, cfg.Service)
	if err != nil {
		logger.Error("failed to init jwt signer", "err", err)
		panic(err)
	}

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if len(cfg.KafkaBrokers) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}

	limit, rdb := rateLimit(ctx, cfg, logger)
	if rdb != nil {
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	api := handlers.New(handlers.Config{
		Engine:      engine,
		Resolver:    resolver,
		Business:    repo,
		Services:    repo,
		Admins:      repo,
		Signer:      signer,
		Logger:      logger,
		HorizonDays: cfg.HorizonDays,
	})

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/api/", api.Routes(limit))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.PublicAPIPolicy(cfg.CORSOrigins)),
		httpx.WithBodyLimit(int64(cfg.BodyLimitBytes)),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	handler = otelhttp.NewHandler(handler, "booking")

	grpcSrv := grpcx.NewServer(logger)
	health := grpcx.RegisterHealth(grpcSrv, cfg.Service, logger, checks...)
	go health.Run(ctx, 10*time.Second)
	go func() {
		if err := grpcx.Serve(ctx, logger, grpcSrv, ":"+cfg.GRPCPort); err != nil {
			logger.Error("grpc server error", "err", err)
			stop()
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.ServeHTTP(ctx, logger, srv, 10*time.Second); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server exited", "err", err)
	}
}

// rateLimit picks the shared Redis limiter when REDIS_ADDR is set and falls
// back to a per-process token bucket otherwise.
func rateLimit(ctx context.Context, cfg appConfig, logger *slog.Logger) (httpx.Middleware, *redis.Client) {
	if cfg.RedisAddr == "" {
		rl := httpx.NewRateLimiter(cfg.RatePerMinute, cfg.RatePerMinute/3+1)
		go rl.Janitor(ctx, time.Minute)
		return rl.Middleware(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	rl := httpx.NewRedisRateLimiter(rdb, cfg.RatePerMinute, time.Minute, "barberbook:rl")
	logger.Info("rate limiter backed by redis", "addr", cfg.RedisAddr)
	return rl.Middleware(logger, cfg.RateFailOpen), rdb
}
