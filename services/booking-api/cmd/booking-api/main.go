package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptbook/libs/otel"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/accounts"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/catalog"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/handlers"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/storage"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/storage/memstore"
)

// store is what every component needs from either storage backend.
type store interface {
	accounts.Store
	catalog.Store
	booking.Store
}

func main() {
	_ = config.LoadDotEnv()
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}
	metrics.Register()

	var (
		st     store
		checks []runtime.ReadyCheck
	)
	switch cfg.StoreDriver {
	case driverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := memstore.New()
		st = mem
		checks = append(checks, runtime.ReadyCheck{Name: "store", Check: mem.Ping})
		if len(cfg.KafkaBrokers) > 0 {
			logger.Warn("outbox relay disabled for the in-memory store")
		}
	default:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultOptions())
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		if cfg.AutoMigrate {
			if err := storage.Migrate(ctx, pool); err != nil {
				logger.Error("db migration failed", "err", err)
				panic(err)
			}
		}
		st = storage.New(pool)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		if len(cfg.KafkaBrokers) > 0 {
			writer := outbox.NewKafkaWriter(cfg.KafkaBrokers)
			defer writer.Close()
			publisher := outbox.NewPublisher(pool, outbox.NewRepository(), writer, logger, outbox.PublisherConfig{
				PollEvery: 2 * time.Second,
				BatchSize: 50,
				OnPublish: metrics.AddOutboxPublished,
			})
			go publisher.Run(ctx)
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		} else {
			logger.Warn("outbox relay disabled (no kafka brokers configured)")
		}
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Issuer:        cfg.ServiceName,
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		logger.Error("failed to init token issuer", "err", err)
		panic(err)
	}

	clients, err := httpx.NewClientIP(cfg.TrustedProxies)
	if err != nil {
		panic(err)
	}
	var authLimiter httpx.Middleware
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		authLimiter = httpx.NewRedisRateLimiter(rdb, cfg.AuthRatePerMinute, time.Minute, cfg.ServiceName+":auth", clients).
			Middleware(logger, cfg.RateLimitFailOpen)
	} else {
		authLimiter = httpx.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute, clients).Middleware()
	}

	api := handlers.NewAPI(
		accounts.NewService(st, issuer, accounts.Config{BcryptCost: cfg.BcryptCost}),
		catalog.New(st, nil),
		booking.NewEngine(st, nil),
		issuer,
		logger,
		cfg.CookieSecure,
	)
	mux := api.Routes(handlers.RouterConfig{
		AuthLimiter: authLimiter,
		ReadyChecks: checks,
		Metrics:     metrics.Handler(),
	})

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(func(r *http.Request, v any) {
			logger.Error("panic recovered", "panic", v, "request_id", httpx.RequestIDFromContext(r.Context()))
		}),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   cfg.ClientOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", httpx.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithSecurityHeaders,
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	handler = otelhttp.NewHandler(handler, cfg.ServiceName)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("http server error", "err", err)
	}
}
