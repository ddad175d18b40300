package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/auth"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/config"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/customer"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/db"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/discount"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/events"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/health"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/invoice"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/jobs"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/ledger"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/obs"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/pricelist"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/product"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/ratelimit"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/report"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/security"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/voucher"
)

func main() {
	cfg := config.MustLoad()

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "accounting-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	authService, err := auth.NewService(auth.Config{
		Repo:            &auth.PgRepo{Pool: pool},
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          cfg.JWTIssuer,
		Audience:        cfg.JWTAudience,
		ClockSkew:       30 * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authService, Validate: validate}
	authMiddleware := &auth.Middleware{Service: authService}

	reportCache := common.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := &report.Service{
		Repo:   &report.PgRepo{Pool: pool},
		Cache:  reportCache,
		Logger: logger,
	}
	reportHandler := &report.Handler{Service: reportService}

	bus := &events.Bus{
		Store:  &events.PgStore{Pool: pool},
		Logger: logger,
		Notifiers: []events.Notifier{
			events.LogNotifier{Logger: logger},
			events.CacheInvalidator{Cache: reportCache, Prefix: report.CachePrefix, Logger: logger},
		},
	}

	customerService := &customer.Service{Repo: &customer.PgRepo{Pool: pool}}
	customerHandler := &customer.Handler{Service: customerService, Validate: validate}

	productService := &product.Service{
		Repo:   &product.PgRepo{Pool: pool},
		Cache:  common.NewCache(redisClient, cfg.ProductCacheTTL),
		Logger: logger,
	}
	productHandler := &product.Handler{Service: productService, Validate: validate}
	productLookup := product.Lookup{Service: productService}

	pricelistService := &pricelist.Service{Repo: &pricelist.PgRepo{Pool: pool}}
	pricelistHandler := &pricelist.Handler{Service: pricelistService, Validate: validate}

	discountService := &discount.Service{Repo: &discount.PgRepo{Pool: pool}}
	discountHandler := &discount.Handler{Service: discountService, Validate: validate}

	ledgerService := &ledger.Service{Repo: &ledger.PgRepo{Pool: pool}}
	ledgerHandler := &ledger.Handler{Service: ledgerService, Validate: validate}

	invoiceService := &invoice.Service{
		Repo:          &invoice.PgRepo{Pool: pool, Prefix: cfg.InvoiceSeriesPrefix},
		Customers:     customerService,
		Products:      productLookup,
		Bus:           bus,
		Logger:        logger,
		TaxRates:      cfg.InvoiceTaxRates,
		DiscountRates: cfg.InvoiceDiscountRates,
	}
	invoiceHandler := &invoice.Handler{Service: invoiceService, Validate: validate}

	voucherService := &voucher.Service{
		Repo:      &voucher.PgRepo{Pool: pool, Prefix: cfg.VoucherSeriesPrefix},
		Customers: customerService,
		Products:  productLookup,
		Bus:       bus,
		Logger:    logger,
	}
	voucherHandler := &voucher.Handler{Service: voucherService, Validate: validate}

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close jobs client")
		}
	}()

	loginLimiter, err := ratelimit.New(redisClient, int64(cfg.LoginRateMax), cfg.LoginRateWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	loginRateLimit := ratelimit.Middleware(loginLimiter)

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics("accounting", buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(authMiddleware.Authenticate)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.NewHandler(pool, redisClient)
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(loginRateLimit).Post("/register", authHandler.Register)
			a.With(loginRateLimit).Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			protected.Route("/khachhang", func(c chi.Router) {
				c.Get("/", customerHandler.List)
				c.Post("/", customerHandler.Create)
				c.Get("/{makh}", customerHandler.Get)
				c.Put("/{makh}", customerHandler.Update)
				c.Delete("/{makh}", customerHandler.Delete)
			})

			protected.Route("/spdv", func(p chi.Router) {
				p.Get("/", productHandler.List)
				p.Post("/", productHandler.Create)
				p.Get("/{maspdv}", productHandler.Get)
				p.Put("/{maspdv}", productHandler.Update)
				p.Delete("/{maspdv}", productHandler.Delete)
				p.Get("/{maspdv}/gia", productHandler.Price)
			})

			protected.Route("/banggia", func(p chi.Router) {
				p.Post("/", pricelistHandler.Set)
				p.Get("/{maspdv}", pricelistHandler.History)
				p.Get("/{maspdv}/hienhanh", pricelistHandler.Latest)
				p.Delete("/{maspdv}/{ngayhl}", pricelistHandler.Delete)
			})

			protected.Route("/dinhmucck", func(d chi.Router) {
				d.Post("/", discountHandler.Set)
				d.Get("/{maspdv}", discountHandler.History)
				d.Get("/{maspdv}/apdung", discountHandler.Applicable)
				d.Delete("/{maspdv}/{ngayhl}", discountHandler.Delete)
			})

			protected.Route("/tkkt", func(l chi.Router) {
				l.Get("/", ledgerHandler.List)
				l.Post("/", ledgerHandler.Create)
				l.Get("/{matk}", ledgerHandler.Get)
				l.Put("/{matk}", ledgerHandler.Update)
				l.Delete("/{matk}", ledgerHandler.Delete)
			})

			protected.Route("/hoadon", func(i chi.Router) {
				i.Get("/", invoiceHandler.List)
				i.Post("/", invoiceHandler.Create)
				i.Get("/{soct}", invoiceHandler.Get)
				i.Put("/{soct}", invoiceHandler.Update)
				i.Delete("/{soct}", invoiceHandler.Delete)
				i.Get("/{soct}/pdf", invoiceHandler.PDF)
			})

			protected.Route("/phieugiamgia", func(g chi.Router) {
				g.Get("/", voucherHandler.List)
				g.Post("/", voucherHandler.Create)
				g.Get("/{sophieu}", voucherHandler.Get)
				g.Put("/{sophieu}", voucherHandler.Update)
				g.Delete("/{sophieu}", voucherHandler.Delete)
			})

			protected.Route("/baocao", func(b chi.Router) {
				b.Get("/doanhthu-khachhang", reportHandler.ByCustomer)
				b.Get("/doanhthu-sanpham", reportHandler.ByProduct)
				b.Get("/doanhthu-thang", reportHandler.ByMonth)
				b.Get("/tong-doanhthu", reportHandler.Total)
				b.Get("/top-sanpham", reportHandler.TopProducts)
				b.Get("/top-khachhang", reportHandler.TopCustomers)
			})
		})
	})

	// schedule an initial warmup so the report cache is hot right after boot
	if _, err := jobsClient.EnqueueReportWarmup(ctx, time.Now()); err != nil {
		logger.Warn().Err(err).Msg("enqueue report warmup")
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")
	gracefulCtx, cancelGraceful := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelGraceful()
	if err := srv.Shutdown(gracefulCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
