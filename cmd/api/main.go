package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/audit"
	"github.com/noah-isme/backend-kasir/internal/cache"
	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/discount"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/health"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/order"
	"github.com/noah-isme/backend-kasir/internal/printer"
	"github.com/noah-isme/backend-kasir/internal/queue"
	"github.com/noah-isme/backend-kasir/internal/ratelimit"
	"github.com/noah-isme/backend-kasir/internal/receipt"
	"github.com/noah-isme/backend-kasir/internal/report"
	"github.com/noah-isme/backend-kasir/internal/security"
)

const metricsNamespace = "kasir"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := "json"
	if !cfg.IsProduction() {
		logFormat = "console"
	}
	logger := obs.NewLogger(logFormat, cfg.LogLevel).With().Str("env", cfg.Env).Logger()

	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			Enabled:     true,
			Endpoint:    cfg.TracingEndpoint,
			Insecure:    cfg.TracingInsecure,
			ServiceName: "kasir-api",
			SampleRatio: cfg.TracingSampleRatio,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
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

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "kasir-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
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

	discountStore := &discount.Store{Pool: pool}
	catalogStore := &catalog.Store{Pool: pool}
	catalogSvc, err := catalog.NewService(catalogStore, cache.New(redisClient, cfg.CatalogCacheTTL), discountStore)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	cartSvc := &cart.Service{
		R:           redisClient,
		Catalog:     catalogSvc,
		Discounts:   discountStore,
		TTL:         cfg.CartTTL,
		TaxBps:      cfg.TaxRateBps,
		GratuityBps: cfg.GratuityRateBps,
	}

	bus := &events.Bus{Store: &events.PGStore{Pool: pool}}

	orderSvc := &order.Service{
		Repo:        &order.Store{Pool: pool},
		Carts:       cartSvc,
		Usage:       catalogStore,
		Bus:         bus,
		Locks:       &lock.Locker{R: redisClient},
		Log:         logger,
		TaxBps:      cfg.TaxRateBps,
		GratuityBps: cfg.GratuityRateBps,
	}

	receiptOpts := receipt.Options{StoreName: "Kasir"}

	printEnq := queue.Enqueuer{
		R:           redisClient,
		Prefix:      cfg.PrintQueueName,
		DedupTTL:    cfg.IdempotencyTTL,
		MaxAttempts: cfg.PrintMaxAttempts,
	}
	if cfg.PrinterBridgeURL != "" {
		bus.Notifiers = append(bus.Notifiers, printer.Spooler{
			Q:      printEnq,
			Orders: orderSvc,
			Opts:   receiptOpts,
			Log:    logger,
		})
	} else {
		logger.Warn().Msg("printer bridge not configured, print spooling disabled")
	}

	reportSvc := &report.Service{
		Orders: orderSvc,
		Pool:   pool,
		Cache:  cache.New(redisClient, cfg.ReportCacheTTL),
	}

	dlqStore := queue.NewStore(pool)
	queueAdmin := &queue.AdminHandler{
		Store:             dlqStore,
		Queue:             printEnq,
		VisibilityTimeout: cfg.PrintVisibility,
	}

	auditSvc := &audit.Service{Store: audit.NewStore(pool), Enabled: true}
	recorder := audit.HTTPRecorder{
		Service: auditSvc,
		OnError: func(err error) { logger.Error().Err(err).Msg("audit record failed") },
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:"},
		Config: ratelimit.Config{
			Key:    rateLimitKey,
			Window: cfg.RateLimitTTL,
			Max:    cfg.RateLimitBurst,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter error") },
	}

	catalogHandler := &catalog.Handler{Svc: catalogSvc, Validate: validate}
	discountHandler := &discount.Handler{Store: discountStore, Validate: validate}
	cartHandler := &cart.Handler{Svc: cartSvc}
	orderHandler := &order.Handler{Svc: orderSvc}
	reportHandler := &report.Handler{Svc: reportSvc}
	auditHandler := audit.Handler{Store: auditSvc.Store}

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsCSV), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.IsProduction(), EnableHSTS: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", common.CashierHeader},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(common.CashierMiddleware)
	r.Use(limiter.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	if cfg.PProfEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PProfUser, cfg.PProfPass))
	}

	healthHandler := health.Handler{Checker: readinessChecker{db: pool, redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	receiptHandler := receipt.Handler{Orders: orderSvc, Opts: receiptOpts}

	r.Route("/api/v1", func(v chi.Router) {
		catalogHandler.PublicRoutes(v)
		v.Get("/discounts", discountHandler.Active)

		v.Route("/carts", func(c chi.Router) {
			c.Use(idem.Middleware)
			cartHandler.Routes(c)
		})

		v.Route("/orders", func(o chi.Router) {
			o.Use(idem.Middleware)
			orderHandler.Routes(o)
			o.Get("/{id}/receipt", receiptHandler.Get)
		})

		v.Route("/reports", reportHandler.Routes)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(recorder.Middleware(audit.HTTPConfig{}))
			catalogHandler.AdminRoutes(admin)
			admin.Route("/discounts", discountHandler.Routes)
			admin.Route("/queue", queueAdmin.Routes)
			admin.Get("/audit-logs", auditHandler.List)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	<-done
}

func rateLimitKey(r *http.Request) string {
	if cashierID, ok := common.CashierID(r.Context()); ok && cashierID != "" {
		return "cashier:" + cashierID
	}
	return "ip:" + strings.TrimSpace(r.RemoteAddr)
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
