package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/vudy/otc-desk/internal/events"
	"github.com/vudy/otc-desk/internal/facades"
	"github.com/vudy/otc-desk/internal/handlers"
	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/middlewares"
	"github.com/vudy/otc-desk/internal/repositories"
	"github.com/vudy/otc-desk/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title otc-desk API
// @version 1.0.0
// @description OTC fiat/crypto trade brokering service
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// config holds all application settings resolved from the environment.
type config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDatabase     string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	APIKeyCacheTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	IdentityBaseURL string
	StreamKey       string

	JWTSecretKey string
	JWTExpSecond int
}

// parseConfig loads environment variables from a file and resolves all
// application, database, Redis, Kafka, identity, and JWT configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDatabase = getEnv("POSTGRES_DB", "otcdesk")
	if cfg.PGPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	if cfg.RedisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPoolSize, err = strconv.Atoi(getEnv("REDIS_POOL_SIZE", "10")); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = strconv.Atoi(getEnv("REDIS_MIN_IDLE_CONNS", "2")); err != nil {
		return
	}
	ttlSecond, convErr := strconv.Atoi(getEnv("API_KEY_CACHE_TTL_SECOND", "300"))
	if convErr != nil {
		err = convErr
		return
	}
	cfg.APIKeyCacheTTL = time.Duration(ttlSecond) * time.Second

	// Kafka config
	cfg.KafkaBrokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "otc.trade.events")

	// Identity provider config
	cfg.IdentityBaseURL = getEnv("VUDY_BASE_URL", "http://localhost:9000")

	// Event stream config
	cfg.StreamKey = getEnv("STREAM_KEY", "")

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if cfg.JWTExpSecond, err = strconv.Atoi(getEnv("JWT_EXP_SECOND", "3600")); err != nil {
		return
	}

	return
}

// run initializes the logger, database, Redis, Kafka, identity facade, and
// HTTP server. It sets up routes, applies middleware, and handles graceful
// shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		logger.Log.Fatal("PostgreSQL connection error:", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Log.Fatal("PostgreSQL ping failed:", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Fatal("Redis connection error:", err)
	}
	defer rdb.Close()

	// Kafka writer for the durable trade event export
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer kafkaWriter.Close()

	// In-process event bus for live dashboards
	bus := events.NewBus()

	// External identity provider
	identity := facades.NewIdentityFacade(cfg.IdentityBaseURL)

	// Session tokens
	sessionJWT := jwt.New(
		jwt.WithSecretKey(cfg.JWTSecretKey),
		jwt.WithExpiration(time.Duration(cfg.JWTExpSecond)*time.Second),
	)

	// Initialize repositories
	txWriterRepo := repositories.NewTransactionWriterRepository(db, middlewares.GetTxFromContext)
	txReaderRepo := repositories.NewTransactionReaderRepository(db)
	offerWriterRepo := repositories.NewOfferWriterRepository(db, middlewares.GetTxFromContext)
	offerReaderRepo := repositories.NewOfferReaderRepository(db)
	notificationWriterRepo := repositories.NewNotificationWriterRepository(db, middlewares.GetTxFromContext)
	notificationReaderRepo := repositories.NewNotificationReaderRepository(db)
	apiKeyRepo := repositories.NewAPIKeyReaderRepository(db)
	apiKeyCache := repositories.NewAPIKeyCacheRepository(rdb, cfg.APIKeyCacheTTL)

	// Initialize services
	lifecycleService := services.NewLifecycleService(
		txWriterRepo, txReaderRepo,
		offerWriterRepo, offerReaderRepo,
		notificationWriterRepo,
		bus, kafkaWriter,
	)
	notificationService := services.NewNotificationService(notificationReaderRepo, notificationWriterRepo)
	authService := services.NewAuthService(identity, sessionJWT)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/otp", handlers.NewOTPRequestHandler(authService))
		r.Post("/auth/verify", handlers.NewOTPVerifyHandler(authService))
		r.Get("/events", handlers.NewEventsHandler(bus, cfg.StreamKey))

		// External API-key surface
		r.Group(func(r chi.Router) {
			r.Use(middlewares.APIKeyMiddleware(apiKeyRepo, apiKeyCache))
			r.Use(middlewares.TxMiddleware(db))
			r.Post("/external/transactions", handlers.NewExternalCreateHandler(lifecycleService))
		})

		// Session routes
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(sessionJWT))

			r.Get("/transactions", handlers.NewListTransactionsHandler(lifecycleService, sessionJWT))
			r.Get("/transactions/{id}", handlers.NewGetTransactionHandler(lifecycleService, sessionJWT))
			r.Get("/transactions/{id}/offers", handlers.NewListOffersHandler(lifecycleService, sessionJWT))

			r.Get("/notifications", handlers.NewListNotificationsHandler(notificationService, sessionJWT))
			r.Post("/notifications/{id}/read", handlers.NewMarkNotificationReadHandler(notificationService, sessionJWT))
			r.Post("/notifications/read-all", handlers.NewMarkAllNotificationsReadHandler(notificationService, sessionJWT))

			// Lifecycle mutations run inside one request-scoped store transaction
			r.Group(func(r chi.Router) {
				r.Use(middlewares.TxMiddleware(db))
				r.Post("/transactions", handlers.NewCreateTransactionHandler(lifecycleService, sessionJWT))
				r.Patch("/transactions/{id}", handlers.NewPatchTransactionHandler(lifecycleService, sessionJWT))
				r.Post("/transactions/{id}/offers", handlers.NewSubmitOfferHandler(lifecycleService, sessionJWT))
				r.Post("/transactions/{id}/accept", handlers.NewAcceptOfferHandler(lifecycleService, sessionJWT))
				r.Post("/transactions/{id}/proof", handlers.NewUploadProofHandler(lifecycleService, sessionJWT))
				r.Post("/transactions/{id}/validate", handlers.NewValidateTransactionHandler(lifecycleService, sessionJWT))
			})
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
