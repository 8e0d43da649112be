package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/microblog/internal/config"
	"github.com/sbilibin2017/microblog/internal/handlers"
	"github.com/sbilibin2017/microblog/internal/jwt"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/migrations"
	"github.com/sbilibin2017/microblog/internal/repositories"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/sbilibin2017/microblog/internal/views"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sbilibin2017/microblog/docs"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title microblog API
// @version 1.0.0
// @description JSON API of the microblog: feed, microposts and follows
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// run connects to PostgreSQL, Redis and optionally Kafka, serves the HTML
// site, the JSON API and the gRPC health service, and shuts down gracefully
// when ctx is cancelled or a termination signal arrives.
func run(ctx context.Context, cfg *config.Config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	logger.Log.Infow("Connecting to PostgreSQL", "host", cfg.PostgresHost, "port", cfg.PostgresPort, "db", cfg.PostgresDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)

	if err := migrations.Up(ctx, db.DB); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
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
		return fmt.Errorf("redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka is optional
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
		defer w.Close()
		kafkaWriter = w
		logger.Log.Infow("Publishing events to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize JWT service
	tokens := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey))

	// Initialize repositories
	txGetter := repositories.TxGetter(middlewares.GetTxFromContext)
	userReadRepo := repositories.NewUserReadRepository(db, txGetter)
	userWriteRepo := repositories.NewUserWriteRepository(db, txGetter)
	micropostReadRepo := repositories.NewMicropostReadRepository(db, txGetter)
	micropostWriteRepo := repositories.NewMicropostWriteRepository(db, txGetter)
	relationshipRepo := repositories.NewRelationshipRepository(db, txGetter)
	sessionRepo := repositories.NewSessionRepository(rdb)
	signinLimiter := repositories.NewRateLimitRepository(rdb, "signin", cfg.SigninRateCap, cfg.SigninRatePS)

	// Initialize services
	events := services.NewEventPublisher(kafkaWriter)
	authService := services.NewAuthService(userReadRepo, userWriteRepo, sessionRepo, tokens, events,
		services.WithSessionExpiration(cfg.SessionExp),
		services.WithRememberExpiration(cfg.RememberExp),
		services.WithAPITokenExpiration(cfg.APITokenExp),
		services.WithSignInLimiter(signinLimiter),
	)
	userService := services.NewUserService(userReadRepo, userWriteRepo, micropostReadRepo, events, cfg.PageSize)
	micropostService := services.NewMicropostService(micropostWriteRepo, micropostReadRepo, events, cfg.PageSize)
	relationshipService := services.NewRelationshipService(relationshipRepo, events)

	renderer, err := views.New()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(middlewares.MethodOverride)

	r.Get("/healthz", handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": db,
		"redis":    handlers.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("%s/swagger/doc.json", cfg.BaseURL)),
	))

	// HTML site
	r.Group(func(r chi.Router) {
		r.Use(middlewares.TxMiddleware(db))
		r.Use(middlewares.SessionMiddleware(authService))

		r.Get("/", handlers.NewHomeHandler(renderer, userService, micropostService))
		r.Get("/about", handlers.NewStaticPageHandler(renderer, "about", "About"))
		r.Get("/contact", handlers.NewStaticPageHandler(renderer, "contact", "Contact"))
		r.Get("/help", handlers.NewStaticPageHandler(renderer, "help", "Help"))

		r.Get("/signup", handlers.NewSignupFormHandler(renderer))
		r.Post("/users", handlers.NewRegisterHandler(renderer, authService, authService, cfg.CookieSecure))
		r.Get("/users/{id}", handlers.NewUserShowHandler(renderer, userService, userService, micropostService, relationshipService))

		r.Get("/signin", handlers.NewSigninFormHandler(renderer))
		r.Post("/sessions", handlers.NewSigninHandler(renderer, authService, authService, cfg.CookieSecure))
		r.Delete("/signout", handlers.NewSignoutHandler(authService))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireSignIn)

			r.Get("/users", handlers.NewUsersIndexHandler(renderer, userService))
			r.Get("/users/{id}/following", handlers.NewFollowingHandler(renderer, userService, userService, userService))
			r.Get("/users/{id}/followers", handlers.NewFollowersHandler(renderer, userService, userService, userService))

			r.With(middlewares.RequireCorrectUser).Get("/users/{id}/edit", handlers.NewUserEditHandler(renderer))
			r.With(middlewares.RequireCorrectUser).Put("/users/{id}", handlers.NewUserUpdateHandler(renderer, userService))
			r.With(middlewares.RequireAdmin).Delete("/users/{id}", handlers.NewUserDestroyHandler(userService))

			r.Post("/microposts", handlers.NewMicropostCreateHandler(renderer, micropostService, userService, micropostService))
			r.Delete("/microposts/{id}", handlers.NewMicropostDestroyHandler(micropostService))

			r.Post("/relationships", handlers.NewFollowHandler(relationshipService))
			r.Delete("/relationships/{id}", handlers.NewUnfollowHandler(relationshipService))
		})
	})

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.TxMiddleware(db))

		r.Post("/login", handlers.NewLoginHandler(authService))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.APIAuthMiddleware(tokens, authService))

			r.Get("/feed", handlers.NewAPIFeedHandler(micropostService))
			r.Post("/microposts", handlers.NewAPICreateMicropostHandler(micropostService))
			r.Delete("/microposts/{id}", handlers.NewAPIDeleteMicropostHandler(micropostService))
			r.Post("/users/{id}/follow", handlers.NewAPIFollowHandler(relationshipService))
			r.Delete("/users/{id}/follow", handlers.NewAPIUnfollowHandler(relationshipService))
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: r,
	}

	// gRPC health service
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.AppHost, cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen for grpc: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Graceful shutdown
	errChan := make(chan error, 2)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	go func() {
		logger.Log.Infof("gRPC health service listening on %s:%s", cfg.AppHost, cfg.GRPCPort)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("grpc server failed: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping servers...")
	case serveErr = <-errChan:
	}

	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	if serveErr != nil {
		return serveErr
	}
	logger.Log.Info("Servers stopped gracefully")
	return nil
}
