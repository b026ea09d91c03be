// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vehicle-booking-service/internal/config"
	"vehicle-booking-service/internal/db"
	bookingHandler "vehicle-booking-service/internal/handlers/booking"
	vehicleHandler "vehicle-booking-service/internal/handlers/vehicle"
	wsHandler "vehicle-booking-service/internal/handlers/websocket"
	"vehicle-booking-service/internal/middleware"
	"vehicle-booking-service/internal/pkg/jwt"
	"vehicle-booking-service/internal/repository/cache"
	"vehicle-booking-service/internal/repository/postgres"
	"vehicle-booking-service/internal/service/availability"
	bookingUsecase "vehicle-booking-service/internal/service/booking"
	vehicleUsecase "vehicle-booking-service/internal/service/vehicle"
	"vehicle-booking-service/internal/websocket"
	wsHandlers "vehicle-booking-service/internal/websocket/handler"
	"vehicle-booking-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg        config.AppConfig
	engine     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger

	pool        *pgxpool.Pool
	redisClient redis.UniversalClient

	// Cancels the hub and outbox worker
	stopBackground context.CancelFunc
	background     chan struct{}
}

func NewServer() *Server {
	cfg := config.Load()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New()}
}

// newLogger builds a production logger unless APP_ENV is development
func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = level

	return zcfg.Build()
}

// Init connects to the stores and wires every component
func (s *Server) Init(ctx context.Context) error {
	// ----- Logger -----
	logger, err := newLogger(s.cfg)
	if err != nil {
		return err
	}
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		URL:      s.cfg.DatabaseURL,
		MaxConns: s.cfg.DBMaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	dbWrapper := postgres.NewDB(pool)
	if err := dbWrapper.EnsureSchema(ctx); err != nil {
		return err
	}

	// ----- Redis -----
	redisClient, err := db.NewRedis(db.RedisConfig{
		ClusterMode: s.cfg.RedisCluster,
		Addresses:   s.cfg.RedisAddrs,
		Password:    s.cfg.RedisPass,
		DB:          s.cfg.RedisDB,
		PoolSize:    10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redisClient = redisClient
	logger.Info("connected to Redis", zap.Strings("addrs", s.cfg.RedisAddrs))

	// ----- JWT -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT keys: %w", err)
	}

	// ----- Repositories -----
	store := postgres.NewStore(dbWrapper, logger)
	availabilityCache := cache.NewAvailabilityCache(redisClient, s.cfg.AvailabilityCacheTTL)

	// ----- Services -----
	resolver := availability.NewResolver(store, availabilityCache, logger)
	bookingService := bookingUsecase.NewBookingService(store, resolver, availabilityCache, logger)
	vehicleService := vehicleUsecase.NewVehicleService(store, logger)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, logger)
	hub.RegisterHandler(wsHandlers.NewBookingHandler(bookingService))

	// ----- Outbox Worker -----
	outboxWorker := worker.NewOutboxWorker(
		store,
		[]worker.Publisher{worker.NewRedisPublisher(redisClient, s.cfg.BookingEventsChannel)},
		logger,
		s.cfg.OutboxPollInterval,
		s.cfg.OutboxBatchSize,
	)

	bgCtx, cancel := context.WithCancel(context.Background())
	// Every instance fans out events from the shared channel, including its own
	if err := hub.RelayFrom(bgCtx, redisClient, s.cfg.BookingEventsChannel); err != nil {
		cancel()
		return err
	}
	s.stopBackground = cancel
	s.background = make(chan struct{})
	go hub.Run(bgCtx)
	go func() {
		defer close(s.background)
		outboxWorker.Start(bgCtx)
	}()

	// ----- Handlers -----
	handlers := &Handlers{
		BookingHandler: bookingHandler.NewBookingHandler(bookingService),
		VehicleHandler: vehicleHandler.NewVehicleHandler(vehicleService),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, s.cfg.CORSAllowedOrigins, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtManager.Verifier, logger),
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSAllowedOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, logger, handlers)

	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains HTTP, stops background work and closes the pools
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("failed to shut down http server: %w", err)
		}
	}

	if s.stopBackground != nil {
		s.stopBackground()
		select {
		case <-s.background:
		case <-ctx.Done():
			s.logger.Warn("outbox worker did not stop before shutdown deadline")
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}

	if s.logger != nil {
		s.logger.Info("server stopped")
		_ = s.logger.Sync()
	}
	return firstErr
}
