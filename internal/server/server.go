package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers into one router.
// redisClient may be nil, in which case rate limiting is off.
func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(s.routes(), "storefront-api"),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(s.config.CORS.AllowedOrigins, s.config.Server.IsDevelopment()))
	router.Use(custommiddleware.ValidationMiddleware(s.logger))

	sqlDB := s.db.DB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	cartRepo := repository.NewCartRepository(sqlDB)

	// Initialize services
	userService := service.NewUserService(
		userRepo,
		refreshTokenRepo,
		s.config.JWT.Secret,
		time.Duration(s.config.JWT.AccessExpiry)*time.Minute,
		time.Duration(s.config.JWT.RefreshExpiry)*24*time.Hour,
	)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo)

	// Identity has to be known before the limiter runs so that users behind
	// one address get their own buckets.
	if s.redis != nil && s.config.RateLimit.Enabled {
		router.Use(custommiddleware.IdentifyMiddleware(userService, s.logger))
		router.Use(custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: s.config.RateLimit.RequestsPerWindow,
			Window:            s.config.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, s.logger))
	}

	router.Get("/health", s.health)

	authMiddleware := custommiddleware.AuthMiddleware(userService, s.logger)
	adminMiddleware := custommiddleware.RequireAdmin(s.logger)

	// Register routes
	transport.NewUserHandler(userService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewProductHandler(productService, s.logger).RegisterRoutes(router, authMiddleware, adminMiddleware)
	transport.NewCartHandler(cartService, s.logger).RegisterRoutes(router, authMiddleware)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	dbHealth := s.db.Health()
	body["database"] = dbHealth
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			// the rate limiter fails open, so redis being down is not fatal
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
