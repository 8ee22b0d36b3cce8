package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/blumenhaus/flora-shop/internal/api/handler"
	"github.com/blumenhaus/flora-shop/internal/api/middleware"
	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/service"
	"github.com/blumenhaus/flora-shop/internal/infrastructure/config"
	mongodb "github.com/blumenhaus/flora-shop/internal/infrastructure/db/mongo"
	redisdb "github.com/blumenhaus/flora-shop/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("flora"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	sessionRepo := redisdb.NewSessionRepository(rdb)
	limiter := redisdb.NewRateLimiter(rdb, cfg.Login.Window, cfg.Login.MaxAttempts)

	accounts := service.NewAccountService(userRepo)
	sessions := service.NewSessionManager(sessionRepo, cfg.SessionSecret, cfg.SessionTTL)

	userHandler := handler.NewUserHandler(accounts, sessions, limiter, log)
	requireSession := middleware.Session(sessions, accounts)
	requireAdmin := middleware.RBAC(domain.RoleAdmin)

	// --- User/session routes ---
	users := e.Group("/api/users")
	users.POST("/login", userHandler.Login)
	users.POST("/logout", userHandler.Logout)
	users.POST("/register", userHandler.Register)
	users.GET("/current", userHandler.Current, requireSession)
	users.PUT("/:id/roles/:role", userHandler.AddRole, requireSession, requireAdmin)
	users.DELETE("/:id/roles/:role", userHandler.RemoveRole, requireSession, requireAdmin)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
