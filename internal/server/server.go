// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"guildboard/internal/auth"
	"guildboard/internal/cache"
	"guildboard/internal/config"
	"guildboard/internal/database"
	"guildboard/internal/middleware"
	"guildboard/internal/models"
	"guildboard/internal/repository"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Cookie names the auth middleware reads, in priority order.
const (
	tokenCookie   = "gb_token"
	sessionCookie = "gb_session"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenIssuer
	userRepo       repository.UserRepository
	communityRepo  repository.CommunityRepository
	postRepo       repository.PostRepository
	jobRepo        repository.JobRepository
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient()), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("guildboard-api"),
		tokens:         auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL()),
		userRepo:       repository.NewUserRepository(db),
		communityRepo:  repository.NewCommunityRepository(db),
		postRepo:       repository.NewPostRepository(db),
		jobRepo:        repository.NewJobRepository(db),
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Success: false,
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Guildboard Metrics Dashboard",
	}))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Get("/me", s.AuthRequired(), s.Me)
	authGroup.Post("/logout", s.Logout)

	// User routes
	users := api.Group("/users")
	users.Put("/me", s.AuthRequired(), s.UpdateMyProfile)
	users.Get("/me/jobs/saved", s.AuthRequired(), s.GetMySavedJobs)
	users.Get("/me/jobs/applied", s.AuthRequired(), s.GetMyApplications)
	users.Get("/:id", s.GetUserProfile)

	// Community routes
	community := api.Group("/community")
	community.Post("/", s.AuthRequired(), s.CreateCommunity)
	community.Get("/", s.GetCommunities)

	// Post routes live under /community/posts; register the specific prefix
	// before the generic /:id routes.
	community.Post("/posts/:postId/like", s.OptionalAuth(), s.LikePost)
	community.Delete("/posts/:postId/like", s.OptionalAuth(), s.UnlikePost)
	community.Post("/posts/:postId/comments", s.OptionalAuth(), s.CreateComment)
	community.Get("/posts/:postId/comments", s.GetComments)
	community.Delete("/posts/:postId", s.AuthRequired(), s.DeletePost)

	community.Get("/:id", s.GetCommunity)
	community.Put("/:id", s.AuthRequired(), s.UpdateCommunity)
	community.Put("/:id/join", s.OptionalAuth(), s.JoinCommunity)
	community.Put("/:id/leave", s.OptionalAuth(), s.LeaveCommunity)
	community.Put("/:id/notifications", s.OptionalAuth(), s.ToggleNotifications)
	community.Post("/:id/posts", s.OptionalAuth(), s.CreatePost)
	community.Get("/:id/posts", s.GetCommunityPosts)

	// Job routes
	job := api.Group("/job")
	job.Post("/", s.AuthRequired(), s.CreateJob)
	job.Get("/", s.GetJobs)
	job.Get("/:id", s.GetJob)
	job.Put("/:id/apply", s.AuthRequired(), s.ApplyToJob)
	job.Put("/:id/save", s.AuthRequired(), s.ToggleSaveJob)
	job.Put("/:id/application/:user_id", s.AuthRequired(), s.UpdateApplicationStatus)
	job.Put("/:id", s.AuthRequired(), s.UpdateJob)
	job.Delete("/:id", s.AuthRequired(), s.DeleteJob)

	// Unmatched routes get a JSON 404 rather than Fiber's plain text default.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Route not found",
			"path":    c.OriginalURL(),
		})
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app runs without a cache; report it but stay ready.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// extractToken pulls the bearer token from the request: primary cookie first,
// then the secondary session cookie, then the Authorization header.
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies(tokenCookie); token != "" {
		return token
	}
	if token := c.Cookies(sessionCookie); token != "" {
		return token
	}
	header := c.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

// authenticate verifies the request's token and loads its user. The returned
// error is an AppError suitable for RespondWithError.
func (s *Server) authenticate(c *fiber.Ctx) (*models.User, error) {
	tokenString := extractToken(c)
	if tokenString == "" {
		return nil, models.NewUnauthenticatedError("Authorization required")
	}

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, models.NewUnauthenticatedError("Token expired")
		case errors.Is(err, auth.ErrMalformedToken):
			return nil, models.NewUnauthenticatedError("Malformed token")
		case errors.Is(err, auth.ErrNoSigningKey):
			return nil, models.NewMisconfiguredError(err)
		default:
			return nil, models.NewUnauthenticatedError("Invalid token")
		}
	}

	user, err := s.userRepo.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Status == fiber.StatusNotFound {
			// Token is valid but the account is gone.
			return nil, models.NewUnauthenticatedError("Account not found")
		}
		return nil, err
	}

	return user, nil
}

// AuthRequired returns middleware that rejects requests without a valid
// identity.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		s.setIdentity(c, user)
		return c.Next()
	}
}

// OptionalAuth returns middleware that attaches an identity when a valid token
// is present and otherwise continues anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, err := s.authenticate(c); err == nil {
			s.setIdentity(c, user)
		}
		return c.Next()
	}
}

func (s *Server) setIdentity(c *fiber.Ctx, user *models.User) {
	c.Locals("userID", user.ID)
	c.Locals("user", user)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
	c.SetUserContext(ctx)
}

// currentUserID returns the authenticated user id, if any.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok
}

// resolveActor determines who is performing an optional-auth operation. Token
// identity wins; otherwise a client-supplied user id is accepted but always
// re-validated against the user store before being trusted.
func (s *Server) resolveActor(c *fiber.Ctx, bodyUserID uint) (*models.User, error) {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user, nil
	}

	if bodyUserID == 0 {
		return nil, models.NewUnauthenticatedError("Authorization or user_id required")
	}

	user, err := s.userRepo.GetByID(c.UserContext(), bodyUserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Status == fiber.StatusNotFound {
			// A supplied user id that resolves to nobody is a credential
			// failure, not a missing resource.
			return nil, models.NewUnauthenticatedError("Unknown user_id")
		}
		return nil, err
	}
	return user, nil
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Guildboard API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
