package routes

import (
	"time"

	"gearguard/internal/adapters/http/handlers"
	"gearguard/internal/adapters/http/middleware"
	"gearguard/internal/adapters/lock"
	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/config"
	"gearguard/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories bundles every repository the API uses
type Repositories struct {
	Users       repositories.UserRepository
	Tokens      repositories.RefreshTokenRepository
	Teams       repositories.TeamRepository
	WorkCenters repositories.WorkCenterRepository
	Equipment   repositories.EquipmentRepository
	Requests    repositories.RequestRepository
}

// NewRepositories creates the GORM-backed repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:       repositories.NewUserRepository(db),
		Tokens:      repositories.NewRefreshTokenRepository(db),
		Teams:       repositories.NewTeamRepository(db),
		WorkCenters: repositories.NewWorkCenterRepository(db),
		Equipment:   repositories.NewEquipmentRepository(db),
		Requests:    repositories.NewRequestRepository(db),
	}
}

// Services bundles the business services behind the handlers
type Services struct {
	Auth        *services.AuthService
	Users       *services.UserService
	Teams       *services.TeamService
	Equipment   *services.EquipmentService
	Requests    *services.RequestService
	Technicians *services.TechnicianService
	Reports     *services.ReportService
}

// NewServices wires the services on top of the repositories
func NewServices(repos *Repositories, cfg *config.Config, locker lock.Locker, log *zap.Logger) *Services {
	return &Services{
		Auth:  services.NewAuthService(repos.Users, repos.Tokens, cfg, log),
		Users: services.NewUserService(repos.Users, log),
		Teams: services.NewTeamService(repos.Teams, repos.Users, log),
		Equipment: services.NewEquipmentService(
			repos.Equipment,
			repos.WorkCenters,
			repos.Teams,
			repos.Users,
			repos.Requests,
			log,
		),
		Requests: services.NewRequestService(
			repos.Requests,
			repos.Users,
			repos.Equipment,
			repos.Teams,
			repos.WorkCenters,
			locker,
			cfg.LockTTL,
			log,
		),
		Technicians: services.NewTechnicianService(repos.Users, repos.Teams, repos.Requests),
		Reports:     services.NewReportService(repos.Requests),
	}
}

// Setup configures all routes for the application. redisClient may be nil.
func Setup(app *fiber.App, cfg *config.Config, svc *Services, redisClient *redis.Client) {
	healthHandler := handlers.NewHealthHandler(cfg, redisClient)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)
	teamHandler := handlers.NewTeamHandler(svc.Teams)
	equipmentHandler := handlers.NewEquipmentHandler(svc.Equipment, svc.Requests)
	requestHandler := handlers.NewRequestHandler(svc.Requests)
	technicianHandler := handlers.NewTechnicianHandler(svc.Technicians)
	reportHandler := handlers.NewReportHandler(svc.Reports)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", middleware.CacheControl(time.Hour), swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)

	auth := middleware.AuthMiddleware(cfg)
	setupUserRoutes(apiV1.Group("/users", auth), userHandler)
	setupTeamRoutes(apiV1.Group("/teams", auth), teamHandler)
	setupWorkCenterRoutes(apiV1.Group("/work-centers", auth), equipmentHandler)
	setupEquipmentRoutes(apiV1.Group("/equipment", auth), equipmentHandler)
	setupRequestRoutes(apiV1.Group("/requests", auth), requestHandler)

	apiV1.Get("/technicians/available", auth, technicianHandler.Available)
	apiV1.Get("/reports/summary", auth, middleware.ManagerOnly(), middleware.PrivateCacheHeaders(30*time.Second), reportHandler.Summary)
}

func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", middleware.ManagerOnly(), handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Patch("/:id/role", middleware.ManagerOnly(), handler.ChangeRole)
}

func setupTeamRoutes(router fiber.Router, handler *handlers.TeamHandler) {
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Post("/", middleware.ManagerOnly(), handler.Create)
	router.Put("/:id/members", middleware.ManagerOnly(), handler.SetMembers)
}

func setupWorkCenterRoutes(router fiber.Router, handler *handlers.EquipmentHandler) {
	router.Get("/", middleware.PrivateCacheHeaders(time.Minute), handler.ListWorkCenters)
	router.Post("/", middleware.ManagerOnly(), handler.CreateWorkCenter)
}

func setupEquipmentRoutes(router fiber.Router, handler *handlers.EquipmentHandler) {
	router.Get("/", handler.List)
	router.Post("/", middleware.ManagerOnly(), handler.Create)
	router.Get("/:id", handler.Get)
	router.Get("/:id/requests", middleware.NoCacheHeaders(), handler.Requests)
}

func setupRequestRoutes(router fiber.Router, handler *handlers.RequestHandler) {
	router.Use(middleware.NoCacheHeaders())

	// static paths before /:id
	router.Get("/calendar", handler.Calendar)

	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Get("/:id/history", handler.History)

	// stage and status are the same operation
	router.Patch("/:id/stage", middleware.TechnicianOrManager(), handler.UpdateStage)
	router.Patch("/:id/status", middleware.TechnicianOrManager(), handler.UpdateStage)

	router.Post("/:id/assign", middleware.TechnicianOrManager(), handler.Assign)
	router.Post("/:id/complete", middleware.TechnicianOrManager(), handler.Complete)
	router.Post("/:id/scrap", middleware.TechnicianOrManager(), handler.Scrap)
}
