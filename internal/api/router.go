package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/quotebook/estimate-system/internal/api/handler"
	"github.com/quotebook/estimate-system/internal/api/middleware"
	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
	"github.com/quotebook/estimate-system/internal/core/service"
)

const metricsSubsystem = "estimate_api"

// Repositories groups the persistence adapters the services are built on.
type Repositories struct {
	Users     ports.UserRepository
	Customers ports.CustomerRepository
	Brands    ports.BrandRepository
	Items     ports.ItemRepository
	Estimates ports.EstimateRepository
	Sequence  ports.EstimateSequence
	Dashboard ports.DashboardRepository
}

// Services is the set of use cases exposed over HTTP.
type Services struct {
	Auth       ports.AuthService
	Users      ports.UserService
	Customers  ports.CustomerService
	Catalog    ports.CatalogService
	Estimates  ports.EstimateService
	Dashboard  ports.DashboardService
	Principals ports.PrincipalResolver
}

// ServiceConfig carries the settings the services need beyond their adapters.
type ServiceConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	Cache        ports.PrincipalCache // nil disables principal caching
	PrincipalTTL time.Duration
	Notifier     ports.Notifier
	Logger       zerolog.Logger
}

// NewServices wires the core services onto repos.
func NewServices(repos Repositories, cfg ServiceConfig) *Services {
	log := cfg.Logger
	principals := service.NewPrincipalService(repos.Users, cfg.Cache, cfg.PrincipalTTL, log.With().Str("component", "principals").Logger())
	auth := service.NewAuthService(repos.Users, principals, cfg.JWTSecret, cfg.TokenTTL, log.With().Str("component", "auth").Logger())
	return &Services{
		Auth:       auth,
		Users:      service.NewUserService(repos.Users, auth, principals, log.With().Str("component", "users").Logger()),
		Customers:  service.NewCustomerService(repos.Customers, repos.Users, log.With().Str("component", "customers").Logger()),
		Catalog:    service.NewCatalogService(repos.Brands, repos.Items, log.With().Str("component", "catalog").Logger()),
		Estimates:  service.NewEstimateService(repos.Estimates, repos.Sequence, repos.Items, repos.Customers, repos.Users, cfg.Notifier, log.With().Str("component", "estimates").Logger()),
		Dashboard:  service.NewDashboardService(repos.Dashboard, log.With().Str("component", "dashboard").Logger()),
		Principals: principals,
	}
}

// RouterConfig controls the HTTP surface.
type RouterConfig struct {
	JWTSecret    string
	HealthChecks map[string]handler.HealthCheck
	CORSOrigins  []string
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc *Services, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(cfg.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(echoprometheus.NewMiddleware(metricsSubsystem))

	// --- Operational endpoints (no auth required) ---
	health := handler.NewHealthHandler(cfg.HealthChecks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := middleware.Auth(cfg.JWTSecret, svc.Principals)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleTrader)

	// --- Auth ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/register-customer", authHandler.RegisterCustomer)
	e.POST("/auth/login", authHandler.Login)

	account := e.Group("/auth", authn)
	account.GET("/me", authHandler.Me)
	account.GET("/profile", authHandler.Me)
	account.PUT("/profile", authHandler.UpdateProfile)
	account.PUT("/change-password", authHandler.ChangePassword)
	account.PUT("/tags", authHandler.UpdateTags)
	account.GET("/pending-approvals", authHandler.PendingApprovals, adminOnly)
	account.PUT("/approve-user/:id", authHandler.Approve, adminOnly)
	account.PUT("/reject-user/:id", authHandler.Reject, adminOnly)

	// --- Users ---
	userHandler := handler.NewUserHandler(svc.Users)
	users := e.Group("/users", authn)
	users.GET("", userHandler.List, adminOnly)
	users.GET("/traders", userHandler.Traders, adminOnly)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete, adminOnly)

	// --- Customer directory ---
	customerHandler := handler.NewCustomerHandler(svc.Customers)
	customers := e.Group("/customers", authn, staff)
	customers.GET("", customerHandler.List)
	customers.POST("", customerHandler.Create)
	customers.GET("/for-estimate", customerHandler.ForEstimate)
	customers.GET("/search/phone/:phone", customerHandler.FindByPhone)
	customers.GET("/:id", customerHandler.Get)
	customers.PUT("/:id", customerHandler.Update)
	customers.DELETE("/:id", customerHandler.Delete)

	// --- Catalog ---
	catalogHandler := handler.NewCatalogHandler(svc.Catalog)
	brands := e.Group("/brands", authn, staff)
	brands.GET("", catalogHandler.ListBrands)
	brands.POST("", catalogHandler.CreateBrand)
	brands.GET("/:id", catalogHandler.GetBrand)
	brands.PUT("/:id", catalogHandler.UpdateBrand)
	brands.DELETE("/:id", catalogHandler.DeleteBrand)

	items := e.Group("/items", authn, staff)
	items.GET("", catalogHandler.ListItems)
	items.POST("", catalogHandler.CreateItem)
	items.GET("/categories", catalogHandler.Categories)
	items.GET("/:id", catalogHandler.GetItem)
	items.PUT("/:id", catalogHandler.UpdateItem)
	items.DELETE("/:id", catalogHandler.DeleteItem)

	// --- Estimates ---
	estimateHandler := handler.NewEstimateHandler(svc.Estimates)
	estimates := e.Group("/estimates", authn)
	estimates.GET("/my-estimates", estimateHandler.Mine, middleware.RBAC(domain.RoleCustomer))
	estimates.GET("/customer/:customerId", estimateHandler.ForCustomer, staff)
	estimates.GET("/search/item/:itemId", estimateHandler.ByItem, staff)
	estimates.GET("", estimateHandler.List)
	estimates.POST("", estimateHandler.Create, staff)
	estimates.GET("/:id", estimateHandler.Get)
	estimates.PUT("/:id", estimateHandler.Update, staff)
	estimates.PUT("/:id/send", estimateHandler.Send, staff)
	estimates.DELETE("/:id", estimateHandler.Delete, staff)

	// --- Dashboard ---
	dashboardHandler := handler.NewDashboardHandler(svc.Dashboard)
	dashboard := e.Group("/dashboard", authn, staff)
	dashboard.GET("/stats", dashboardHandler.Stats)
	dashboard.GET("/recent-estimates", dashboardHandler.RecentEstimates)
	dashboard.GET("/top-customers", dashboardHandler.TopCustomers)
	dashboard.GET("/monthly-stats", dashboardHandler.MonthlyStats)
	dashboard.GET("/admin-stats", dashboardHandler.AdminStats, adminOnly)

	return e
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
