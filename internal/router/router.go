package router

import (
	"time"

	"kasirless/internal/config"
	"kasirless/internal/handler"
	"kasirless/internal/infra"
	"kasirless/internal/middleware"
	"kasirless/internal/realtime"
	"kasirless/internal/repository"
	"kasirless/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App bundles the engine with the long-running pieces main has to start
// (hub) and the dependencies the background workers share with the HTTP
// surface (order service, order repo, payment breaker).
type App struct {
	Engine    *gin.Engine
	Hub       *realtime.Hub
	Orders    service.OrderService
	OrderRepo repository.OrderRepository
	Xendit    *infra.XenditClient
}

// New wires all dependencies and returns the configured application.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	xendit := infra.NewXenditClient(cfg.XenditBaseURL, cfg.XenditAPIKey)
	publisher := realtime.NewRedisPublisher(rdb, cfg.KitchenChannel)
	hub := realtime.NewHub(rdb, cfg.KitchenChannel)

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	tableRepo := repository.NewTableRepository(db)
	staffRepo := repository.NewStaffRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(staffRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	catalogSvc := service.NewCatalogService(productRepo)
	tableSvc := service.NewTableService(tableRepo)
	stockSvc := service.NewStockService(sessionRepo, productRepo, movementRepo)
	orderSvc := service.NewOrderService(
		orderRepo, productRepo, sessionRepo, tableRepo, movementRepo,
		publisher, xendit, cfg.RestockOnCancel,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	tableH := handler.NewTableHandler(tableSvc)
	stockH := handler.NewStockHandler(stockSvc)
	orderH := handler.NewOrderHandler(orderSvc, cfg.XenditCallbackToken)
	cashierH := handler.NewCashierHandler(orderSvc)
	kitchenH := handler.NewKitchenHandler(orderSvc, hub)
	healthH := handler.NewHealthHandler(db, rdb, hub, xendit.Breaker())

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", healthH.Check)

	api := r.Group("/api")

	// Public surface: the customer flow carries no auth, only the QR token.
	api.POST("/auth/login", middleware.LoginRateLimiter(), authH.Login)
	api.GET("/stock/status", stockH.Status)
	api.GET("/tables/uuid/:uuid", tableH.Resolve)
	api.GET("/products", catalogH.ListProducts)
	api.GET("/products/:id", catalogH.GetProduct)
	api.GET("/categories", catalogH.ListCategories)
	api.GET("/addons/product/:id", catalogH.ProductAddons)
	api.GET("/addons/values/:id", catalogH.AddonValues)
	api.POST("/orders", orderH.Create)
	api.GET("/orders/:id", orderH.Get)

	// Provider callback — authenticated by the callback token, not JWT.
	api.POST("/payments/webhook", orderH.Webhook)

	// Staff surface
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)

	cashier := api.Group("/cashier", jwtMW, middleware.RequireRole("cashier", "admin"))
	{
		cashier.GET("/pending-cash", cashierH.PendingCash)
		cashier.GET("/:id", cashierH.Get)
		cashier.POST("/:id/mark-paid", cashierH.MarkPaid)
		// Cancellation voids a sale; only admins may do it.
		cashier.POST("/:id/cancel", middleware.RequireRole("admin"), cashierH.Cancel)
	}

	kitchen := api.Group("/kitchen", jwtMW, middleware.RequireRole("kitchen", "admin"))
	{
		kitchen.GET("/processing", kitchenH.Processing)
		kitchen.POST("/:id/complete", kitchenH.Complete)
		kitchen.GET("/ws", kitchenH.Stream)
	}

	stock := api.Group("/stock", jwtMW)
	{
		stock.POST("/open-session", middleware.RequireRole("admin"), stockH.OpenSession)
		stock.POST("/close-session", middleware.RequireRole("admin"), stockH.CloseSession)
		stock.GET("/daily-session", middleware.RequireRole("admin", "cashier"), stockH.DailySession)
		stock.GET("/products", middleware.RequireRole("admin", "cashier"), stockH.Tracked)
		stock.PATCH("/products/:id", middleware.RequireRole("admin"), stockH.Adjust)
		stock.GET("/products/:id/movements", middleware.RequireRole("admin"), stockH.Movements)
	}

	tables := api.Group("/tables", jwtMW, middleware.RequireRole("admin"))
	{
		tables.POST("", tableH.Create)
		tables.GET("", tableH.List)
		tables.DELETE("/:id", tableH.Delete)
		tables.POST("/:id/regenerate", tableH.Regenerate)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return &App{
		Engine:    r,
		Hub:       hub,
		Orders:    orderSvc,
		OrderRepo: orderRepo,
		Xendit:    xendit,
	}
}
