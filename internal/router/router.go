package router

import (
	"rifapos/internal/cache"
	"rifapos/internal/config"
	"rifapos/internal/handler"
	"rifapos/internal/identity"
	"rifapos/internal/infra"
	"rifapos/internal/middleware"
	"rifapos/internal/repository"
	"rifapos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer shared by the HTTP API and the background
// workers started from main.
type Services struct {
	Sales    service.SaleService
	Receipts service.ReceiptService
	Raffles  service.RaffleService
	Products service.ProductService
	Clients  service.ClientService
}

// NewServices wires repositories into services.
// Dependency graph: Service ← Repository ← DB/Redis.
// mail may be nil when receipt e-mails are disabled.
func NewServices(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient, mail service.ReceiptEmailQueue) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	tx := repository.NewTransactor(db, cfg.DBLockTimeout)
	businessRepo := repository.NewBusinessRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	raffleRepo := repository.NewRaffleRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	ledger := service.NewInventoryLedger(productRepo, movementRepo)
	productSvc := service.NewProductService(tx, productRepo, movementRepo, ledger, cache.NewRedis(rdb), cfg.ProductCacheTTL)
	receiptSvc := service.NewReceiptService(tx, receiptRepo, saleRepo, businessRepo, cfg.ReceiptTokenTTL)
	raffleSvc := service.NewRaffleService(tx, raffleRepo, saleRepo)

	deps := service.SaleServiceDeps{
		Tx:           tx,
		Sales:        saleRepo,
		Members:      memberRepo,
		Clients:      clientRepo,
		Ledger:       ledger,
		ProductCache: productSvc,
		Receipts:     receiptSvc,
		Raffles:      raffleSvc,
		Mail:         mail,
	}

	return &Services{
		Sales:    service.NewSaleService(deps),
		Receipts: receiptSvc,
		Raffles:  raffleSvc,
		Products: productSvc,
		Clients:  service.NewClientService(clientRepo),
	}
}

// New returns a configured Gin engine serving svcs.
// publicLimiter throttles the unauthenticated receipt endpoints.
func New(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient, svcs *Services, publicLimiter *middleware.IPRateLimiter) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(cfg.IsDevelopment()))

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(svcs.Sales, svcs.Receipts)
	receiptsH := handler.NewReceiptsHandler(svcs.Receipts, infra.NewReceiptPDF(cfg.ReceiptLocale))
	productsH := handler.NewProductsHandler(svcs.Products)
	clientsH := handler.NewClientsHandler(svcs.Clients)
	rafflesH := handler.NewRafflesHandler(svcs.Raffles)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Receipt links: no auth, throttled per IP
	public := r.Group("/sales/receipt-data", publicLimiter.Middleware())
	{
		public.GET("/:token", receiptsH.View)
		public.GET("/:token/pdf", receiptsH.PDF)
	}

	// Protected routes
	api := r.Group("", middleware.JWTAuth(cfg.JWTSecret))
	staff := middleware.RequireRole(identity.RoleOwner, identity.RoleEmployee)
	{
		sales := api.Group("/sales", staff)
		{
			sales.POST("", middleware.RequirePermission(identity.PermPOS), salesH.Checkout)
			sales.GET("/:id", salesH.GetSale)
			sales.POST("/:id/receipt-token", middleware.RequirePermission(identity.PermPOS), salesH.RegenerateReceipt)
		}

		api.GET("/receipts/most-viewed", staff, middleware.RequirePermission(identity.PermReports), receiptsH.MostViewed)

		products := api.Group("/products", staff)
		{
			products.GET("", productsH.List)
			products.GET("/:id/stock-movements", middleware.RequirePermission(identity.PermProducts), productsH.ListMovements)
			write := products.Group("", middleware.RequirePermission(identity.PermProducts))
			{
				write.POST("", productsH.Create)
				write.DELETE("/:id", productsH.Delete)
				write.PUT("/:id/variants/:variantId/stock", productsH.SetVariantStock)
			}
		}

		clients := api.Group("/clients", staff, middleware.RequirePermission(identity.PermPOS))
		{
			clients.POST("", clientsH.Create)
			clients.DELETE("/:id", clientsH.Delete)
		}

		raffles := api.Group("/raffles", staff)
		{
			raffles.GET("/:id", rafflesH.Get)
			raffles.GET("/:id/tickets", rafflesH.ListTickets)
			// Creating, drawing and backfilling are owner-only
			owner := raffles.Group("", middleware.RequireRole(identity.RoleOwner))
			{
				owner.POST("", rafflesH.Create)
				owner.POST("/:id/draw", rafflesH.Draw)
				owner.POST("/:id/generate-batch", rafflesH.GenerateBatch)
			}
		}
	}

	// Swagger UI: only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
