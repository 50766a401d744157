package router

import (
	"database/sql"
	"net/http"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Dependencies are the process-wide resources the routes are built on.
type Dependencies struct {
	DB         *sql.DB
	Tokens     *utils.TokenIssuer
	Publisher  events.Publisher
	ReceiptDir string
	UploadDir  string
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		utils.UseJSONFieldNames(v)
	}

	db := deps.DB

	// Initialize Repositories
	uow := repositories.NewUnitOfWork(db)
	userRepo := repositories.NewUserRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	movementRepo := repositories.NewInventoryMovementRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	sequenceRepo := repositories.NewSequenceRepository(db)
	receiptRepo := repositories.NewReceiptRepository(db)
	settingRepo := repositories.NewSettingRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Initialize Services
	ledger := services.NewInventoryLedger(productRepo, movementRepo)
	tracker := services.NewTableTracker(tableRepo)

	authService := services.NewAuthService(uow, userRepo, deps.Tokens)
	userService := services.NewUserService(uow, userRepo)
	catalogService := services.NewCatalogService(uow, categoryRepo, productRepo, movementRepo, ledger, deps.UploadDir)
	tableService := services.NewTableService(uow, tableRepo, orderRepo, tracker, deps.Publisher)
	orderService := services.NewOrderService(uow, orderRepo, sequenceRepo, ledger, tracker, deps.Publisher)
	settingService := services.NewSettingService(uow, settingRepo)
	receiptService := services.NewReceiptService(uow, receiptRepo, orderRepo, sequenceRepo, settingService, deps.ReceiptDir)
	reportService := services.NewReportService(reportRepo, settingService)

	// Initialize Handlers
	h := routeHandlers{
		auth:    handlers.NewAuthHandler(authService),
		users:   handlers.NewUserHandler(userService),
		catalog: handlers.NewCatalogHandler(catalogService),
		tables:  handlers.NewTableHandler(tableService),
		orders:  handlers.NewOrderHandler(orderService),
		receipt: handlers.NewReceiptHandler(receiptService),
		reports: handlers.NewReportHandler(reportService),
		setting: handlers.NewSettingHandler(settingService),
	}
	health := handlers.NewHealthHandler(db)

	engine.GET("/ping", health.Ping)
	engine.GET("/health", health.Health)
	if deps.UploadDir != "" {
		engine.Static("/storage/products", deps.UploadDir)
	}

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), h.auth)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Tokens), middleware.ActiveUserMiddleware(authService))
	{
		SetupAuthenticatedRoutes(authenticated, h)

		admin := authenticated.Group("")
		admin.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		SetupAdminRoutes(admin, h)

		staff := authenticated.Group("")
		staff.Use(middleware.RoleAuthMiddleware(models.RoleCashier, models.RoleAdmin))
		SetupStaffRoutes(staff, h)
	}

	engine.NoRoute(func(c *gin.Context) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "API endpoint not found", c.Request.URL.Path))
	})
}
