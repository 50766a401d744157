package router

import (
	"restaurant_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

type routeHandlers struct {
	auth    *handlers.AuthHandler
	users   *handlers.UserHandler
	catalog *handlers.CatalogHandler
	tables  *handlers.TableHandler
	orders  *handlers.OrderHandler
	receipt *handlers.ReceiptHandler
	reports *handlers.ReportHandler
	setting *handlers.SettingHandler
}

// SetupPublicAuthRoutes sets up the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
}

// SetupAuthenticatedRoutes sets up the routes open to every active user.
func SetupAuthenticatedRoutes(group *gin.RouterGroup, h routeHandlers) {
	authRoutes := group.Group("/auth")
	{
		authRoutes.POST("/logout", h.auth.Logout)
		authRoutes.GET("/profile", h.auth.Profile)
		authRoutes.PUT("/profile", h.auth.UpdateProfile)
	}

	group.GET("/categories", h.catalog.GetCategories)
	group.GET("/categories/:id", h.catalog.GetCategoryByID)

	group.GET("/products", h.catalog.GetProducts)
	group.GET("/products/:id", h.catalog.GetProductByID)

	group.GET("/tables", h.tables.GetTables)
	group.GET("/tables/available", h.tables.GetAvailableTables)
	group.GET("/tables/:id", h.tables.GetTableByID)

	orderRoutes := group.Group("/orders")
	{
		orderRoutes.GET("", h.orders.GetOrders)
		orderRoutes.POST("", h.orders.CreateOrder)
		orderRoutes.GET("/:id", h.orders.GetOrderByID)
		orderRoutes.GET("/:id/receipt-preview", h.receipt.Preview)
	}

	group.GET("/receipts/:id", h.receipt.GetReceiptByID)
	group.GET("/receipts/:id/download", h.receipt.Download)
}

// SetupAdminRoutes sets up user and settings management.
func SetupAdminRoutes(group *gin.RouterGroup, h routeHandlers) {
	userRoutes := group.Group("/users")
	{
		userRoutes.GET("", h.users.GetUsers)
		userRoutes.POST("", h.users.CreateUser)
		userRoutes.GET("/:id", h.users.GetUserByID)
		userRoutes.PUT("/:id", h.users.UpdateUser)
		userRoutes.DELETE("/:id", h.users.DeleteUser)
		userRoutes.PATCH("/:id/toggle-status", h.users.ToggleStatus)
	}

	settingRoutes := group.Group("/settings")
	{
		settingRoutes.GET("", h.setting.GetSettings)
		settingRoutes.GET("/:key", h.setting.GetSetting)
		settingRoutes.PUT("/:key", h.setting.UpsertSetting)
		settingRoutes.DELETE("/:key", h.setting.DeleteSetting)
	}
}

// SetupStaffRoutes sets up the management routes shared by cashiers and admins.
func SetupStaffRoutes(group *gin.RouterGroup, h routeHandlers) {
	categoryRoutes := group.Group("/categories")
	{
		categoryRoutes.POST("", h.catalog.CreateCategory)
		categoryRoutes.PUT("/:id", h.catalog.UpdateCategory)
		categoryRoutes.DELETE("/:id", h.catalog.DeleteCategory)
	}

	productRoutes := group.Group("/products")
	{
		productRoutes.POST("", h.catalog.CreateProduct)
		productRoutes.PUT("/:id", h.catalog.UpdateProduct)
		productRoutes.DELETE("/:id", h.catalog.DeleteProduct)
		productRoutes.PATCH("/:id/toggle-availability", h.catalog.ToggleAvailability)
		productRoutes.PATCH("/:id/update-stock", h.catalog.UpdateStock)
		productRoutes.POST("/:id/image", h.catalog.UploadImage)
	}
	group.GET("/inventory-movements", h.catalog.GetMovements)

	tableRoutes := group.Group("/tables")
	{
		tableRoutes.POST("", h.tables.CreateTable)
		tableRoutes.PUT("/:id", h.tables.UpdateTable)
		tableRoutes.DELETE("/:id", h.tables.DeleteTable)
		tableRoutes.PATCH("/:id/status", h.tables.UpdateTableStatus)
	}

	orderRoutes := group.Group("/orders")
	{
		orderRoutes.PATCH("/:id/status", h.orders.UpdateOrderStatus)
		orderRoutes.PATCH("/:id/payment-status", h.orders.UpdatePaymentStatus)
		orderRoutes.DELETE("/:id", h.orders.DeleteOrder)
	}

	receiptRoutes := group.Group("/receipts")
	{
		receiptRoutes.GET("", h.receipt.GetReceipts)
		receiptRoutes.POST("", h.receipt.CreateReceipt)
		receiptRoutes.DELETE("/:id", h.receipt.DeleteReceipt)
	}

	statisticsRoutes := group.Group("/statistics")
	{
		statisticsRoutes.GET("/dashboard", h.reports.Dashboard)
		statisticsRoutes.GET("/sales-report", h.reports.SalesReport)
		statisticsRoutes.GET("/export-sales-report", h.reports.ExportSalesReport)
	}
}
