package api

import (
	"github.com/gin-gonic/gin"

	"github.com/vronney/orders-management-system/internal/auth"
	"github.com/vronney/orders-management-system/internal/metrics"
)

func SetupRoutes(router *gin.Engine, handler *Handler, authService *auth.Service, reg *metrics.Registry) {
	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(reg.Handler()))

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/login", handler.Login)

		orders := apiGroup.Group("/orders", authService.RequireAuth())
		{
			orders.GET("", handler.ListOrders)
			orders.GET("/stats", handler.GetOrderStats)
			orders.GET("/export", handler.ExportOrders)
			orders.GET("/:order_id", handler.GetOrder)
		}

		upload := apiGroup.Group("/upload", authService.RequireAuth(), authService.RequireRole("admin"))
		{
			upload.POST("/orders", handler.UploadOrders)
			upload.POST("/replay", handler.ReplayUpload)
		}
	}
}
