package router

import (
	"time"

	"homefinder/internal/database"
	"homefinder/internal/handlers"
	"homefinder/internal/middleware"
	"homefinder/internal/services"
	"homefinder/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(provisioner *services.ProvisioningService) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router, provisioner)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, provisioner *services.ProvisioningService) {

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 租户路由（内部管理接口）
		tenantHandler := handlers.NewTenantHandler(services.NewTenantService(database.GetDB()), provisioner)
		tenants := api.Group("/tenants")
		{
			// 开通/升级/回滚
			tenants.POST("/provision", tenantHandler.Provision)
			tenants.POST("/update", tenantHandler.UpdateSchema)
			tenants.POST("/rollback", tenantHandler.RollbackSchema)

			// 注册表查询
			tenants.GET("", tenantHandler.GetAll)
			tenants.GET("/stats", tenantHandler.GetStats)
			tenants.GET("/status-distribution", tenantHandler.GetStatusDistribution)
			tenants.GET("/:id", tenantHandler.GetByID)

			// 快捷操作
			tenants.POST("/:id/activate", tenantHandler.Activate)
			tenants.POST("/:id/deactivate", tenantHandler.Deactivate)
		}
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "HomeFinder Tenant Provisioner",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
