package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homefinder/internal/database"
	"homefinder/internal/router"
	"homefinder/internal/services"
	"homefinder/pkg/config"
	"homefinder/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting HomeFinder Tenant Provisioner...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		// 关闭数据库连接
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		// 关闭Redis连接
		if err := database.CloseRedisQueue(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	// 执行主Schema数据库迁移（租户注册表）
	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate master schema: %v", err)
	}

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 构造租户Schema迁移器（显式配置，不依赖全局状态）
	migrator, err := services.NewSchemaMigrator(services.SchemaMigratorConfig{
		Path:        cfg.Migration.Path,
		Dialect:     cfg.Migration.Dialect,
		ConnFactory: services.PgxConnFactory(cfg.Database),
	})
	if err != nil {
		appLogger.Fatalf("Failed to create schema migrator: %v", err)
	}

	provisioner := services.NewProvisioningService(database.GetDB(), migrator, database.GetRedisQueue())

	// 设置路由
	r := router.SetupRouter(provisioner)

	// 启动服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // 迁移操作可能耗时较长

	}

	// 启动服务
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 等待中断信号优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
