package database

import (
	"homefinder/internal/models"
	"homefinder/pkg/logger"
)

// Migrate 执行主Schema数据库迁移
// 仅维护public下的租户注册表，各租户Schema由Provisioner单独迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting master schema migration...")

	err := DB.AutoMigrate(
		&models.Tenant{},
	)

	if err != nil {
		appLogger.Errorf("Master schema migration failed: %v", err)
		return err
	}

	appLogger.Info("Master schema migration completed successfully")

	return nil
}
