package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"homefinder/internal/models"
	apperrors "homefinder/pkg/errors"
	"homefinder/pkg/logger"
	"homefinder/pkg/queue"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Schema名称固定前缀
const schemaNamePrefix = "tenant_"

// 合法Schema名称：推导规则能产生的形态，拼进SQL语句前必须校验
var schemaNamePattern = regexp.MustCompile(`^tenant_[a-z0-9_]+$`)

// ValidSchemaName 校验Schema名称是否符合推导规则
func ValidSchemaName(schemaName string) bool {
	return schemaNamePattern.MatchString(schemaName)
}

// DeriveSchemaName 由租户标识推导Schema名称
// 纯函数：小写化后将[a-z0-9_]以外的字符替换为下划线，再加固定前缀
// 同一标识始终得到同一名称；标识仅含合法字符时映射无冲突
func DeriveSchemaName(tenantID string) string {
	var b strings.Builder
	b.WriteString(schemaNamePrefix)
	for _, r := range strings.ToLower(tenantID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ProvisioningService 租户开通服务
// 负责把租户标识变成一个隔离的、已迁移的数据库Schema，并维护主Schema中的租户注册表
type ProvisioningService struct {
	db       *gorm.DB
	migrator Migrator
	queue    *queue.RedisQueue
}

// NewProvisioningService 创建租户开通服务
// redisQueue 可为nil，此时不推送租户事件
func NewProvisioningService(db *gorm.DB, migrator Migrator, redisQueue *queue.RedisQueue) *ProvisioningService {
	return &ProvisioningService{
		db:       db,
		migrator: migrator,
		queue:    redisQueue,
	}
}

// ProvisionNewTenant 开通新租户
// 推导Schema名称、建Schema、应用全部迁移步骤并落库租户注册记录
// 重复开通同一租户为幂等操作：第二次调用不会重复应用任何步骤
func (s *ProvisioningService) ProvisionNewTenant(tenantID, tenantName string) (*models.Tenant, error) {
	appLogger := logger.GetLogger()

	if tenantID == "" || tenantName == "" {
		return nil, fmt.Errorf("租户标识和租户名称不能为空")
	}

	appLogger.Infof("Provisioning new tenant: %s (%s)", tenantName, tenantID)

	schemaName := DeriveSchemaName(tenantID)

	// 注册记录先落库为provisioning状态，标识和Schema名称创建后不可变
	var tenant models.Tenant
	err := s.db.Where("tenant_id = ?", tenantID).
		Attrs(models.Tenant{
			TenantID:   tenantID,
			Name:       tenantName,
			SchemaName: schemaName,
			Active:     true,
		}).
		FirstOrCreate(&tenant).Error
	if err != nil {
		return nil, apperrors.NewProvisioningError(tenantID,
			fmt.Errorf("%w: %v", apperrors.ErrConnection, err))
	}

	s.setStatus(&tenant, models.TenantStatusProvisioning)

	if err := s.migrator.Migrate(tenantID, schemaName); err != nil {
		// 不做自动补偿：Schema和已应用的步骤原地保留
		appLogger.Errorf("Failed to provision tenant %s: %v", tenantID, err)
		s.setStatus(&tenant, models.TenantStatusFailed)
		return nil, apperrors.NewProvisioningError(tenantID, err)
	}

	tenant.Status = models.TenantStatusReady
	tenant.Active = true
	s.snapshotLedger(&tenant)
	if err := s.db.Save(&tenant).Error; err != nil {
		return nil, apperrors.NewProvisioningError(tenantID,
			fmt.Errorf("%w: %v", apperrors.ErrConnection, err))
	}

	s.publishEvent(queue.EventTenantProvisioned, &tenant)

	appLogger.Infof("Successfully provisioned tenant: %s with schema: %s", tenantID, schemaName)
	return &tenant, nil
}

// UpdateTenantSchema 升级租户Schema：应用所有未应用的迁移步骤
// 无待应用步骤时为no-op，可安全重复调用
func (s *ProvisioningService) UpdateTenantSchema(tenantID, schemaName string) error {
	appLogger := logger.GetLogger()

	if tenantID == "" || schemaName == "" {
		return fmt.Errorf("租户标识和Schema名称不能为空")
	}
	if !ValidSchemaName(schemaName) {
		return fmt.Errorf("非法的Schema名称: %s", schemaName)
	}

	appLogger.Infof("Updating schema for tenant: %s", tenantID)

	tenant := s.loadTenant(tenantID)
	s.setStatus(tenant, models.TenantStatusMigrating)

	if err := s.migrator.Migrate(tenantID, schemaName); err != nil {
		s.setStatus(tenant, models.TenantStatusFailed)
		return apperrors.NewProvisioningError(tenantID, err)
	}

	s.finishOperation(tenant)
	s.publishEvent(queue.EventTenantUpdated, tenant)
	return nil
}

// RollbackTenantSchema 回滚租户Schema最近应用的一个迁移步骤
func (s *ProvisioningService) RollbackTenantSchema(tenantID, schemaName string) error {
	appLogger := logger.GetLogger()

	if tenantID == "" || schemaName == "" {
		return fmt.Errorf("租户标识和Schema名称不能为空")
	}
	if !ValidSchemaName(schemaName) {
		return fmt.Errorf("非法的Schema名称: %s", schemaName)
	}

	appLogger.Infof("Rolling back schema for tenant: %s", tenantID)

	tenant := s.loadTenant(tenantID)
	s.setStatus(tenant, models.TenantStatusReverting)

	if err := s.migrator.RollbackLast(tenantID, schemaName); err != nil {
		s.setStatus(tenant, models.TenantStatusFailed)
		return apperrors.NewProvisioningError(tenantID, err)
	}

	s.finishOperation(tenant)
	s.publishEvent(queue.EventTenantRolledBack, tenant)
	return nil
}

// loadTenant 加载注册记录；Schema可能由其他环境开通，记录缺失不阻断操作
func (s *ProvisioningService) loadTenant(tenantID string) *models.Tenant {
	var tenant models.Tenant
	if err := s.db.Where("tenant_id = ?", tenantID).First(&tenant).Error; err != nil {
		return nil
	}
	return &tenant
}

// setStatus 更新注册记录状态，记录缺失时跳过
func (s *ProvisioningService) setStatus(tenant *models.Tenant, status string) {
	if tenant == nil {
		return
	}
	tenant.Status = status
	if err := s.db.Save(tenant).Error; err != nil {
		logger.GetLogger().Warnf("Failed to persist tenant status %s: %v", status, err)
	}
}

// finishOperation 操作成功后恢复ready状态并刷新账本快照
func (s *ProvisioningService) finishOperation(tenant *models.Tenant) {
	if tenant == nil {
		return
	}
	tenant.Status = models.TenantStatusReady
	s.snapshotLedger(tenant)
	if err := s.db.Save(tenant).Error; err != nil {
		logger.GetLogger().Warnf("Failed to persist tenant record: %v", err)
	}
}

// snapshotLedger 把账本当前版本记入注册记录，便于巡检
func (s *ProvisioningService) snapshotLedger(tenant *models.Tenant) {
	version, dirty, err := s.migrator.CurrentVersion(tenant.TenantID, tenant.SchemaName)
	if err != nil {
		logger.GetLogger().Warnf("Failed to read migration ledger for tenant %s: %v", tenant.TenantID, err)
		return
	}

	info, err := json.Marshal(map[string]interface{}{
		"version":     version,
		"dirty":       dirty,
		"recorded_at": time.Now().Unix(),
	})
	if err != nil {
		return
	}
	tenant.MigrationInfo = datatypes.JSON(info)
}

// publishEvent 推送租户生命周期事件，失败只记日志不影响主流程
func (s *ProvisioningService) publishEvent(eventType string, tenant *models.Tenant) {
	if s.queue == nil || tenant == nil {
		return
	}
	err := s.queue.PublishTenantEvent(uuid.New().String(), eventType,
		tenant.TenantID, tenant.Name, tenant.SchemaName)
	if err != nil {
		logger.GetLogger().Warnf("Failed to publish tenant event %s: %v", eventType, err)
	}
}
