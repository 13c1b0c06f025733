package models

import "gorm.io/datatypes"

// Tenant 租户注册表（存储在public主Schema）
type Tenant struct {
	BaseModel
	TenantID      string         `json:"tenant_id" gorm:"unique;not null;size:50;index"`
	Name          string         `json:"name" gorm:"not null;size:100"`
	SchemaName    string         `json:"schema_name" gorm:"unique;not null;size:50"`
	Active        bool           `json:"active" gorm:"default:true"`
	Status        string         `json:"status" gorm:"default:'provisioning';size:20"`
	Description   string         `json:"description" gorm:"size:500"`
	MigrationInfo datatypes.JSON `json:"migration_info"` // 最近一次迁移后的账本快照
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// 租户Schema状态常量
// 开通/升级/回滚过程中流转：provisioning|migrating|reverting -> ready 或 failed
// failed 状态仅能由运维修复底层故障后重新执行升级恢复
const (
	TenantStatusProvisioning = "provisioning"
	TenantStatusMigrating    = "migrating"
	TenantStatusReverting    = "reverting"
	TenantStatusReady        = "ready"
	TenantStatusFailed       = "failed"
)
