package errors

import (
	"errors"
	"fmt"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// ========== 租户开通错误分类 ==========

var (
	// ErrConnection 无法获取数据库连接
	ErrConnection = errors.New("获取数据库连接失败")
	// ErrSchemaCreation CREATE SCHEMA 语句执行失败
	ErrSchemaCreation = errors.New("创建Schema失败")
	// ErrMigrationStep 正向迁移步骤执行失败
	ErrMigrationStep = errors.New("执行迁移步骤失败")
	// ErrRollback 无可回滚步骤或回滚动作执行失败
	ErrRollback = errors.New("回滚迁移步骤失败")
)

// ProvisioningError 租户开通错误
// 所有底层错误在跨出服务边界前统一包装为该类型，携带租户标识和原始原因
type ProvisioningError struct {
	TenantID string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("租户 %s 开通操作失败: %v", e.TenantID, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// NewProvisioningError 包装底层错误
func NewProvisioningError(tenantID string, err error) *ProvisioningError {
	return &ProvisioningError{TenantID: tenantID, Err: err}
}
