package services

import (
	"fmt"
	"unicode/utf8"

	"homefinder/internal/models"

	"gorm.io/gorm"
)

type TenantService struct {
	db *gorm.DB
}

// TenantStats 租户统计信息
type TenantStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Failed   int64 `json:"failed"`
}

// StatusCount 状态分布统计
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{
		db: db,
	}
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *TenantService) GetWithFiltersAndPage(status, keyword string, page, pageSize int) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	query := s.db.Model(&models.Tenant{})

	// 添加过滤条件
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR tenant_id LIKE ? OR schema_name LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&tenants).Error
	if err != nil {
		return nil, 0, err
	}

	return tenants, total, nil
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	return &tenant, err
}

// GetByTenantID 根据租户标识获取租户
func (s *TenantService) GetByTenantID(tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("tenant_id = ?", tenantID).First(&tenant).Error
	return &tenant, err
}

// GetAllActive 获取所有激活的租户
func (s *TenantService) GetAllActive() ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	err := s.db.Model(&models.Tenant{}).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&tenants).Error

	return tenants, err
}

// Activate 激活租户
// 仅切换注册表中的激活标记，不触碰租户Schema
func (s *TenantService) Activate(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	if err != nil {
		return nil, err
	}

	tenant.Active = true
	err = s.db.Save(&tenant).Error
	return &tenant, err
}

// Deactivate 停用租户
func (s *TenantService) Deactivate(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	if err != nil {
		return nil, err
	}

	tenant.Active = false
	err = s.db.Save(&tenant).Error
	return &tenant, err
}

// GetStats 获取租户统计
func (s *TenantService) GetStats() (*TenantStats, error) {
	stats := &TenantStats{}

	// 总数
	s.db.Model(&models.Tenant{}).Count(&stats.Total)

	// 各状态数量
	s.db.Model(&models.Tenant{}).Where("active = ?", true).Count(&stats.Active)
	s.db.Model(&models.Tenant{}).Where("active = ?", false).Count(&stats.Inactive)
	s.db.Model(&models.Tenant{}).Where("status = ?", models.TenantStatusFailed).Count(&stats.Failed)

	return stats, nil
}

// GetStatusDistribution 统计租户状态分布
func (s *TenantService) GetStatusDistribution() ([]*StatusCount, error) {
	var results []*StatusCount
	err := s.db.Model(&models.Tenant{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&results).Error
	return results, err
}

// ========== 验证相关方法 ==========

// ValidateName 验证租户名称长度
func (s *TenantService) ValidateName(name string) bool {
	// 使用 utf8.RuneCountInString 替代 len
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 100
}

// ValidateTenantID 验证租户标识：非空且不超过50字符
func (s *TenantService) ValidateTenantID(tenantID string) bool {
	return len(tenantID) >= 1 && len(tenantID) <= 50
}

// ValidateProvisionParams 验证开通参数
func (s *TenantService) ValidateProvisionParams(tenantID, name string) error {
	if !s.ValidateTenantID(tenantID) {
		return fmt.Errorf("租户标识长度必须在1-50个字符之间")
	}
	if !s.ValidateName(name) {
		return fmt.Errorf("租户名称长度必须在2-100个字符之间")
	}
	return nil
}
