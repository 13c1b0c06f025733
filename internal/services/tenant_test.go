package services

import (
	"testing"

	"homefinder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTenants(t *testing.T, db *gorm.DB) {
	tenants := []models.Tenant{
		{TenantID: "acme", Name: "Acme Corp", SchemaName: "tenant_acme", Active: true, Status: models.TenantStatusReady},
		{TenantID: "globex", Name: "Globex", SchemaName: "tenant_globex", Active: true, Status: models.TenantStatusReady},
		{TenantID: "initech", Name: "Initech", SchemaName: "tenant_initech", Active: false, Status: models.TenantStatusFailed},
	}
	for i := range tenants {
		require.NoError(t, db.Create(&tenants[i]).Error)
		// active列带default:true，Create会把零值false当作缺省吞掉，停用状态需显式更新
		if !tenants[i].Active {
			require.NoError(t, db.Model(&tenants[i]).Update("active", false).Error)
		}
	}
}

func TestSeededInactiveTenantStaysInactive(t *testing.T) {
	db := setupTestDB(t)
	seedTenants(t, db)
	svc := NewTenantService(db)

	// 停用状态的种子数据回读仍为停用
	tenant, err := svc.GetByTenantID("initech")
	require.NoError(t, err)
	assert.False(t, tenant.Active)
}

func TestTenantServiceGetWithFiltersAndPage(t *testing.T) {
	db := setupTestDB(t)
	seedTenants(t, db)
	svc := NewTenantService(db)

	// 无过滤条件
	tenants, total, err := svc.GetWithFiltersAndPage("", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, tenants, 3)

	// 按状态过滤
	tenants, total, err = svc.GetWithFiltersAndPage(models.TenantStatusFailed, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "initech", tenants[0].TenantID)

	// 关键词匹配名称/标识/Schema
	_, total, err = svc.GetWithFiltersAndPage("", "glob", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// 分页
	tenants, total, err = svc.GetWithFiltersAndPage("", "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, tenants, 1)
}

func TestTenantServiceActivateDeactivate(t *testing.T) {
	db := setupTestDB(t)
	seedTenants(t, db)
	svc := NewTenantService(db)

	tenant, err := svc.GetByTenantID("acme")
	require.NoError(t, err)

	updated, err := svc.Deactivate(tenant.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	updated, err = svc.Activate(tenant.ID)
	require.NoError(t, err)
	assert.True(t, updated.Active)

	// 激活标记不影响标识和Schema名称
	assert.Equal(t, "acme", updated.TenantID)
	assert.Equal(t, "tenant_acme", updated.SchemaName)
}

func TestTenantServiceGetStats(t *testing.T) {
	db := setupTestDB(t)
	seedTenants(t, db)
	svc := NewTenantService(db)

	stats, err := svc.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Inactive)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestTenantServiceGetAllActive(t *testing.T) {
	db := setupTestDB(t)
	seedTenants(t, db)
	svc := NewTenantService(db)

	tenants, err := svc.GetAllActive()
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}

func TestTenantServiceValidation(t *testing.T) {
	svc := NewTenantService(nil)

	assert.NoError(t, svc.ValidateProvisionParams("acme", "Acme Corp"))
	assert.Error(t, svc.ValidateProvisionParams("", "Acme Corp"))
	assert.Error(t, svc.ValidateProvisionParams("acme", "A"))

	longID := make([]byte, 51)
	for i := range longID {
		longID[i] = 'a'
	}
	assert.Error(t, svc.ValidateProvisionParams(string(longID), "Acme Corp"))
}
