package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"homefinder/internal/services"
	apperrors "homefinder/pkg/errors"
	"homefinder/pkg/pagination"
	"homefinder/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProvisionTenantRequest 开通请求结构体
type ProvisionTenantRequest struct {
	TenantID   string `json:"tenant_id" binding:"required"`
	TenantName string `json:"tenant_name" binding:"required"`
}

// UpdateSchemaRequest 升级/回滚请求结构体
type UpdateSchemaRequest struct {
	TenantID   string `json:"tenant_id" binding:"required"`
	SchemaName string `json:"schema_name" binding:"required"`
}

type TenantHandler struct {
	service     *services.TenantService
	provisioner *services.ProvisioningService
}

func NewTenantHandler(service *services.TenantService, provisioner *services.ProvisioningService) *TenantHandler {
	return &TenantHandler{
		service:     service,
		provisioner: provisioner,
	}
}

// Provision 开通新租户
func (h *TenantHandler) Provision(c *gin.Context) {
	var req ProvisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.ValidateProvisionParams(req.TenantID, req.TenantName); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.provisioner.ProvisionNewTenant(req.TenantID, req.TenantName)
	if err != nil {
		// 开通失败统一返回可读错误消息，Schema及已应用步骤原地保留
		var provErr *apperrors.ProvisioningError
		if errors.As(err, &provErr) {
			response.ServerError(c, provErr.Error())
			return
		}
		response.ServerError(c, "开通失败")
		return
	}

	message := fmt.Sprintf("租户 '%s' 开通成功，Schema: %s", tenant.Name, tenant.SchemaName)
	response.SuccessWithMessage(c, message, tenant)
}

// UpdateSchema 升级租户Schema（应用未应用的迁移步骤）
func (h *TenantHandler) UpdateSchema(c *gin.Context) {
	var req UpdateSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	// Schema名称直接拼入SQL语句，进入服务前先校验形态
	if !services.ValidSchemaName(req.SchemaName) {
		response.BadRequest(c, "非法的Schema名称")
		return
	}

	if err := h.provisioner.UpdateTenantSchema(req.TenantID, req.SchemaName); err != nil {
		var provErr *apperrors.ProvisioningError
		if errors.As(err, &provErr) {
			response.ServerError(c, provErr.Error())
			return
		}
		response.ServerError(c, "升级失败")
		return
	}

	response.SuccessWithMessage(c, "租户 "+req.TenantID+" Schema升级成功", nil)
}

// RollbackSchema 回滚租户Schema最近一个迁移步骤
func (h *TenantHandler) RollbackSchema(c *gin.Context) {
	var req UpdateSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if !services.ValidSchemaName(req.SchemaName) {
		response.BadRequest(c, "非法的Schema名称")
		return
	}

	if err := h.provisioner.RollbackTenantSchema(req.TenantID, req.SchemaName); err != nil {
		var provErr *apperrors.ProvisioningError
		if errors.As(err, &provErr) {
			response.ServerError(c, provErr.Error())
			return
		}
		response.ServerError(c, "回滚失败")
		return
	}

	response.SuccessWithMessage(c, "租户 "+req.TenantID+" Schema回滚成功", nil)
}

// GetByID 获取租户
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	tenant, err := h.service.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "租户不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, tenant)
}

// GetAll 分页查询租户列表
func (h *TenantHandler) GetAll(c *gin.Context) {
	// 解析分页参数
	pageParams := pagination.ParsePageParams(c)

	// 支持按状态筛选、关键词搜索
	status := c.Query("status")
	keyword := c.Query("keyword")

	tenants, total, err := h.service.GetWithFiltersAndPage(status, keyword, pageParams.Page, pageParams.PageSize)

	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	// 计算分页信息
	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, tenants, pageInfo)
}

// Activate 激活租户
func (h *TenantHandler) Activate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	tenant, err := h.service.Activate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "租户不存在")
			return
		}
		response.ServerError(c, "激活失败")
		return
	}

	response.Success(c, tenant)
}

// Deactivate 停用租户
func (h *TenantHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	tenant, err := h.service.Deactivate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "租户不存在")
			return
		}
		response.ServerError(c, "停用失败")
		return
	}

	response.Success(c, tenant)
}

// GetStats 获取租户统计
func (h *TenantHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats()
	if err != nil {
		response.ServerError(c, "统计失败")
		return
	}

	response.Success(c, stats)
}

// GetStatusDistribution 获取租户状态分布
func (h *TenantHandler) GetStatusDistribution(c *gin.Context) {
	distribution, err := h.service.GetStatusDistribution()
	if err != nil {
		response.ServerError(c, "统计失败")
		return
	}

	response.Success(c, distribution)
}
