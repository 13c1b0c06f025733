package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioningErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("%w: permission denied for database", ErrSchemaCreation)
	err := NewProvisioningError("acme", cause)

	// 错误消息携带租户标识和底层原因
	assert.Contains(t, err.Error(), "acme")
	assert.Contains(t, err.Error(), "permission denied")

	// 可通过errors.Is定位到具体错误分类
	assert.True(t, errors.Is(err, ErrSchemaCreation))
	assert.False(t, errors.Is(err, ErrRollback))

	// 可通过errors.As还原包装类型
	var provErr *ProvisioningError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "acme", provErr.TenantID)
}

func TestProvisioningErrorUnwrap(t *testing.T) {
	cause := errors.New("底层故障")
	err := NewProvisioningError("globex", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
