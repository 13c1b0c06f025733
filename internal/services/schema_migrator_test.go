package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	apperrors "homefinder/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialect(t *testing.T) {
	d, err := NewDialect("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	// 空名称取默认方言
	d, err = NewDialect("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	// 封闭集合之外的方言直接报错，不做运行期探测
	_, err = NewDialect("oracle")
	assert.Error(t, err)
}

func TestPostgresDialectStatements(t *testing.T) {
	d, err := NewDialect("postgres")
	require.NoError(t, err)

	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS tenant_acme", d.CreateSchemaStmt("tenant_acme"))
	assert.Equal(t, "SET search_path TO tenant_acme", d.SetSearchPathStmt("tenant_acme"))
}

func TestNewSchemaMigratorValidation(t *testing.T) {
	// 缺少连接工厂
	_, err := NewSchemaMigrator(SchemaMigratorConfig{Dialect: "postgres"})
	assert.Error(t, err)

	// 非法方言
	_, err = NewSchemaMigrator(SchemaMigratorConfig{
		Dialect:     "mssql",
		ConnFactory: func(string) (*sql.DB, error) { return nil, nil },
	})
	assert.Error(t, err)
}

func TestSchemaMigratorConnectionFailure(t *testing.T) {
	m, err := NewSchemaMigrator(SchemaMigratorConfig{
		Dialect: "postgres",
		ConnFactory: func(schemaName string) (*sql.DB, error) {
			return nil, fmt.Errorf("连接池耗尽")
		},
	})
	require.NoError(t, err)

	err = m.Migrate("acme", "tenant_acme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnection))

	err = m.RollbackLast("acme", "tenant_acme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnection))
}

func TestSchemaLockSerializesSameSchema(t *testing.T) {
	registry := newSchemaLockRegistry()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := registry.Lock("tenant_acme")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	// 同一Schema串行执行，临界区内最多一个goroutine
	assert.Equal(t, 1, maxInCritical)
}

func TestSchemaLockIndependentSchemas(t *testing.T) {
	registry := newSchemaLockRegistry()

	// 不同Schema互不阻塞：持有一个锁时仍可获取另一个
	unlockA := registry.Lock("tenant_a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := registry.Lock("tenant_b")
		unlockB()
		close(done)
	}()
	<-done
}
