package services

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
)

// Dialect 数据库方言策略
// 启动时从封闭集合中选定一次，不做运行期能力探测
type Dialect interface {
	Name() string
	// CreateSchemaStmt 建Schema语句，重复执行为no-op
	CreateSchemaStmt(schemaName string) string
	// SetSearchPathStmt 将连接的活动Schema切换到目标Schema
	SetSearchPathStmt(schemaName string) string
	// MigrateDriver 构造迁移引擎驱动，账本表与默认Schema均指向目标Schema
	MigrateDriver(db *sql.DB, schemaName string) (database.Driver, error)
}

type postgresDialect struct{}

func (postgresDialect) Name() string {
	return "postgres"
}

func (postgresDialect) CreateSchemaStmt(schemaName string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + schemaName
}

func (postgresDialect) SetSearchPathStmt(schemaName string) string {
	return "SET search_path TO " + schemaName
}

func (postgresDialect) MigrateDriver(db *sql.DB, schemaName string) (database.Driver, error) {
	return migratepg.WithInstance(db, &migratepg.Config{
		SchemaName: schemaName,
	})
}

// NewDialect 根据名称选择方言
func NewDialect(name string) (Dialect, error) {
	switch name {
	case "", "postgres":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("不支持的数据库方言: %s", name)
	}
}
