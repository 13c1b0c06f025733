package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"homefinder/migrations"
	"homefinder/pkg/config"
	apperrors "homefinder/pkg/errors"
	"homefinder/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Migrator 租户Schema迁移接口
type Migrator interface {
	// Migrate 确保Schema存在并应用所有未应用的迁移步骤
	Migrate(tenantID, schemaName string) error
	// RollbackLast 回滚最近应用的一个迁移步骤
	RollbackLast(tenantID, schemaName string) error
	// CurrentVersion 查询账本当前版本，无已应用步骤时版本为0
	CurrentVersion(tenantID, schemaName string) (uint, bool, error)
}

// SchemaMigratorConfig 迁移器显式配置，不依赖任何全局状态
type SchemaMigratorConfig struct {
	Path        string                                   // 变更集目录，为空时使用内置变更集
	Dialect     string                                   // 方言名称，封闭集合
	ConnFactory func(schemaName string) (*sql.DB, error) // 按Schema获取独立连接
}

// SchemaMigrator 租户Schema迁移器
// 每次调用为一个同步工作单元：取连接、建Schema、切搜索路径、委托迁移引擎、释放连接
// 失败时不做自动补偿，Schema和已应用的步骤原地保留供运维排查
type SchemaMigrator struct {
	cfg     SchemaMigratorConfig
	dialect Dialect
	locks   *schemaLockRegistry
}

// NewSchemaMigrator 创建迁移器
func NewSchemaMigrator(cfg SchemaMigratorConfig) (*SchemaMigrator, error) {
	dialect, err := NewDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if cfg.ConnFactory == nil {
		return nil, fmt.Errorf("必须提供连接工厂")
	}

	return &SchemaMigrator{
		cfg:     cfg,
		dialect: dialect,
		locks:   newSchemaLockRegistry(),
	}, nil
}

// PgxConnFactory 基于pgx的默认连接工厂
// 连接参数中直接携带search_path，保证池内每条连接都指向租户Schema
func PgxConnFactory(cfg config.DatabaseConfig) func(schemaName string) (*sql.DB, error) {
	return func(schemaName string) (*sql.DB, error) {
		dsn := cfg.DSN() + fmt.Sprintf(" options='-c search_path=%s'", schemaName)
		return sql.Open("pgx", dsn)
	}
}

// Migrate 为指定租户Schema执行迁移
func (m *SchemaMigrator) Migrate(tenantID, schemaName string) error {
	appLogger := logger.GetLogger()
	appLogger.Infof("Starting schema migration for tenant: %s in schema: %s", tenantID, schemaName)

	unlock := m.locks.Lock(schemaName)
	defer unlock()

	db, err := m.connect(schemaName)
	if err != nil {
		return err
	}
	defer db.Close()

	// 先建Schema再切搜索路径，重复执行为no-op
	if _, err := db.Exec(m.dialect.CreateSchemaStmt(schemaName)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrSchemaCreation, err)
	}
	if _, err := db.Exec(m.dialect.SetSearchPathStmt(schemaName)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrSchemaCreation, err)
	}

	engine, err := m.newEngine(db, schemaName)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMigrationStep, err)
	}

	// 只应用未记录到账本的步骤，全部应用过则为no-op
	if err := engine.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: %v", apperrors.ErrMigrationStep, err)
	}

	appLogger.Infof("Successfully completed schema migration for tenant: %s in schema: %s", tenantID, schemaName)
	return nil
}

// RollbackLast 回滚最近应用的一个迁移步骤，不级联
func (m *SchemaMigrator) RollbackLast(tenantID, schemaName string) error {
	appLogger := logger.GetLogger()
	appLogger.Infof("Rolling back last migration step for tenant: %s in schema: %s", tenantID, schemaName)

	unlock := m.locks.Lock(schemaName)
	defer unlock()

	db, err := m.connect(schemaName)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(m.dialect.SetSearchPathStmt(schemaName)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRollback, err)
	}

	engine, err := m.newEngine(db, schemaName)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRollback, err)
	}

	if _, _, err := engine.Version(); errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("%w: 无已应用的迁移步骤", apperrors.ErrRollback)
	} else if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRollback, err)
	}

	if err := engine.Steps(-1); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRollback, err)
	}

	appLogger.Infof("Successfully rolled back last migration step for tenant: %s", tenantID)
	return nil
}

// CurrentVersion 查询账本当前版本
func (m *SchemaMigrator) CurrentVersion(tenantID, schemaName string) (uint, bool, error) {
	unlock := m.locks.Lock(schemaName)
	defer unlock()

	db, err := m.connect(schemaName)
	if err != nil {
		return 0, false, err
	}
	defer db.Close()

	engine, err := m.newEngine(db, schemaName)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := engine.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

// connect 获取连接并确认可用
func (m *SchemaMigrator) connect(schemaName string) (*sql.DB, error) {
	db, err := m.cfg.ConnFactory(schemaName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnection, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnection, err)
	}
	return db, nil
}

// newEngine 构造迁移引擎实例，账本与默认Schema均指向租户Schema
func (m *SchemaMigrator) newEngine(db *sql.DB, schemaName string) (*migrate.Migrate, error) {
	var source fs.FS
	if m.cfg.Path != "" {
		source = os.DirFS(m.cfg.Path)
	} else {
		source = migrations.FS
	}

	sourceDriver, err := iofs.New(source, ".")
	if err != nil {
		return nil, err
	}

	dbDriver, err := m.dialect.MigrateDriver(db, schemaName)
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", sourceDriver, m.dialect.Name(), dbDriver)
}
