// Package migrations 内置租户Schema变更集
// 所有租户共用同一份有序变更集，内容即外部配置，可通过MIGRATION_PATH覆盖
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
