// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// RowIterator 逐行产出待装载的数据，读完时返回 io.EOF
type RowIterator func() ([]interface{}, error)

// IntegrityIssue 引用完整性检查结果
// 装载管线不在写入时强制外键约束，违规行在装载后检测
type IntegrityIssue struct {
	Check       string `json:"check"`
	Description string `json:"description"`
	Count       int64  `json:"count"`
}

// RoleTypeCount 人物角色类型及其关联行数
type RoleTypeCount struct {
	RoleType string `json:"roletype"`
	Count    int64  `json:"count"`
}

// CatalogRepository 馆藏目录装载仓储接口
type CatalogRepository interface {
	// EnsureSchema 确保目录表结构存在
	EnsureSchema(ctx context.Context) error

	// ReloadTable 清空并整表重载，返回写入行数
	// 单表在一个事务内完成，表与表之间相互独立
	ReloadTable(ctx context.Context, table string, columns []string, rows RowIterator) (int64, error)

	// ObjectIDSet 返回 objects 表中已提交的全部 objectid
	ObjectIDSet(ctx context.Context) (map[int64]struct{}, error)

	// TableRowCount 统计表行数
	TableRowCount(ctx context.Context, table string) (int64, error)

	// ValidateIntegrity 运行全部引用完整性检查
	ValidateIntegrity(ctx context.Context) ([]*IntegrityIssue, error)

	// RoleTypeDistribution 统计 objects_constituents 中各角色类型的行数
	RoleTypeDistribution(ctx context.Context) ([]*RoleTypeCount, error)

	// CreateDerivedViews 创建或替换派生视图（检索核心不依赖这些视图）
	CreateDerivedViews(ctx context.Context) error
}
