package postgres

import (
	"context"

	"gorm.io/gorm"

	"rag-agent-api/internal/domain/repository"
)

// TxManager 事务管理器，事务句柄通过 context 向下传递
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction 在事务中执行 fn
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, repository.TxKey{}, tx)
		return fn(txCtx)
	})
}

// getDB 优先取 context 中的事务句柄，保证仓储方法自动加入进行中的事务
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
