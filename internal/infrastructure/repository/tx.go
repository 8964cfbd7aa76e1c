package repository

import (
	"context"

	"gorm.io/gorm"

	domainRepo "github.com/dafteam/facturation-api/internal/domain/repository"
)

type txKey struct{}

type txManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager backed by gorm transactions
func NewTxManager(db *gorm.DB) domainRepo.TxManager {
	return &txManager{db: db}
}

// WithinTransaction runs fn inside one database transaction. The transaction
// handle travels in the context, so every repository call made with the
// inner context joins it and the whole unit commits or rolls back together.
func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if dbFrom(ctx, nil) != nil {
		// Already inside a transaction, join it
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom returns the transaction carried by the context, or fallback with
// the context attached when no transaction is running
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	if fallback == nil {
		return nil
	}
	return fallback.WithContext(ctx)
}
