package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// conn returns the transaction bound to ctx by Transaction, or the base handle.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// runInTx executes fn inside a database transaction. Repository calls made
// with the ctx handed to fn join that transaction. Nested calls become
// savepoints.
func runInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return conn(ctx, db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
