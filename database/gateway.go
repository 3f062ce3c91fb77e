package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Result is the metadata of a statement run through the gateway.
type Result struct {
	RowsAffected int64
}

// Gateway runs parameterized SQL against the store. It is used where a
// query does not map onto a model, such as aggregates and health probes.
type Gateway struct {
	db *gorm.DB
}

// NewGateway creates a Gateway over db.
func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{db: db}
}

// Query scans every row returned by sql into dest (a pointer to a slice).
func (g *Gateway) Query(ctx context.Context, dest interface{}, sql string, args ...interface{}) error {
	return g.db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error
}

// QueryOne scans the first row into dest and returns gorm.ErrRecordNotFound
// when the query yields nothing.
func (g *Gateway) QueryOne(ctx context.Context, dest interface{}, sql string, args ...interface{}) error {
	res := g.db.WithContext(ctx).Raw(sql, args...).Scan(dest)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Run executes a statement that returns no rows.
func (g *Gateway) Run(ctx context.Context, sql string, args ...interface{}) (Result, error) {
	res := g.db.WithContext(ctx).Exec(sql, args...)
	return Result{RowsAffected: res.RowsAffected}, res.Error
}

// Ping checks that the store is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	var one int
	return g.QueryOne(ctx, &one, "SELECT 1")
}
