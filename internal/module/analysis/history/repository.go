// Package history persists completed analyses for later review and rollups.
package history

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository persists and lists analysis records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	ListByUserAndDay(ctx context.Context, userID, day string) ([]*Record, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed repository and migrates the schema.
func NewRepository(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate analysis records: %w", err)
	}
	return &gormRepository{db: db}, nil
}

func (r *gormRepository) Create(ctx context.Context, rec *Record) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create analysis record: %w", err)
	}
	return nil
}

func (r *gormRepository) ListByUserAndDay(ctx context.Context, userID, day string) ([]*Record, error) {
	var records []*Record
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list analysis records: %w", err)
	}
	return records, nil
}
